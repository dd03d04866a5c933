// Package manifest decodes the three JSON documents carried inside a
// package blob (meta.json, files.json, system.json) plus the on-disk
// stage-1 scripts into the typed structures of the data model.
package manifest

import (
	"encoding/json"

	"github.com/lodosgroup/lpm/internal/lpmerr"
	"github.com/lodosgroup/lpm/internal/version"
)

// Dependency names another package and the version constraint it must
// satisfy.
type Dependency struct {
	Name    string
	Version version.Version
}

// Suggestion names an optional companion package. Version is the zero
// value when the suggestion carries no constraint.
type Suggestion struct {
	Name    string
	Version version.Version
}

// Meta is the decoded contents of meta.json. The fields beyond the ones
// named in the data model (Description through License) are carried by
// the original package format but were dropped from the minimal schema;
// they're optional here and ignored by components that don't need them.
type Meta struct {
	Name          string
	Description   string
	Maintainer    string
	SourcePkg     string
	Repository    string
	Homepage      string
	Arch          string
	Kind          string
	InstalledSize int64
	Tags          []string
	Version       version.Version
	License       string
	Dependencies  []Dependency
	Suggestions   []Suggestion
}

const noArch = "no-arch"

// IsNoArch reports whether the package declares itself architecture
// independent.
func (m Meta) IsNoArch() bool {
	return m.Arch == noArch
}

type rawDependency struct {
	Name    *string `json:"name"`
	Version *string `json:"version"`
}

type rawSuggestion struct {
	Name    *string `json:"name"`
	Version *string `json:"version"`
}

type rawMeta struct {
	Name          *string         `json:"name"`
	Description   string          `json:"description"`
	Maintainer    string          `json:"maintainer"`
	SourcePkg     string          `json:"source_pkg"`
	Repository    string          `json:"repository"`
	Homepage      string          `json:"homepage"`
	Arch          *string         `json:"arch"`
	Kind          string          `json:"kind"`
	InstalledSize *int64          `json:"installed_size"`
	Tags          []string        `json:"tags"`
	Version       *string         `json:"version"`
	License       string          `json:"license"`
	Dependencies  []rawDependency `json:"dependencies"`
	Suggestions   []rawSuggestion `json:"suggestions"`
}

func missingField(field string) error {
	return &lpmerr.PackageError{Kind: lpmerr.InvalidPackageFiles, Why: "missing required field " + field}
}

// UnmarshalJSON decodes meta.json. A nil pointer left over an
// intermediate struct after decode means a required field was absent
// from the input, which fails with lpmerr.InvalidPackageFiles.
func (m *Meta) UnmarshalJSON(data []byte) error {
	var raw rawMeta
	if err := json.Unmarshal(data, &raw); err != nil {
		return &lpmerr.PackageError{Kind: lpmerr.InvalidPackageFiles, Why: err.Error()}
	}

	if raw.Name == nil {
		return missingField("name")
	}
	if raw.Arch == nil {
		return missingField("arch")
	}
	if raw.InstalledSize == nil {
		return missingField("installed_size")
	}
	if raw.Version == nil {
		return missingField("version")
	}

	v, err := version.Parse(*raw.Version)
	if err != nil {
		return &lpmerr.PackageError{Kind: lpmerr.InvalidPackageFiles, Why: err.Error()}
	}

	deps := make([]Dependency, 0, len(raw.Dependencies))
	for _, rd := range raw.Dependencies {
		if rd.Name == nil || rd.Version == nil {
			return missingField("dependencies[].name/version")
		}
		dv, err := version.Parse(*rd.Version)
		if err != nil {
			return &lpmerr.PackageError{Kind: lpmerr.InvalidPackageFiles, Why: err.Error()}
		}
		deps = append(deps, Dependency{Name: *rd.Name, Version: dv})
	}

	suggestions := make([]Suggestion, 0, len(raw.Suggestions))
	for _, rs := range raw.Suggestions {
		if rs.Name == nil {
			return missingField("suggestions[].name")
		}
		s := Suggestion{Name: *rs.Name}
		if rs.Version != nil {
			sv, err := version.Parse(*rs.Version)
			if err != nil {
				return &lpmerr.PackageError{Kind: lpmerr.InvalidPackageFiles, Why: err.Error()}
			}
			s.Version = sv
		}
		suggestions = append(suggestions, s)
	}

	*m = Meta{
		Name:          *raw.Name,
		Description:   raw.Description,
		Maintainer:    raw.Maintainer,
		SourcePkg:     raw.SourcePkg,
		Repository:    raw.Repository,
		Homepage:      raw.Homepage,
		Arch:          *raw.Arch,
		Kind:          raw.Kind,
		InstalledSize: *raw.InstalledSize,
		Tags:          raw.Tags,
		Version:       v,
		License:       raw.License,
		Dependencies:  deps,
		Suggestions:   suggestions,
	}
	return nil
}
