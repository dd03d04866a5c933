package manifest

import (
	"encoding/json"

	"github.com/lodosgroup/lpm/internal/lpmerr"
	"github.com/lodosgroup/lpm/internal/version"
)

// System is the decoded contents of system.json: the builder's own
// version and the oldest engine version that can install what it built.
type System struct {
	BuilderVersion         version.Version
	MinSupportedLpmVersion version.Version
}

type rawSystem struct {
	BuilderVersion         *string `json:"builder_version"`
	MinSupportedLpmVersion *string `json:"min_supported_lpm_version"`
}

func (s *System) UnmarshalJSON(data []byte) error {
	var raw rawSystem
	if err := json.Unmarshal(data, &raw); err != nil {
		return &lpmerr.PackageError{Kind: lpmerr.InvalidPackageFiles, Why: err.Error()}
	}
	if raw.BuilderVersion == nil {
		return missingField("builder_version")
	}
	if raw.MinSupportedLpmVersion == nil {
		return missingField("min_supported_lpm_version")
	}

	bv, err := version.Parse(*raw.BuilderVersion)
	if err != nil {
		return &lpmerr.PackageError{Kind: lpmerr.InvalidPackageFiles, Why: err.Error()}
	}
	mv, err := version.Parse(*raw.MinSupportedLpmVersion)
	if err != nil {
		return &lpmerr.PackageError{Kind: lpmerr.InvalidPackageFiles, Why: err.Error()}
	}

	*s = System{BuilderVersion: bv, MinSupportedLpmVersion: mv}
	return nil
}

// SupportedBy reports whether engineVersion is new enough to install a
// package built with this System record.
func (s System) SupportedBy(engineVersion version.Version) bool {
	return version.Compare(engineVersion, s.MinSupportedLpmVersion) != version.OrderLess
}
