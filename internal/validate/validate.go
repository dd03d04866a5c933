// Package validate checks an extracted package's architecture, file
// digests, and minimum-engine-version requirement before the lifecycle
// engine is allowed to persist it. It is pure over its arguments: it
// never touches the catalog.
package validate

import (
	"path/filepath"

	"github.com/lodosgroup/lpm/internal/archive"
	"github.com/lodosgroup/lpm/internal/fsutil"
	"github.com/lodosgroup/lpm/internal/lpmerr"
	"github.com/lodosgroup/lpm/internal/manifest"
	"github.com/lodosgroup/lpm/internal/version"
)

const noArch = "no-arch"

// Validate checks meta's architecture against hostArch, verifies every
// FileEntry's digest against the corresponding payload file under
// scratch, and rejects a package whose system record demands a newer
// engine than selfVersion.
func Validate(scratch *archive.Scratch, meta manifest.Meta, files manifest.Files, system manifest.System, hostArch string, selfVersion version.Version) error {
	if meta.Arch != hostArch && meta.Arch != noArch {
		return &lpmerr.PackageError{Kind: lpmerr.UnsupportedPackageArchitecture, Arch: meta.Arch}
	}

	for _, e := range files {
		if !fsutil.SupportedAlgorithm(e.ChecksumAlgorithm) {
			return &lpmerr.PackageError{Kind: lpmerr.UnsupportedChecksumAlgorithm, Algo: e.ChecksumAlgorithm}
		}

		path := filepath.Join(scratch.ProgramDir(), filepath.FromSlash(e.Path))
		digest, err := fsutil.DigestFile(path, e.ChecksumAlgorithm)
		if err != nil {
			return &lpmerr.PackageError{Kind: lpmerr.InvalidPackageFiles, Why: err.Error()}
		}
		if digest != e.Checksum {
			return &lpmerr.PackageError{Kind: lpmerr.InvalidPackageFiles, Why: "checksum mismatch for " + e.Path}
		}
	}

	if !system.SupportedBy(selfVersion) {
		return &lpmerr.PackageError{
			Kind: lpmerr.UnsupportedStandard,
			Name: meta.Name,
			Why:  "engine version " + selfVersion.String() + " is older than required " + system.MinSupportedLpmVersion.String(),
		}
	}

	return nil
}
