package manifest

import (
	"encoding/json"
	"strings"

	"github.com/lodosgroup/lpm/internal/fsutil"
	"github.com/lodosgroup/lpm/internal/lpmerr"
)

// FileEntry describes one program file shipped by the package: its path
// relative to the package root, the digest algorithm used to verify it,
// and the expected digest.
type FileEntry struct {
	Path              string
	ChecksumAlgorithm string
	Checksum          string
}

// Files is the decoded contents of files.json: an ordered list of
// FileEntry, order preserved from the source document since the engine
// copies files in listed order.
type Files []FileEntry

type rawFileEntry struct {
	Path              *string `json:"path"`
	ChecksumAlgorithm *string `json:"checksum_algorithm"`
	Checksum          *string `json:"checksum"`
}

// UnmarshalJSON decodes files.json. The checksum algorithm is
// case-folded to lower case here so downstream comparisons never worry
// about case; Validate still rejects algorithms fsutil doesn't support.
func (f *Files) UnmarshalJSON(data []byte) error {
	var raw []rawFileEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return &lpmerr.PackageError{Kind: lpmerr.InvalidPackageFiles, Why: err.Error()}
	}

	entries := make(Files, 0, len(raw))
	for _, rf := range raw {
		if rf.Path == nil {
			return missingField("files[].path")
		}
		if rf.ChecksumAlgorithm == nil {
			return missingField("files[].checksum_algorithm")
		}
		if rf.Checksum == nil {
			return missingField("files[].checksum")
		}

		algo := strings.ToLower(*rf.ChecksumAlgorithm)
		if !fsutil.SupportedAlgorithm(algo) {
			return &lpmerr.PackageError{Kind: lpmerr.UnsupportedChecksumAlgorithm, Algo: algo}
		}

		entries = append(entries, FileEntry{
			Path:              strings.TrimPrefix(*rf.Path, "/"),
			ChecksumAlgorithm: algo,
			Checksum:          strings.ToLower(*rf.Checksum),
		})
	}

	*f = entries
	return nil
}

// AbsolutePath returns the catalog-form path: the package-relative path
// with a leading "/" attached.
func (e FileEntry) AbsolutePath() string {
	return "/" + e.Path
}
