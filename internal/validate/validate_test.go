package validate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lodosgroup/lpm/internal/archive"
	"github.com/lodosgroup/lpm/internal/manifest"
	"github.com/lodosgroup/lpm/internal/version"
	"github.com/stretchr/testify/require"
)

func scratchWithFile(t *testing.T, relPath, content string) *archive.Scratch {
	t.Helper()
	dir := t.TempDir()
	scratch := &archive.Scratch{Dir: dir}
	full := filepath.Join(scratch.ProgramDir(), relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return scratch
}

func mustVersion(t *testing.T, s string) version.Version {
	t.Helper()
	v, err := version.Parse(s)
	require.NoError(t, err)
	return v
}

func TestValidateSuccess(t *testing.T) {
	scratch := scratchWithFile(t, "usr/bin/foo", "hello")
	// sha256("hello") = 2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824
	files := manifest.Files{{Path: "usr/bin/foo", ChecksumAlgorithm: "sha256", Checksum: "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"}}
	meta := manifest.Meta{Name: "foo", Arch: "no-arch"}
	system := manifest.System{MinSupportedLpmVersion: mustVersion(t, "1.0.0")}

	err := Validate(scratch, meta, files, system, "x86_64", mustVersion(t, "1.5.0"))
	require.NoError(t, err)
}

func TestValidateArchMismatch(t *testing.T) {
	scratch := scratchWithFile(t, "a", "x")
	meta := manifest.Meta{Name: "foo", Arch: "arm64"}
	system := manifest.System{MinSupportedLpmVersion: mustVersion(t, "1.0.0")}

	err := Validate(scratch, meta, nil, system, "x86_64", mustVersion(t, "1.5.0"))
	require.Error(t, err)
}

func TestValidateChecksumMismatch(t *testing.T) {
	scratch := scratchWithFile(t, "a", "hello")
	files := manifest.Files{{Path: "a", ChecksumAlgorithm: "sha256", Checksum: "deadbeef"}}
	meta := manifest.Meta{Name: "foo", Arch: "no-arch"}
	system := manifest.System{MinSupportedLpmVersion: mustVersion(t, "1.0.0")}

	err := Validate(scratch, meta, files, system, "x86_64", mustVersion(t, "1.5.0"))
	require.Error(t, err)
}

func TestValidateCaseInsensitiveAlgorithm(t *testing.T) {
	scratch := scratchWithFile(t, "a", "hello")
	files := manifest.Files{{Path: "a", ChecksumAlgorithm: "SHA256", Checksum: "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"}}
	meta := manifest.Meta{Name: "foo", Arch: "no-arch"}
	system := manifest.System{MinSupportedLpmVersion: mustVersion(t, "1.0.0")}

	err := Validate(scratch, meta, files, system, "x86_64", mustVersion(t, "1.5.0"))
	require.NoError(t, err)
}

func TestValidateEngineTooOld(t *testing.T) {
	scratch := scratchWithFile(t, "a", "x")
	meta := manifest.Meta{Name: "foo", Arch: "no-arch"}
	system := manifest.System{MinSupportedLpmVersion: mustVersion(t, "2.0.0")}

	err := Validate(scratch, meta, nil, system, "x86_64", mustVersion(t, "1.0.0"))
	require.Error(t, err)
}
