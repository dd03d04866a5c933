package archive

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"
)

// buildBlob writes an LZ4-frame-compressed TAR archive with the given
// entries to a temp file and returns its path.
func buildBlob(t *testing.T, entries map[string]string) string {
	t.Helper()

	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	for name, content := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	var lzBuf bytes.Buffer
	zw := lz4.NewWriter(&lzBuf)
	_, err := zw.Write(tarBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "foo-1.0.0.lod")
	require.NoError(t, os.WriteFile(path, lzBuf.Bytes(), 0o644))
	return path
}

func TestExtractWritesFilesUnderStem(t *testing.T) {
	blob := buildBlob(t, map[string]string{
		"meta/meta.json":      `{"name":"foo"}`,
		"program/usr/bin/foo": "binary-content",
	})

	scratch, err := Extract(blob)
	require.NoError(t, err)
	defer scratch.Cleanup(nil)

	require.Equal(t, Stem(blob), filepath.Base(scratch.Dir))

	data, err := os.ReadFile(scratch.MetaPath())
	require.NoError(t, err)
	require.Contains(t, string(data), "foo")

	progData, err := os.ReadFile(filepath.Join(scratch.ProgramDir(), "usr", "bin", "foo"))
	require.NoError(t, err)
	require.Equal(t, "binary-content", string(progData))
}

func TestExtractRejectsPathTraversal(t *testing.T) {
	blob := buildBlob(t, map[string]string{
		"../../etc/passwd": "pwned",
	})

	_, err := Extract(blob)
	require.Error(t, err)
}

func TestExtractCleanupRemovesScratchDir(t *testing.T) {
	blob := buildBlob(t, map[string]string{"meta/meta.json": "{}"})

	scratch, err := Extract(blob)
	require.NoError(t, err)

	_, statErr := os.Stat(scratch.Dir)
	require.NoError(t, statErr)

	scratch.Cleanup(nil)

	_, statErr = os.Stat(scratch.Dir)
	require.True(t, os.IsNotExist(statErr))
}
