package fsutil

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// SupportedAlgorithm reports whether algo (case-insensitive) names one of
// the three digest primitives LPM accepts: md5, sha256, sha512.
func SupportedAlgorithm(algo string) bool {
	switch strings.ToLower(algo) {
	case "md5", "sha256", "sha512":
		return true
	default:
		return false
	}
}

// DigestFile streams the file at path through the named algorithm and
// returns the lower-case hex digest. It never buffers the whole file in
// memory, regardless of file size.
func DigestFile(path, algo string) (string, error) {
	h, err := newHash(algo)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "cannot open %s", path)
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "cannot read %s", path)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func newHash(algo string) (hash.Hash, error) {
	switch strings.ToLower(algo) {
	case "md5":
		return md5.New(), nil
	case "sha256":
		return sha256.New(), nil
	case "sha512":
		return sha512.New(), nil
	default:
		return nil, errors.Errorf("unsupported checksum algorithm %q", algo)
	}
}
