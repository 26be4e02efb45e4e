// Package integrity provides content-hash tamper evidence for materialized
// package files. MD5 is used here only as a fingerprint against accidental
// local modification between install and uninstall; it is not a security
// primitive.
package integrity

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"

	"github.com/pkg/errors"
)

// HashFile returns the 32-hex-character MD5 digest of path's content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "hashing %q", path)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "hashing %q", path)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashMatches reports whether path's current content hashes to expected.
func HashMatches(path, expected string) (bool, error) {
	actual, err := HashFile(path)
	if err != nil {
		return false, err
	}
	return actual == expected, nil
}
