// Package fsutil provides the file copy and rename primitives the install
// and uninstall coordinators use to materialize and retire package
// payloads. Grounded on the teacher's own fs.go (CopyFile/CopyDir,
// renameWithFallback), adapted to also restore recorded permission bits.
package fsutil

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/pkg/errors"
)

// CopyFile copies src to dest byte-for-byte, truncating any existing file
// at dest, then applies mode to the destination.
func CopyFile(src, dest string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "opening %q", src)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "creating %q", dest)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Wrapf(err, "copying %q to %q", src, dest)
	}

	if mode != 0 {
		if err := os.Chmod(dest, mode); err != nil {
			return errors.Wrapf(err, "chmod %q", dest)
		}
	}

	return nil
}

// MkdirTolerant creates dir with mode, tolerating the case where it
// already exists.
func MkdirTolerant(dir string, mode os.FileMode) error {
	if mode == 0 {
		mode = 0o755
	}
	if err := os.Mkdir(dir, mode); err != nil && !os.IsExist(err) {
		return errors.Wrapf(err, "creating directory %q", dir)
	}
	return nil
}

// RenameWithFallback attempts to rename src to dest, falling back to a
// copy-then-remove if the rename fails across a device boundary.
func RenameWithFallback(src, dest string) error {
	fi, err := os.Lstat(src)
	if err != nil {
		return errors.Wrapf(err, "stat %q", src)
	}

	if runtime.GOOS == "windows" && fi.IsDir() {
		return errors.New("renaming directories is not supported on windows")
	}

	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	if err := CopyFile(src, dest, fi.Mode()); err != nil {
		return errors.Wrapf(err, "copying %q to %q as rename fallback", src, dest)
	}
	return os.Remove(src)
}

// BackupName returns a sibling path for path suitable for the hard_remove
// rename-to-temp policy: path with a ".tfpm-backup" suffix. If that name
// is itself taken, a numeric suffix is appended until a free name is
// found.
func BackupName(path string) string {
	candidate := path + ".tfpm-backup"
	for i := 1; ; i++ {
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Clean(path) + ".tfpm-backup." + strconv.Itoa(i)
	}
}
