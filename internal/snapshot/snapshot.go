// Package snapshot enumerates a directory tree into a flat list of file
// and directory entries, relative to the tree's root. It is used both to
// capture a freshly built package's payload and, conceptually, to describe
// what the catalog expects to find materialized on disk.
package snapshot

import (
	"os"
	"path/filepath"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
)

// Kind distinguishes a regular file from a directory. tfpm does not track
// symlinks or device nodes (see spec Non-goals).
type Kind int

const (
	// File marks a regular file entry.
	File Kind = iota
	// Dir marks a directory entry.
	Dir
)

func (k Kind) String() string {
	if k == Dir {
		return "dir"
	}
	return "file"
}

// Entry is one node of a snapshotted tree: its path relative to the root
// that was walked, its Kind, and the POSIX permission triplet observed on
// disk, when available.
type Entry struct {
	RelPath     string
	Kind        Kind
	Permissions os.FileMode
}

// Walk recursively enumerates root, yielding one Entry per descendant
// (root itself is not included). Paths are relative to root in the
// canonical form: when root is "." the emitted RelPath never carries a
// leading "./". Traversal order is not part of the contract; callers that
// need a deterministic order should sort the result.
func Walk(root string) ([]Entry, error) {
	var entries []Entry

	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if osPathname == root {
				return nil
			}

			rel, err := filepath.Rel(root, osPathname)
			if err != nil {
				return errors.Wrapf(err, "relativizing %q against %q", osPathname, root)
			}
			rel = filepath.ToSlash(rel)

			kind := File
			if de.IsDir() {
				kind = Dir
			}

			info, err := os.Lstat(osPathname)
			if err != nil {
				return errors.Wrapf(err, "stat %q", osPathname)
			}

			entries = append(entries, Entry{
				RelPath:     rel,
				Kind:        kind,
				Permissions: info.Mode().Perm(),
			})
			return nil
		},
		Unsorted: false,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking %q", root)
	}

	return entries, nil
}
