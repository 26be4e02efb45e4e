package fsutil

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/sid-code/tfpm/internal/snapshot"
)

// MaterializeTree copies entries (as produced by snapshot.Walk(scratchDir))
// from scratchDir into destRoot, directories first in ascending path
// order, then files in ascending path order, matching the install
// coordinator's per-package materialization order (spec §4.6 step 6).
// Permissions recorded on each entry are applied to the destination.
func MaterializeTree(scratchDir, destRoot string, entries []snapshot.Entry) error {
	var dirs, files []snapshot.Entry
	for _, e := range entries {
		if e.Kind == snapshot.Dir {
			dirs = append(dirs, e)
		} else {
			files = append(files, e)
		}
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].RelPath < dirs[j].RelPath })
	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })

	for _, d := range dirs {
		dest := filepath.Join(destRoot, d.RelPath)
		mode := d.Permissions
		if mode == 0 {
			mode = 0o755
		}
		if err := MkdirTolerant(dest, mode); err != nil {
			return err
		}
	}

	for _, f := range files {
		src := filepath.Join(scratchDir, f.RelPath)
		dest := filepath.Join(destRoot, f.RelPath)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return errors.Wrapf(err, "creating parent directory for %q", dest)
		}
		mode := f.Permissions
		if mode == 0 {
			mode = 0o644
		}
		if err := CopyFile(src, dest, mode); err != nil {
			return err
		}
	}

	return nil
}
