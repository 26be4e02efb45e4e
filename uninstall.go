package tfpm

import (
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/sid-code/tfpm/internal/catalog"
	"github.com/sid-code/tfpm/internal/fsutil"
	"github.com/sid-code/tfpm/internal/integrity"
	"github.com/sid-code/tfpm/internal/policy"
	"github.com/sid-code/tfpm/internal/snapshot"
	"github.com/sid-code/tfpm/internal/version"
)

// Uninstall runs the uninstall coordinator (spec §4.7) over names: it
// checks that removing them would not break any remaining package's
// dependencies, then for each name deletes its catalog rows before
// removing its files and directories from installRoot, deepest path
// first.
func Uninstall(cat *catalog.Catalog, installRoot string, names []string, pol policy.Policy) error {
	for _, name := range names {
		_, ok, err := cat.PackageInfo(name)
		if err != nil {
			return err
		}
		if !ok {
			return &NotInstalledError{Name: name}
		}
	}

	if err := checkDependenciesWithout(cat, names, pol); err != nil {
		return err
	}

	for _, name := range names {
		if err := uninstallOne(cat, installRoot, name, pol); err != nil {
			return err
		}
	}

	return nil
}

func uninstallOne(cat *catalog.Catalog, installRoot, name string, pol policy.Policy) error {
	files, err := cat.ListPackageFiles(name)
	if err != nil {
		return err
	}

	if err := cat.Begin(); err != nil {
		return err
	}
	if err := cat.DeletePackage(name); err != nil {
		cat.Rollback()
		return err
	}
	if err := cat.Commit(); err != nil {
		return err
	}

	var fileRows, dirRows []catalog.File
	for _, f := range files {
		if f.Kind == snapshot.Dir {
			dirRows = append(dirRows, f)
		} else {
			fileRows = append(fileRows, f)
		}
	}
	// Deepest first, so a directory's contents are always gone before the
	// directory removal is attempted.
	sort.Slice(fileRows, func(i, j int) bool { return fileRows[i].Path > fileRows[j].Path })
	sort.Slice(dirRows, func(i, j int) bool { return dirRows[i].Path > dirRows[j].Path })

	for _, f := range fileRows {
		abs := filepath.Join(installRoot, f.Path)

		actual, err := integrity.HashFile(abs)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				Logf("%s: %q already absent from disk", name, f.Path)
				continue
			}
			Logf("%s: reading %q for integrity check: %v", name, f.Path, err)
			continue
		}

		if actual == f.Hash {
			if err := os.Remove(abs); err != nil {
				Logf("%s: removing %q: %v", name, f.Path, err)
			}
			continue
		}

		if pol.HardRemove {
			backup := fsutil.BackupName(abs)
			if err := fsutil.RenameWithFallback(abs, backup); err != nil {
				Logf("%s: hard-removing modified %q: %v", name, f.Path, err)
				continue
			}
			Logf("%s: %q was modified since install; backed up to %q", name, f.Path, backup)
			continue
		}

		Logf("%s: %q was modified since install; refusing to remove (retry with --hard)", name, f.Path)
	}

	for _, d := range dirRows {
		abs := filepath.Join(installRoot, d.Path)
		if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
			Logf("%s: removing directory %q: %v (may be shared with untracked content)", name, d.Path, err)
		}
	}

	return nil
}

// checkDependenciesWithout builds the view V = installed \ names and runs
// check_all over it (spec §4.7 step 2).
func checkDependenciesWithout(cat *catalog.Catalog, names []string, pol policy.Policy) error {
	removing := make(map[string]bool, len(names))
	for _, n := range names {
		removing[n] = true
	}

	installed, err := cat.List("%")
	if err != nil {
		return err
	}

	view := make(map[string]version.Installed, len(installed))
	var order []string
	for _, pkg := range installed {
		if removing[pkg.Name] {
			continue
		}
		m, err := manifestFromCatalog(pkg)
		if err != nil {
			return err
		}
		view[m.Name] = version.Installed{Version: m.Version, Deps: m.Deps}
		order = append(order, m.Name)
	}
	sort.Strings(order)

	failures := version.CheckAll(order, view)
	if len(failures) == 0 {
		return nil
	}

	if pol.NoDeps {
		for _, f := range failures {
			Logf("unmet dependency: %s requires %s", f.Offender, f.Dep.String())
		}
		return nil
	}

	return &UnmetDependenciesError{Failures: failures}
}
