package tfpm

import (
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/sid-code/tfpm/internal/builder"
	"github.com/sid-code/tfpm/internal/catalog"
	"github.com/sid-code/tfpm/internal/fsutil"
	"github.com/sid-code/tfpm/internal/integrity"
	"github.com/sid-code/tfpm/internal/policy"
	"github.com/sid-code/tfpm/internal/snapshot"
	"github.com/sid-code/tfpm/internal/version"
)

// InstallItem is one package awaiting installation: its parsed manifest,
// the scratch directory its payload lives in, and the snapshot of that
// payload. The batch form lets a package and its not-yet-installed
// dependencies be installed together without the dependency check failing
// on each other (spec §4.6).
type InstallItem struct {
	Manifest   Manifest
	ScratchDir string
	Files      []snapshot.Entry
}

// NewInstallItem parses a builder.Result into an InstallItem, the usual
// way a CLI frontend turns a freshly built package into something Install
// accepts.
func NewInstallItem(r builder.Result) (InstallItem, error) {
	m, err := ParseManifest(r.Manifest)
	if err != nil {
		return InstallItem{}, err
	}
	return InstallItem{Manifest: m, ScratchDir: r.ScratchDir, Files: r.Files}, nil
}

// Install runs the install coordinator (spec §4.6) over batch, resolving
// dependencies against installRoot's catalog plus the batch itself,
// committing catalog rows for every not-already-installed package in one
// transaction, and only then materializing files under installRoot.
func Install(cat *catalog.Catalog, installRoot string, batch []InstallItem, pol policy.Policy) error {
	if err := checkDependenciesWith(cat, batch, pol); err != nil {
		return err
	}

	if err := cat.Begin(); err != nil {
		return err
	}

	skipped := make(map[string]bool, len(batch))
	var conflicts []Conflict

	for _, item := range batch {
		_, exists, err := cat.PackageInfo(item.Manifest.Name)
		if err != nil {
			cat.Rollback()
			return err
		}
		if exists {
			Logf("package %q is already installed, skipping (no upgrade path in this version)", item.Manifest.Name)
			skipped[item.Manifest.Name] = true
			continue
		}

		if err := cat.InsertPackage(item.Manifest.toCatalogPackage()); err != nil {
			cat.Rollback()
			return err
		}

		for _, e := range item.Files {
			hash := ""
			if e.Kind == snapshot.File {
				hash, err = integrity.HashFile(filepath.Join(item.ScratchDir, e.RelPath))
				if err != nil {
					cat.Rollback()
					return errors.Wrapf(err, "hashing %q for package %q", e.RelPath, item.Manifest.Name)
				}
			}

			insErr := cat.InsertFile(catalog.File{
				OwnerPackage: item.Manifest.Name,
				Hash:         hash,
				Path:         e.RelPath,
				Kind:         e.Kind,
				Permissions:  uint32(e.Permissions),
			})
			if insErr == nil {
				continue
			}
			if !errors.Is(insErr, catalog.ErrPathConflict) {
				cat.Rollback()
				return insErr
			}
			if e.Kind != snapshot.File {
				// Directory path collisions are not conflicts (spec §4.6 step 3).
				continue
			}
			owner, ok, err := cat.FileOwner(e.RelPath)
			if err != nil {
				cat.Rollback()
				return err
			}
			if !ok {
				owner = "(unknown)"
			}
			conflicts = append(conflicts, Conflict{Package: item.Manifest.Name, Path: e.RelPath, Owner: owner})
		}
	}

	if len(conflicts) > 0 {
		for _, c := range conflicts {
			Logf("file conflict: %q wants %q, already owned by %q", c.Package, c.Path, c.Owner)
		}
		if err := cat.Rollback(); err != nil {
			return err
		}
		return &FileConflictError{Conflicts: conflicts}
	}

	if err := cat.Commit(); err != nil {
		return err
	}

	// Materialization happens after commit: the UNIQUE(path) constraint has
	// already rejected every conflicting batch member, so the catalog is
	// truthful even if a copy below fails partway through. See spec §4.6's
	// rationale and §9's note on post-commit copy failures.
	for _, item := range batch {
		if skipped[item.Manifest.Name] {
			continue
		}
		if err := fsutil.MaterializeTree(item.ScratchDir, installRoot, item.Files); err != nil {
			Logf("materializing %q: %v", item.Manifest.Name, err)
		}
	}

	return nil
}

// checkDependenciesWith builds the view V = installed ∪ batch (batch
// overrides by name) and runs check_all over it (spec §4.6 step 1).
func checkDependenciesWith(cat *catalog.Catalog, batch []InstallItem, pol policy.Policy) error {
	installed, err := cat.List("%")
	if err != nil {
		return err
	}

	view := make(map[string]version.Installed, len(installed)+len(batch))
	var order []string

	for _, pkg := range installed {
		m, err := manifestFromCatalog(pkg)
		if err != nil {
			return err
		}
		view[m.Name] = version.Installed{Version: m.Version, Deps: m.Deps}
		order = append(order, m.Name)
	}

	for _, item := range batch {
		if _, seen := view[item.Manifest.Name]; !seen {
			order = append(order, item.Manifest.Name)
		}
		view[item.Manifest.Name] = version.Installed{Version: item.Manifest.Version, Deps: item.Manifest.Deps}
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
