// Package tfpm implements the package lifecycle engine: dependency
// resolution across the installed set, catalog-level file-conflict
// detection, atomic catalog updates, filesystem materialization, and
// hash-verified removal.
package tfpm

import (
	"regexp"

	"github.com/pkg/errors"

	"github.com/sid-code/tfpm/internal/builder"
	"github.com/sid-code/tfpm/internal/catalog"
	"github.com/sid-code/tfpm/internal/version"
)

var nameRE = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Manifest is a package's parsed identity and dependency set (spec §3).
// Unlike builder.Manifest and catalog.Package, which keep version and
// deps in serialized string form, Manifest holds the parsed domain types
// used for comparison and dependency checking.
type Manifest struct {
	Name       string
	Version    version.Version
	Maintainer string
	Deps       []version.Dependency
}

// ParseManifest validates and parses a builder's raw output into a
// Manifest.
func ParseManifest(raw builder.Manifest) (Manifest, error) {
	if !nameRE.MatchString(raw.Name) {
		return Manifest{}, errors.Errorf("invalid package name %q: must be alphanumerics, hyphen, or underscore", raw.Name)
	}

	v, err := version.Parse(raw.Version)
	if err != nil {
		return Manifest{}, errors.Wrapf(err, "package %q", raw.Name)
	}

	deps, err := version.ParseDeps(raw.Deps)
	if err != nil {
		return Manifest{}, errors.Wrapf(err, "package %q", raw.Name)
	}

	return Manifest{
		Name:       raw.Name,
		Version:    v,
		Maintainer: raw.Maintainer,
		Deps:       deps,
	}, nil
}

// manifestFromCatalog parses a catalog row back into a Manifest. Catalog
// rows are written by Install from an already-validated Manifest, so a
// parse failure here indicates catalog corruption rather than user input.
func manifestFromCatalog(pkg catalog.Package) (Manifest, error) {
	v, err := version.Parse(pkg.Version)
	if err != nil {
		return Manifest{}, errors.Wrapf(err, "corrupt catalog entry %q: version", pkg.Name)
	}
	deps, err := version.ParseDeps(pkg.Deps)
	if err != nil {
		return Manifest{}, errors.Wrapf(err, "corrupt catalog entry %q: deps", pkg.Name)
	}
	return Manifest{
		Name:       pkg.Name,
		Version:    v,
		Maintainer: pkg.Maintainer,
		Deps:       deps,
	}, nil
}

// toCatalogPackage serializes m into its catalog row form.
func (m Manifest) toCatalogPackage() catalog.Package {
	return catalog.Package{
		Name:       m.Name,
		Version:    m.Version.String(),
		Maintainer: m.Maintainer,
		Deps:       version.FormatDeps(m.Deps),
	}
}
