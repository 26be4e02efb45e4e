// Package catalog persists the set of installed packages and the files
// they own to a SQLite-backed relational store, and is the sole mechanism
// of cross-package file-conflict detection (via a UNIQUE constraint on the
// files table's path column).
package catalog

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/gofrs/flock"
	"github.com/mattn/go-sqlite3"
	pkgerrors "github.com/pkg/errors"

	"github.com/sid-code/tfpm/internal/snapshot"
)

const schema = `
CREATE TABLE IF NOT EXISTS packages (
	name       TEXT PRIMARY KEY,
	version    TEXT NOT NULL,
	maintainer TEXT NOT NULL,
	deps       TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS files (
	owner_package TEXT NOT NULL REFERENCES packages(name),
	hash          TEXT NOT NULL DEFAULT '',
	path          TEXT NOT NULL UNIQUE,
	kind          TEXT NOT NULL,
	permissions   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS files_owner ON files (owner_package);
`

// ErrPathConflict is returned by InsertFile when path is already owned by
// some package. It never escapes the install coordinator; callers there
// translate it into a FILE_CONFLICT report.
var ErrPathConflict = errors.New("path already owned by another package")

// ErrNotFound is not returned by any Catalog method: PackageInfo and
// FileOwner report a missing row through their (value, bool, error) form
// instead.
var ErrNotFound = errors.New("not found")

// Package is the catalog's row for one installed package. Version and
// Deps are kept in their serialized string form here; parsing into the
// domain Manifest happens on read, in the root package.
type Package struct {
	Name       string
	Version    string
	Maintainer string
	Deps       string
}

// File is the catalog's row for one file or directory owned by a package.
type File struct {
	OwnerPackage string
	Hash         string
	Path         string
	Kind         snapshot.Kind
	Permissions  uint32
}

// execer is satisfied by both *sql.DB and *sql.Tx, letting every query
// helper below run against whichever is currently active.
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Catalog is a handle on the on-disk package database. A Catalog is not
// safe for concurrent use by multiple goroutines; the system assumes
// exclusive access for the duration of one operation (spec §5), which the
// advisory flock acquired in Open enforces across processes.
type Catalog struct {
	db   *sql.DB
	tx   *sql.Tx
	lock *flock.Flock
	path string
}

// Open creates the catalog's tables if absent (idempotent) and acquires an
// advisory exclusive lock on path, guarding against a second tfpm process
// operating on the same catalog concurrently.
func Open(path string) (*Catalog, error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "locking catalog %q", path)
	}
	if !locked {
		return nil, fmt.Errorf("catalog %q is locked by another tfpm process", path)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		lock.Unlock()
		return nil, pkgerrors.Wrapf(err, "opening catalog %q", path)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		lock.Unlock()
		return nil, pkgerrors.Wrap(err, "creating catalog schema")
	}

	return &Catalog{db: db, lock: lock, path: path}, nil
}

// Close releases the database handle and the advisory lock.
func (c *Catalog) Close() error {
	err := c.db.Close()
	if unlockErr := c.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}

func (c *Catalog) exec() execer {
	if c.tx != nil {
		return c.tx
	}
	return c.db
}

// Begin starts a transaction that subsequent mutating calls run inside,
// until Commit or Rollback.
func (c *Catalog) Begin() error {
	if c.tx != nil {
		return errors.New("catalog: transaction already in progress")
	}
	tx, err := c.db.Begin()
	if err != nil {
		return pkgerrors.Wrap(err, "beginning catalog transaction")
	}
	c.tx = tx
	return nil
}

// Commit commits the in-progress transaction.
func (c *Catalog) Commit() error {
	if c.tx == nil {
		return errors.New("catalog: no transaction in progress")
	}
	err := c.tx.Commit()
	c.tx = nil
	return pkgerrors.Wrap(err, "committing catalog transaction")
}

// Rollback aborts the in-progress transaction. Any non-commit exit from an
// install batch must end here so readers never observe a partial package.
func (c *Catalog) Rollback() error {
	if c.tx == nil {
		return errors.New("catalog: no transaction in progress")
	}
	err := c.tx.Rollback()
	c.tx = nil
	return pkgerrors.Wrap(err, "rolling back catalog transaction")
}

// PackageInfo returns the package row named name, or ok=false if it does
// not exist.
func (c *Catalog) PackageInfo(name string) (pkg Package, ok bool, err error) {
	row := c.exec().QueryRow(`SELECT name, version, maintainer, deps FROM packages WHERE name = ?`, name)
	err = row.Scan(&pkg.Name, &pkg.Version, &pkg.Maintainer, &pkg.Deps)
	if errors.Is(err, sql.ErrNoRows) {
		return Package{}, false, nil
	}
	if err != nil {
		return Package{}, false, pkgerrors.Wrapf(err, "reading package %q", name)
	}
	return pkg, true, nil
}

// InsertPackage inserts a new package row.
func (c *Catalog) InsertPackage(pkg Package) error {
	_, err := c.exec().Exec(
		`INSERT INTO packages (name, version, maintainer, deps) VALUES (?, ?, ?, ?)`,
		pkg.Name, pkg.Version, pkg.Maintainer, pkg.Deps,
	)
	return pkgerrors.Wrapf(err, "inserting package %q", pkg.Name)
}

// InsertFile inserts a file or directory row. Directories are stored with
// an empty hash and are never considered conflicts, but the UNIQUE
// constraint on path is not waived for them: a directory path collision is
// handled by the caller (install coordinator), which silently ignores it.
func (c *Catalog) InsertFile(f File) error {
	_, err := c.exec().Exec(
		`INSERT INTO files (owner_package, hash, path, kind, permissions) VALUES (?, ?, ?, ?, ?)`,
		f.OwnerPackage, f.Hash, f.Path, f.Kind.String(), f.Permissions,
	)
	if isUniqueConstraintErr(err) {
		return ErrPathConflict
	}
	return pkgerrors.Wrapf(err, "inserting file %q", f.Path)
}

func isUniqueConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}

// FileOwner returns the name of the package owning path, or ok=false if
// the path is untracked.
func (c *Catalog) FileOwner(path string) (owner string, ok bool, err error) {
	row := c.exec().QueryRow(`SELECT owner_package FROM files WHERE path = ?`, path)
	err = row.Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, pkgerrors.Wrapf(err, "looking up owner of %q", path)
	}
	return owner, true, nil
}

// ListPackageFiles returns every file and directory row owned by name.
func (c *Catalog) ListPackageFiles(name string) ([]File, error) {
	rows, err := c.exec().Query(
		`SELECT owner_package, hash, path, kind, permissions FROM files WHERE owner_package = ?`, name)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "listing files for %q", name)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var f File
		var kind string
		if err := rows.Scan(&f.OwnerPackage, &f.Hash, &f.Path, &kind, &f.Permissions); err != nil {
			return nil, pkgerrors.Wrapf(err, "scanning file row for %q", name)
		}
		f.Kind = parseKind(kind)
		files = append(files, f)
	}
	return files, rows.Err()
}

// DeletePackage removes name's package row and every file row it owns, in
// a single statement pair executed against the active transaction (or
// directly, if no transaction is in progress).
func (c *Catalog) DeletePackage(name string) error {
	if _, err := c.exec().Exec(`DELETE FROM files WHERE owner_package = ?`, name); err != nil {
		return pkgerrors.Wrapf(err, "deleting files owned by %q", name)
	}
	if _, err := c.exec().Exec(`DELETE FROM packages WHERE name = ?`, name); err != nil {
		return pkgerrors.Wrapf(err, "deleting package %q", name)
	}
	return nil
}

// List returns every package whose name matches the SQL LIKE pattern.
func (c *Catalog) List(namePattern string) ([]Package, error) {
	rows, err := c.exec().Query(
		`SELECT name, version, maintainer, deps FROM packages WHERE name LIKE ? ORDER BY name`, namePattern)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "listing packages")
	}
	defer rows.Close()

	var pkgs []Package
	for rows.Next() {
		var p Package
		if err := rows.Scan(&p.Name, &p.Version, &p.Maintainer, &p.Deps); err != nil {
			return nil, pkgerrors.Wrap(err, "scanning package row")
		}
		pkgs = append(pkgs, p)
	}
	return pkgs, rows.Err()
}

func parseKind(s string) snapshot.Kind {
	if s == "dir" {
		return snapshot.Dir
	}
	return snapshot.File
}
