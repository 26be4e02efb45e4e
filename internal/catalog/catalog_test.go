package catalog

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/sid-code/tfpm/internal/snapshot"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	c, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	c1, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	c1.Close()

	c2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open on same path failed: %v", err)
	}
	c2.Close()
}

func TestOpenRefusesConcurrentLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	c1, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer c1.Close()

	if _, err := Open(path); err == nil {
		t.Error("expected second Open to fail while first holds the lock")
	}
}

func TestInsertAndReadPackage(t *testing.T) {
	c := openTestCatalog(t)

	pkg := Package{Name: "testpkg", Version: "0.1", Maintainer: "Morn", Deps: "testpkgtwo"}
	if err := c.InsertPackage(pkg); err != nil {
		t.Fatal(err)
	}

	got, ok, err := c.PackageInfo("testpkg")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected package to be found")
	}
	if got != pkg {
		t.Errorf("got %+v, want %+v", got, pkg)
	}

	_, ok, err = c.PackageInfo("nosuchpkg")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected nosuchpkg to be absent")
	}
}

func TestPathUniqueness(t *testing.T) {
	c := openTestCatalog(t)

	if err := c.InsertPackage(Package{Name: "a", Version: "1", Maintainer: "m"}); err != nil {
		t.Fatal(err)
	}
	if err := c.InsertPackage(Package{Name: "b", Version: "1", Maintainer: "m"}); err != nil {
		t.Fatal(err)
	}

	if err := c.InsertFile(File{OwnerPackage: "a", Path: "shared", Kind: snapshot.File, Hash: "d41d8cd98f00b204e9800998ecf8427e"}); err != nil {
		t.Fatal(err)
	}

	err := c.InsertFile(File{OwnerPackage: "b", Path: "shared", Kind: snapshot.File, Hash: "d41d8cd98f00b204e9800998ecf8427e"})
	if !errors.Is(err, ErrPathConflict) {
		t.Fatalf("expected ErrPathConflict, got %v", err)
	}

	owner, ok, err := c.FileOwner("shared")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || owner != "a" {
		t.Errorf("expected shared to be owned by a, got owner=%q ok=%v", owner, ok)
	}
}

func TestTransactionRollbackLeavesNoTrace(t *testing.T) {
	c := openTestCatalog(t)

	before, err := c.List("%")
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Begin(); err != nil {
		t.Fatal(err)
	}
	if err := c.InsertPackage(Package{Name: "ghost", Version: "1", Maintainer: "m"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Rollback(); err != nil {
		t.Fatal(err)
	}

	after, err := c.List("%")
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != len(before) {
		t.Fatalf("expected catalog unchanged after rollback: before=%v after=%v", before, after)
	}

	if _, ok, err := c.PackageInfo("ghost"); err != nil {
		t.Fatal(err)
	} else if ok {
		t.Error("expected rolled-back package to not exist")
	}
}

func TestDeletePackageRemovesFilesAtomically(t *testing.T) {
	c := openTestCatalog(t)

	if err := c.InsertPackage(Package{Name: "testpkg", Version: "0.1", Maintainer: "m"}); err != nil {
		t.Fatal(err)
	}
	if err := c.InsertFile(File{OwnerPackage: "testpkg", Path: "file", Kind: snapshot.File, Hash: "d41d8cd98f00b204e9800998ecf8427e"}); err != nil {
		t.Fatal(err)
	}
	if err := c.InsertFile(File{OwnerPackage: "testpkg", Path: "testdir", Kind: snapshot.Dir}); err != nil {
		t.Fatal(err)
	}

	if err := c.DeletePackage("testpkg"); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := c.PackageInfo("testpkg"); err != nil {
		t.Fatal(err)
	} else if ok {
		t.Error("expected package to be gone")
	}

	files, err := c.ListPackageFiles("testpkg")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Errorf("expected no files left, got %v", files)
	}
}

func TestListWildcard(t *testing.T) {
	c := openTestCatalog(t)

	for _, name := range []string{"testpkg", "testpkgtwo", "other"} {
		if err := c.InsertPackage(Package{Name: name, Version: "1", Maintainer: "m"}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := c.List("test%")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches for \"test%%\", got %d: %v", len(got), got)
	}
}
