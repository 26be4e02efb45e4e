package tfpm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sid-code/tfpm/internal/policy"
)

func TestUninstallRemovesFilesDeepestFirst(t *testing.T) {
	cat := openTestCatalog(t)
	root := t.TempDir()
	item := writeScratch(t, "testpkg", "0.1", "Morn", "")

	if err := Install(cat, root, []InstallItem{item}, policy.Default()); err != nil {
		t.Fatal(err)
	}

	if err := Uninstall(cat, root, []string{"testpkg"}, policy.Default()); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(root, "file")); !os.IsNotExist(err) {
		t.Errorf("expected file removed, stat err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "testdir")); !os.IsNotExist(err) {
		t.Errorf("expected testdir removed, stat err=%v", err)
	}
	if _, ok, _ := cat.PackageInfo("testpkg"); ok {
		t.Error("expected catalog row gone")
	}
}

func TestUninstallUnknownPackageFails(t *testing.T) {
	cat := openTestCatalog(t)
	root := t.TempDir()

	err := Uninstall(cat, root, []string{"nosuchpkg"}, policy.Default())
	if _, ok := err.(*NotInstalledError); !ok {
		t.Fatalf("expected *NotInstalledError, got %T: %v", err, err)
	}
}

func TestUninstallRefusesWhenDependentRemains(t *testing.T) {
	cat := openTestCatalog(t)
	root := t.TempDir()

	dep := writeScratchUnder(t, "two", "testpkgtwo", "1.0", "m", "")
	main := writeScratch(t, "testpkg", "0.1", "m", "testpkgtwo>=1.0")
	if err := Install(cat, root, []InstallItem{dep, main}, policy.Default()); err != nil {
		t.Fatal(err)
	}

	err := Uninstall(cat, root, []string{"testpkgtwo"}, policy.Default())
	if _, ok := err.(*UnmetDependenciesError); !ok {
		t.Fatalf("expected *UnmetDependenciesError, got %T: %v", err, err)
	}

	// NoDeps downgrades the same failure to a warning and proceeds.
	pol := policy.Default()
	pol.NoDeps = true
	if err := Uninstall(cat, root, []string{"testpkgtwo"}, pol); err != nil {
		t.Fatalf("expected no-deps uninstall to succeed, got %v", err)
	}
}

func TestUninstallRefusesModifiedFileByDefault(t *testing.T) {
	cat := openTestCatalog(t)
	root := t.TempDir()
	item := writeScratch(t, "testpkg", "0.1", "m", "")

	if err := Install(cat, root, []InstallItem{item}, policy.Default()); err != nil {
		t.Fatal(err)
	}

	modified := filepath.Join(root, "file")
	if err := os.WriteFile(modified, []byte("tampered"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Uninstall(cat, root, []string{"testpkg"}, policy.Default()); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(modified); err != nil {
		t.Errorf("expected modified file retained under default policy, stat err=%v", err)
	}
}

func TestUninstallHardRemoveBacksUpModifiedFile(t *testing.T) {
	cat := openTestCatalog(t)
	root := t.TempDir()
	item := writeScratch(t, "testpkg", "0.1", "m", "")

	if err := Install(cat, root, []InstallItem{item}, policy.Default()); err != nil {
		t.Fatal(err)
	}

	modified := filepath.Join(root, "file")
	if err := os.WriteFile(modified, []byte("tampered"), 0o644); err != nil {
		t.Fatal(err)
	}

	pol := policy.Default()
	pol.HardRemove = true
	if err := Uninstall(cat, root, []string{"testpkg"}, pol); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(modified); !os.IsNotExist(err) {
		t.Errorf("expected original path gone after hard remove, stat err=%v", err)
	}

	matches, err := filepath.Glob(modified + ".*")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected exactly one backup file, got %v", matches)
	}
}
