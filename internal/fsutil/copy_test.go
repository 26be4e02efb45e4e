package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sid-code/tfpm/internal/snapshot"
)

func TestCopyFileTruncatesDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dest := filepath.Join(dir, "dest")

	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dest, []byte("much longer old content"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(src, dest, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Errorf("got %q, want %q", got, "new")
	}
}

func TestMaterializeTreeOrderAndContent(t *testing.T) {
	scratch := t.TempDir()
	dest := t.TempDir()

	if err := os.Mkdir(filepath.Join(scratch, "testdir"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(scratch, "file"), []byte("root file"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(scratch, "testdir", "file2"), []byte("nested file"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries := []snapshot.Entry{
		{RelPath: "file", Kind: snapshot.File, Permissions: 0o644},
		{RelPath: "testdir", Kind: snapshot.Dir, Permissions: 0o755},
		{RelPath: "testdir/file2", Kind: snapshot.File, Permissions: 0o644},
	}

	if err := MaterializeTree(scratch, dest, entries); err != nil {
		t.Fatal(err)
	}

	for path, want := range map[string]string{
		"file":          "root file",
		"testdir/file2": "nested file",
	} {
		got, err := os.ReadFile(filepath.Join(dest, path))
		if err != nil {
			t.Fatalf("reading materialized %q: %v", path, err)
		}
		if string(got) != want {
			t.Errorf("materialized %q = %q, want %q", path, got, want)
		}
	}

	if fi, err := os.Stat(filepath.Join(dest, "testdir")); err != nil || !fi.IsDir() {
		t.Errorf("expected testdir to be materialized as a directory")
	}
}
