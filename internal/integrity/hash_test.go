package integrity

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

var hexRE = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestHashFileIsLowercaseHex32(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f")
	if err := os.WriteFile(p, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	h, err := HashFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if !hexRE.MatchString(h) {
		t.Errorf("HashFile returned %q, want 32 lowercase hex chars", h)
	}
}

func TestHashMatches(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f")
	if err := os.WriteFile(p, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}

	h, err := HashFile(p)
	if err != nil {
		t.Fatal(err)
	}

	ok, err := HashMatches(p, h)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected hash to match unmodified file")
	}

	if err := os.WriteFile(p, []byte("modified"), 0o644); err != nil {
		t.Fatal(err)
	}

	ok, err = HashMatches(p, h)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected hash mismatch after modification")
	}
}
