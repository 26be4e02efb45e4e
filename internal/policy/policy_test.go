package policy

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsBaseUnchanged(t *testing.T) {
	base := Default()
	got, err := Load(filepath.Join(t.TempDir(), "nope.toml"), base)
	if err != nil {
		t.Fatal(err)
	}
	if got != base {
		t.Errorf("got %+v, want unchanged %+v", got, base)
	}
}

func TestLoadOverlaysConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := "no_deps = true\ndb = \"/tmp/other.db\"\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path, Default())
	if err != nil {
		t.Fatal(err)
	}
	if !got.NoDeps {
		t.Error("expected no_deps from config file to be true")
	}
	if got.DB != "/tmp/other.db" {
		t.Errorf("expected db overridden, got %q", got.DB)
	}
	if got.Root != Default().Root {
		t.Errorf("expected root to keep its default, got %q", got.Root)
	}
}

func TestRegisterFlagsOverridesConfigValue(t *testing.T) {
	p := Default()
	p.NoDeps = true

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(fs, &p)

	if err := fs.Parse([]string{"-no-deps=false", "-root", "/mnt/target"}); err != nil {
		t.Fatal(err)
	}
	if p.NoDeps {
		t.Error("expected -no-deps=false to override config-sourced true")
	}
	if p.Root != "/mnt/target" {
		t.Errorf("expected root overridden by flag, got %q", p.Root)
	}
}
