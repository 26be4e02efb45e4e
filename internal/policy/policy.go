// Package policy holds the process-wide options that steer conflict,
// dependency, and removal behavior (spec §4.8). A Policy is set once at
// startup by the CLI frontend and treated as read-only by the core.
package policy

import (
	"flag"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Policy is the process-wide configuration record.
type Policy struct {
	// NoDeps skips the fatal error on failed dependency checks during
	// install and uninstall, downgrading them to a warning.
	NoDeps bool `toml:"no_deps"`

	// HardRemove allows uninstall to remove files whose content has
	// drifted from the recorded hash, backing them up via rename-to-temp
	// first.
	HardRemove bool `toml:"hard_remove"`

	// Force is reserved for bypassing file conflicts. Not implemented;
	// carried only so existing config files and flags round-trip.
	Force bool `toml:"force"`

	// Debug includes stack traces in error reporting.
	Debug bool `toml:"debug"`

	// DB is the filesystem path to the catalog store.
	DB string `toml:"db"`

	// Root is the filesystem root that install materializes files under
	// and uninstall removes them from. Every catalog path is relative to
	// this root.
	Root string `toml:"root"`
}

// Default returns the zero-value policy with its required fields, DB and
// Root, set to sensible defaults for a live system.
func Default() Policy {
	return Policy{DB: "/var/lib/tfpm/catalog.db", Root: "/"}
}

// Load reads a TOML config file at path and overlays it onto base. A
// missing file is not an error; Load returns base unchanged.
func Load(path string, base Policy) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return base, errors.Wrapf(err, "reading config %q", path)
	}

	p := base
	if err := toml.Unmarshal(data, &p); err != nil {
		return base, errors.Wrapf(err, "parsing config %q", path)
	}
	return p, nil
}

// RegisterFlags binds p's fields to fs, so CLI flags override whatever a
// config file already set. Mirrors the teacher's per-command
// flag.FlagSet.BoolVar registration style.
func RegisterFlags(fs *flag.FlagSet, p *Policy) {
	fs.BoolVar(&p.NoDeps, "no-deps", p.NoDeps, "skip fatal errors on unmet dependencies")
	fs.BoolVar(&p.HardRemove, "hard", p.HardRemove, "allow removal of modified files via rename-to-temp backup")
	fs.BoolVar(&p.Force, "force", p.Force, "reserved; bypassing file conflicts is not implemented")
	fs.BoolVar(&p.Debug, "debug", p.Debug, "include stack traces in error reporting")
	fs.StringVar(&p.DB, "db", p.DB, "path to the catalog store")
	fs.StringVar(&p.Root, "root", p.Root, "filesystem root to install into and remove from")
}
