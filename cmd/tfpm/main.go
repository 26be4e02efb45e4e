// Command tfpm is the CLI frontend over the tfpm package lifecycle engine:
// build, install, remove, and query.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/sid-code/tfpm"
	"github.com/sid-code/tfpm/internal/policy"
)

// command mirrors the dispatch interface the teacher's dep CLI uses: every
// subcommand registers its own flags and is handed the post-flag args.
type command interface {
	Name() string
	Args() string
	ShortHelp() string
	LongHelp() string
	Register(fs *flag.FlagSet, pol *policy.Policy)
	Run(pol policy.Policy, args []string) error
}

func main() {
	commands := []command{
		&installCommand{},
		&removeCommand{},
		&queryCommand{},
	}

	usage := func() {
		fmt.Fprintln(os.Stderr, "Usage: tfpm <command>")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Commands:")
		fmt.Fprintln(os.Stderr)
		w := tabwriter.NewWriter(os.Stderr, 0, 4, 2, ' ', 0)
		for _, c := range commands {
			fmt.Fprintf(w, "\t%s\t%s\n", c.Name(), c.ShortHelp())
		}
		w.Flush()
		fmt.Fprintln(os.Stderr)
	}

	if len(os.Args) <= 1 || strings.ToLower(os.Args[1]) == "-h" || strings.ToLower(os.Args[1]) == "--help" {
		usage()
		os.Exit(1)
	}

	for _, c := range commands {
		if c.Name() != os.Args[1] {
			continue
		}

		pol, err := policy.Load(configPath(), policy.Default())
		if err != nil {
			fmt.Fprintf(os.Stderr, "tfpm: %v\n", err)
			os.Exit(1)
		}

		fs := flag.NewFlagSet(c.Name(), flag.ExitOnError)
		c.Register(fs, &pol)
		resetUsage(fs, c.Name(), c.Args(), c.LongHelp())

		if err := fs.Parse(os.Args[2:]); err != nil {
			fs.Usage()
			os.Exit(1)
		}

		tfpm.Verbose = pol.Debug

		if err := c.Run(pol, fs.Args()); err != nil {
			if pol.Debug {
				// %+v prints the stack trace recorded by pkg/errors.
				fmt.Fprintf(os.Stderr, "tfpm: %+v\n", err)
			} else {
				fmt.Fprintf(os.Stderr, "tfpm: %v\n", err)
			}
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "tfpm: no such command %q\n", os.Args[1])
	usage()
	os.Exit(1)
}

// configPath returns the config file location tfpm reads its base policy
// from, honoring TFPM_CONFIG for tests and unusual installs.
func configPath() string {
	if p := os.Getenv("TFPM_CONFIG"); p != "" {
		return p
	}
	return "/etc/tfpm/config.toml"
}

func resetUsage(fs *flag.FlagSet, name, args, longHelp string) {
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tfpm %s %s\n", name, args)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, strings.TrimSpace(longHelp))
		fmt.Fprintln(os.Stderr)
		fs.PrintDefaults()
	}
}
