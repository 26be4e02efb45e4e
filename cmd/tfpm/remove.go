package main

import (
	"flag"

	"github.com/pkg/errors"

	"github.com/sid-code/tfpm"
	"github.com/sid-code/tfpm/internal/catalog"
	"github.com/sid-code/tfpm/internal/policy"
)

const removeShortHelp = `Uninstall one or more packages`
const removeLongHelp = `
Remove each named package's catalog entry and its files from the install
root, deepest path first. Refuses if any remaining installed package
would be left with an unmet dependency, unless --no-deps is given.
`

type removeCommand struct{}

func (cmd *removeCommand) Name() string      { return "remove" }
func (cmd *removeCommand) Args() string      { return "<name> [name...]" }
func (cmd *removeCommand) ShortHelp() string { return removeShortHelp }
func (cmd *removeCommand) LongHelp() string  { return removeLongHelp }

func (cmd *removeCommand) Register(fs *flag.FlagSet, pol *policy.Policy) {
	policy.RegisterFlags(fs, pol)
}

func (cmd *removeCommand) Run(pol policy.Policy, args []string) error {
	if len(args) == 0 {
		return errors.New("no package names given")
	}

	cat, err := catalog.Open(pol.DB)
	if err != nil {
		return err
	}
	defer cat.Close()

	return tfpm.Uninstall(cat, pol.Root, args, pol)
}
