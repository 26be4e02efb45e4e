package main

import (
	"flag"

	"github.com/pkg/errors"

	"github.com/sid-code/tfpm"
	"github.com/sid-code/tfpm/internal/builder"
	"github.com/sid-code/tfpm/internal/catalog"
	"github.com/sid-code/tfpm/internal/policy"
)

const installShortHelp = `Build and install one or more packages from script`
const installLongHelp = `
Build each given package script, then install the resulting batch as a
single atomic transaction: every package's catalog rows are committed
together, or none are. Files are materialized into the install root only
after the transaction commits.
`

type installCommand struct{}

func (cmd *installCommand) Name() string      { return "install" }
func (cmd *installCommand) Args() string      { return "<script> [script...]" }
func (cmd *installCommand) ShortHelp() string { return installShortHelp }
func (cmd *installCommand) LongHelp() string  { return installLongHelp }

func (cmd *installCommand) Register(fs *flag.FlagSet, pol *policy.Policy) {
	policy.RegisterFlags(fs, pol)
}

func (cmd *installCommand) Run(pol policy.Policy, args []string) error {
	if len(args) == 0 {
		return errors.New("no package scripts given")
	}

	cat, err := catalog.Open(pol.DB)
	if err != nil {
		return err
	}
	defer cat.Close()

	batch := make([]tfpm.InstallItem, 0, len(args))
	for _, scriptPath := range args {
		tfpm.Vlogf("building %s", scriptPath)
		result, err := builder.Build(scriptPath)
		if err != nil {
			return err
		}

		item, err := tfpm.NewInstallItem(result)
		if err != nil {
			return err
		}
		batch = append(batch, item)
	}

	return tfpm.Install(cat, pol.Root, batch, pol)
}
