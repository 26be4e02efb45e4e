package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sid-code/tfpm/internal/catalog"
	"github.com/sid-code/tfpm/internal/policy"
)

const queryShortHelp = `List installed packages or inspect one`
const queryLongHelp = `
With no arguments, list every installed package. With a name, print that
package's version, maintainer, and dependencies; --files also lists every
path it owns.
`

type queryCommand struct {
	showFiles bool
}

func (cmd *queryCommand) Name() string      { return "query" }
func (cmd *queryCommand) Args() string      { return "[name]" }
func (cmd *queryCommand) ShortHelp() string { return queryShortHelp }
func (cmd *queryCommand) LongHelp() string  { return queryLongHelp }

func (cmd *queryCommand) Register(fs *flag.FlagSet, pol *policy.Policy) {
	fs.BoolVar(&cmd.showFiles, "files", false, "also list the files a package owns")
	fs.StringVar(&pol.DB, "db", pol.DB, "path to the catalog store")
}

func (cmd *queryCommand) Run(pol policy.Policy, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("query takes at most one package name")
	}

	cat, err := catalog.Open(pol.DB)
	if err != nil {
		return err
	}
	defer cat.Close()

	if len(args) == 0 {
		return listAll(cat)
	}
	return showOne(cat, args[0], cmd.showFiles)
}

func listAll(cat *catalog.Catalog) error {
	pkgs, err := cat.List("%")
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, pkg := range pkgs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", pkg.Name, pkg.Version, pkg.Maintainer)
	}
	return w.Flush()
}

func showOne(cat *catalog.Catalog, name string, showFiles bool) error {
	pkg, ok, err := cat.PackageInfo(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("package %q is not installed", name)
	}

	fmt.Printf("name:       %s\n", pkg.Name)
	fmt.Printf("version:    %s\n", pkg.Version)
	fmt.Printf("maintainer: %s\n", pkg.Maintainer)
	fmt.Printf("deps:       %s\n", pkg.Deps)

	if !showFiles {
		return nil
	}

	files, err := cat.ListPackageFiles(name)
	if err != nil {
		return err
	}
	fmt.Println("files:")
	for _, f := range files {
		fmt.Printf("  %s\n", f.Path)
	}
	return nil
}
