package app

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listFlagInstalled bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available and installed packages",
	Long: `List the packages the catalog knows about, with the installed
version where one is present.

Examples:
  # Everything the catalog offers
  benpak list

  # Only what is installed
  benpak list --installed`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listFlagInstalled, "installed", false, "only show installed packages")
}

func runList(cmd *cobra.Command, args []string) error {
	e, err := buildEnv(cmd.Context())
	if err != nil {
		return err
	}

	installed, err := e.manager.Installed()
	if err != nil {
		return err
	}
	versions := make(map[string]string, len(installed))
	for _, pkg := range installed {
		versions[pkg.Identifier] = pkg.Version
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PACKAGE\tNAME\tTYPE\tINSTALLED")
	rows := 0
	for i := range e.descriptors {
		desc := &e.descriptors[i]
		version, ok := versions[desc.Identifier]
		if listFlagInstalled && !ok {
			continue
		}
		if !ok {
			version = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", desc.Identifier, desc.Name, desc.Kind, version)
		rows++
		delete(versions, desc.Identifier)
	}
	// Installed packages whose descriptor file has gone away.
	for _, pkg := range installed {
		if _, orphan := versions[pkg.Identifier]; orphan {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", pkg.Identifier, "(no descriptor)", "-", pkg.Version)
			rows++
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if rows == 0 {
		fmt.Println("No packages to show.")
	}
	return nil
}
