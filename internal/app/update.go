package app

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check installed packages for newer versions",
	Long: `Resolve the latest upstream version of every installed package
and list the ones running behind. Nothing is installed; re-run
'benpak install <package>' to move to the newer version.

Examples:
  benpak update`,
	RunE: runUpdate,
}

func runUpdate(cmd *cobra.Command, args []string) error {
	e, err := buildEnv(cmd.Context())
	if err != nil {
		return err
	}

	installed, err := e.manager.Installed()
	if err != nil {
		return err
	}
	if len(installed) == 0 {
		fmt.Println("No packages installed.")
		return nil
	}

	fmt.Printf("Checking %d installed package(s)...\n", len(installed))
	updates, err := e.manager.CheckUpdates(cmd.Context(), e.descriptors)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		fmt.Println("Everything is up to date.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PACKAGE\tINSTALLED\tLATEST")
	for _, u := range updates {
		fmt.Fprintf(w, "%s\t%s\t%s\n", u.Identifier, u.Installed, u.Latest)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nRun 'benpak install <package>' to update.\n")
	return nil
}
