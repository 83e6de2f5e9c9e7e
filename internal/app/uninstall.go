package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benpak/benpak/internal/procguard"
)

var (
	uninstallFlagForceKill bool
	uninstallFlagYes       bool
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <package>",
	Short: "Remove an installed package",
	Long: `Remove a package's directory together with its PATH entry and
launcher entry.

Running processes of the package block removal. By default you are asked
whether to terminate them; --yes answers that question with yes, and
--force-kill terminates without asking at all.

Examples:
  benpak uninstall notewriter
  benpak uninstall notewriter --force-kill
  benpak uninstall notewriter --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runUninstall,
}

func init() {
	uninstallCmd.Flags().BoolVar(&uninstallFlagForceKill, "force-kill", false, "terminate running processes without asking")
	uninstallCmd.Flags().BoolVar(&uninstallFlagYes, "yes", false, "assume yes when asked to terminate processes")
}

func runUninstall(cmd *cobra.Command, args []string) error {
	identifier := args[0]
	e, err := buildEnv(cmd.Context())
	if err != nil {
		return err
	}

	prompt := func(matches []procguard.Match) bool {
		fmt.Printf("%s has %d running process(es):\n", identifier, len(matches))
		for _, m := range matches {
			fmt.Printf("  %s\n", m.String())
		}
		if uninstallFlagYes {
			fmt.Println("Terminating (--yes).")
			return true
		}
		return confirm("Terminate them and continue")
	}

	removed, err := e.manager.Uninstall(cmd.Context(), identifier, uninstallFlagForceKill, prompt)
	if err != nil {
		var term *procguard.TerminationError
		if errors.As(err, &term) {
			return fmt.Errorf("%v; retry with --force-kill or stop them yourself", term)
		}
		return err
	}
	if !removed {
		if _, installed := e.manager.InstalledVersion(identifier); !installed {
			fmt.Printf("%s is not installed.\n", identifier)
		} else {
			fmt.Println("Uninstall cancelled, nothing changed.")
		}
		return nil
	}

	fmt.Printf("Uninstalled %s.\n", identifier)
	return nil
}
