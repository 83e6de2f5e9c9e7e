package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benpak/benpak/internal/lifecycle"
)

var launchCmd = &cobra.Command{
	Use:   "launch <package>",
	Short: "Start an installed package",
	Long: `Start an installed package's executable detached from the
terminal, so it keeps running after the shell closes.

Examples:
  benpak launch notewriter`,
	Args: cobra.ExactArgs(1),
	RunE: runLaunch,
}

func runLaunch(cmd *cobra.Command, args []string) error {
	e, err := buildEnv(cmd.Context())
	if err != nil {
		return err
	}
	desc, err := e.find(args[0])
	if err != nil {
		return err
	}

	exe, err := e.manager.Launch(cmd.Context(), desc)
	if err != nil {
		var notInstalled *lifecycle.NotInstalledError
		if errors.As(err, &notInstalled) {
			return fmt.Errorf("%s is not installed; run: benpak install %s", desc.Identifier, desc.Identifier)
		}
		return err
	}

	fmt.Printf("Started %s (%s)\n", desc.Name, exe)
	return nil
}
