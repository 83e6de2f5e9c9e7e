package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/benpak/benpak/internal/lifecycle"
)

var installCmd = &cobra.Command{
	Use:   "install <package>",
	Short: "Download and install a package from the catalog",
	Long: `Resolve the latest version of a package, download its archive,
unpack it into its own directory and register it on PATH and in the
application launcher (both configurable in the settings file).

Examples:
  benpak install notewriter
  benpak install notewriter --install-dir ~/apps`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func runInstall(cmd *cobra.Command, args []string) error {
	e, err := buildEnv(cmd.Context())
	if err != nil {
		return err
	}
	desc, err := e.find(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Installing %s...\n", desc.Name)
	result, err := e.manager.Install(cmd.Context(), desc, printProgress)
	fmt.Println()
	if err != nil {
		if errors.Is(err, lifecycle.ErrInstallInFlight) {
			return fmt.Errorf("another installation is already running, try again when it finishes")
		}
		return err
	}

	fmt.Printf("Installed %s %s in %s\n", desc.Name, result.Version, result.Duration.Round(100*time.Millisecond))
	if result.ExecutablePath != "" {
		fmt.Printf("Executable: %s\n", result.ExecutablePath)
		fmt.Println("Open a new terminal or re-source your shell configuration to pick up PATH changes.")
	}
	return nil
}

func printProgress(percent int) {
	fmt.Printf("\r[%-50s] %3d%%", progressBar(percent), percent)
}

func progressBar(percent int) string {
	filled := percent / 2
	bar := make([]byte, 50)
	for i := range bar {
		if i < filled {
			bar[i] = '='
		} else {
			bar[i] = ' '
		}
	}
	return string(bar)
}
