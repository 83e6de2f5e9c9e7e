// Package app wires the lifecycle engine into the benpak command line.
package app

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is set at build time via -ldflags.
var Version = "v0.1.0-dev"

var (
	flagConfig     string
	flagPackages   string
	flagInstallDir string
	flagVerbose    bool
)

// RootCmd is the root command for benpak.
var RootCmd = &cobra.Command{
	Use:   "benpak",
	Short: "Install, launch and remove pre-built Linux applications",
	Long: `benpak installs third-party applications distributed as pre-built
archives (tar.gz, tar.bz2, tar.xz, deb, AppImage) into per-package
directories, without touching the system package manager.

Installed packages get a shell PATH entry and a desktop launcher entry,
both removed again on uninstall.

Examples:
  # Show what can be installed and what already is
  benpak list

  # Install a package from the catalog
  benpak install notewriter

  # Start an installed package detached from the terminal
  benpak launch notewriter

  # Remove it again, killing leftover processes without asking
  benpak uninstall notewriter --force-kill --yes

  # See which installed packages run behind upstream
  benpak update`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "settings file (default: ~/.benpak/config.toml, or under ~/sgoinfre when present)")
	RootCmd.PersistentFlags().StringVar(&flagPackages, "packages", "", "package descriptor directory (default: $BENPAK_PACKAGES or <base>/packages)")
	RootCmd.PersistentFlags().StringVar(&flagInstallDir, "install-dir", "", "override the install root")
	RootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "verbose logging")

	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(installCmd)
	RootCmd.AddCommand(uninstallCmd)
	RootCmd.AddCommand(launchCmd)
	RootCmd.AddCommand(updateCmd)
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}

// newLogger builds the CLI logger. Human-facing output goes through fmt;
// the logger carries diagnostics, so it stays quiet unless --verbose.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	if flagVerbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	return cfg.Build()
}
