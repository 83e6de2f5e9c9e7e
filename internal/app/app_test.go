package app

import (
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/benpak/benpak/internal/catalog"
	"github.com/benpak/benpak/internal/config"
)

func TestRootCommand(t *testing.T) {
	if RootCmd.Use != "benpak" {
		t.Errorf("Use = %q, want benpak", RootCmd.Use)
	}
	if RootCmd.Short == "" || RootCmd.Long == "" {
		t.Error("root command is missing its descriptions")
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	expected := []string{"list", "install <package>", "uninstall <package>", "launch <package>", "update"}
	found := make(map[string]bool)
	for _, cmd := range RootCmd.Commands() {
		found[cmd.Use] = true
	}
	for _, use := range expected {
		if !found[use] {
			t.Errorf("subcommand %q not registered", use)
		}
	}
}

func TestRootCommandHasPersistentFlags(t *testing.T) {
	for _, name := range []string{"config", "packages", "install-dir", "verbose"} {
		flag := RootCmd.PersistentFlags().Lookup(name)
		if flag == nil {
			t.Errorf("--%s flag not registered", name)
			continue
		}
		if flag.Usage == "" {
			t.Errorf("--%s flag has no usage text", name)
		}
	}

	// The advertised default must match where settings are actually read.
	usage := RootCmd.PersistentFlags().Lookup("config").Usage
	if !strings.Contains(usage, filepath.Base(config.DefaultPath())) {
		t.Errorf("--config usage %q does not mention the real default file %q", usage, config.DefaultPath())
	}
}

func TestUninstallFlags(t *testing.T) {
	for _, name := range []string{"force-kill", "yes"} {
		if uninstallCmd.Flags().Lookup(name) == nil {
			t.Errorf("uninstall is missing --%s", name)
		}
	}
}

func TestEnvFind(t *testing.T) {
	e := &env{descriptors: []catalog.Descriptor{
		{Identifier: "notewriter", Name: "Note Writer", Kind: catalog.KindTarGz, URLTemplate: "https://x"},
		{Identifier: "charter", Name: "Charter", Kind: catalog.KindDeb, URLTemplate: "https://x"},
	}}

	desc, err := e.find("charter")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if desc.Name != "Charter" {
		t.Errorf("found %q, want Charter", desc.Name)
	}

	_, err = e.find("ghost")
	if err == nil {
		t.Fatal("find(ghost) succeeded")
	}
	if !strings.Contains(err.Error(), "notewriter") || !strings.Contains(err.Error(), "charter") {
		t.Errorf("error should list known packages, got: %v", err)
	}
}

func TestEnvFindEmptyCatalog(t *testing.T) {
	e := &env{}
	_, err := e.find("anything")
	if err == nil || !strings.Contains(err.Error(), "catalog is empty") {
		t.Errorf("error = %v, want a hint about the empty catalog", err)
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		percent int
		filled  int
	}{
		{0, 0},
		{50, 25},
		{100, 50},
	}
	for _, tt := range tests {
		bar := progressBar(tt.percent)
		if len(bar) != 50 {
			t.Fatalf("progressBar(%d) length = %d, want 50", tt.percent, len(bar))
		}
		if got := strings.Count(bar, "="); got != tt.filled {
			t.Errorf("progressBar(%d) filled = %d, want %d", tt.percent, got, tt.filled)
		}
	}
}

func TestNewLoggerLevels(t *testing.T) {
	orig := flagVerbose
	defer func() { flagVerbose = orig }()

	flagVerbose = false
	logger, err := newLogger()
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("quiet logger should not emit info")
	}

	flagVerbose = true
	logger, err = newLogger()
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("verbose logger should emit debug")
	}
}
