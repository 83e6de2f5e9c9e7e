package app

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/benpak/benpak/internal/catalog"
	"github.com/benpak/benpak/internal/config"
	"github.com/benpak/benpak/internal/lifecycle"
	"github.com/benpak/benpak/internal/platform"
)

// env bundles everything a subcommand needs.
type env struct {
	settings    config.Settings
	logger      *zap.Logger
	info        *platform.Info
	descriptors []catalog.Descriptor
	manager     *lifecycle.Manager
}

// buildEnv loads settings and the catalog, detects the platform and
// assembles the lifecycle manager.
func buildEnv(ctx context.Context) (*env, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	configPath := flagConfig
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if flagInstallDir != "" {
		settings.InstallDir = flagInstallDir
	}

	info, err := platform.NewDetector().Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect platform: %w", err)
	}
	if !info.IsLinux() {
		return nil, fmt.Errorf("benpak manages Linux applications, detected %s", info.OS)
	}

	descriptors, err := catalog.LoadDir(catalog.ResolveDir(flagPackages), logger)
	if err != nil {
		return nil, fmt.Errorf("load package catalog: %w", err)
	}

	manager, err := lifecycle.NewManager(lifecycle.Config{
		Settings:     settings,
		PlatformInfo: info,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("lifecycle manager: %w", err)
	}

	return &env{
		settings:    settings,
		logger:      logger,
		info:        info,
		descriptors: descriptors,
		manager:     manager,
	}, nil
}

// find returns the descriptor for an identifier or an error naming the
// known packages.
func (e *env) find(identifier string) (*catalog.Descriptor, error) {
	desc, ok := catalog.Find(e.descriptors, identifier)
	if ok {
		return desc, nil
	}
	known := make([]string, len(e.descriptors))
	for i := range e.descriptors {
		known[i] = e.descriptors[i].Identifier
	}
	if len(known) == 0 {
		return nil, fmt.Errorf("unknown package %q (the catalog is empty; add descriptors or set --packages)", identifier)
	}
	return nil, fmt.Errorf("unknown package %q (known: %s)", identifier, strings.Join(known, ", "))
}

// confirm asks a yes/no question on the terminal. Defaults to no.
func confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
