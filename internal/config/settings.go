// Package config holds user preferences for the lifecycle engine.
//
// Settings are resolved in three layers: built-in defaults, an optional
// TOML preferences file, then BENPAK_* environment variables. The resolved
// value is passed into the engine constructor; nothing in this package is
// process-global state.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// envPrefix is the prefix for environment variable overrides
// (e.g. BENPAK_INSTALL_DIR, BENPAK_PREFERRED_SHELL).
const envPrefix = "benpak"

// Settings holds user preferences read at engine construction.
type Settings struct {
	// InstallDir is the root under which each package occupies one subtree.
	InstallDir string `toml:"install_directory" envconfig:"INSTALL_DIR"`

	// CreateDesktopShortcuts enables launcher entry creation after install.
	CreateDesktopShortcuts bool `toml:"create_desktop_shortcuts" envconfig:"CREATE_DESKTOP_SHORTCUTS"`

	// AutoConfigurePath enables PATH registration after install.
	AutoConfigurePath bool `toml:"auto_configure_path" envconfig:"AUTO_CONFIGURE_PATH"`

	// PreferredShell overrides shell detection ("auto", "bash", "zsh", "fish").
	PreferredShell string `toml:"preferred_shell" envconfig:"PREFERRED_SHELL"`

	// DownloadTimeout bounds a single artifact download.
	DownloadTimeout time.Duration `toml:"download_timeout" envconfig:"DOWNLOAD_TIMEOUT"`

	// TerminationGrace is the wait between killing blocking processes and
	// re-verifying that none survived.
	TerminationGrace time.Duration `toml:"termination_grace" envconfig:"TERMINATION_GRACE"`
}

// BaseDir returns the benpak data directory. A ~/sgoinfre directory, when
// present, takes precedence so installs land on the large shared volume of
// school machines rather than the quota-limited home.
func BaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".benpak"
	}
	sgoinfre := filepath.Join(home, "sgoinfre")
	if info, err := os.Stat(sgoinfre); err == nil && info.IsDir() {
		return filepath.Join(sgoinfre, ".benpak")
	}
	return filepath.Join(home, ".benpak")
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		InstallDir:             filepath.Join(BaseDir(), "programs"),
		CreateDesktopShortcuts: true,
		AutoConfigurePath:      true,
		PreferredShell:         "auto",
		DownloadTimeout:        5 * time.Minute,
		TerminationGrace:       2 * time.Second,
	}
}

// DefaultPath returns the standard location of the preferences file.
func DefaultPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// Load resolves settings from defaults, an optional TOML file, and
// environment overrides, in that order. A missing file is not an error.
func Load(path string) (Settings, error) {
	s := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := toml.Unmarshal(data, &s); err != nil {
				return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
		}
	}

	if err := envconfig.Process(envPrefix, &s); err != nil {
		return Settings{}, fmt.Errorf("apply environment overrides: %w", err)
	}

	return s, nil
}

// Save writes the settings to path as TOML, creating parent directories.
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}
