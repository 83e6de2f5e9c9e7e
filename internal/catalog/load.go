package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/benpak/benpak/internal/config"
)

// EnvPackagesDir overrides the descriptor directory location.
const EnvPackagesDir = "BENPAK_PACKAGES"

// ResolveDir returns the descriptor directory. Precedence is fixed:
// an explicit flag value, then $BENPAK_PACKAGES, then the packages
// directory next to the preferences file.
func ResolveDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(EnvPackagesDir); env != "" {
		return env
	}
	return filepath.Join(config.BaseDir(), "packages")
}

// LoadDir reads every *.toml descriptor in dir, sorted by filename.
// Invalid records are logged and skipped; a missing directory yields an
// empty catalog rather than an error.
func LoadDir(dir string, logger *zap.Logger) ([]Descriptor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read descriptor dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	descriptors := make([]Descriptor, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable descriptor",
				zap.String("path", path), zap.Error(err))
			continue
		}

		var d Descriptor
		if err := toml.Unmarshal(data, &d); err != nil {
			logger.Warn("skipping malformed descriptor",
				zap.String("path", path), zap.Error(err))
			continue
		}

		if err := d.Validate(); err != nil {
			logger.Warn("skipping invalid descriptor",
				zap.String("path", path), zap.Error(err))
			continue
		}

		descriptors = append(descriptors, d)
	}

	return descriptors, nil
}

// Find returns the descriptor with the given identifier.
func Find(descriptors []Descriptor, identifier string) (*Descriptor, bool) {
	for i := range descriptors {
		if descriptors[i].Identifier == identifier {
			return &descriptors[i], true
		}
	}
	return nil, false
}
