package shellpath

import (
	"os"
	"path/filepath"
	"strings"
)

// Registrar mutates shell startup files to export per-package bin
// directories on PATH.
type Registrar struct {
	// PreferredShell overrides detection ("auto" or "" detects).
	PreferredShell string
	// HomeDir overrides the user home directory (tests).
	HomeDir string
}

// NewRegistrar creates a registrar honoring the given shell preference.
func NewRegistrar(preferredShell string) *Registrar {
	return &Registrar{PreferredShell: preferredShell}
}

func (r *Registrar) homeDir() (string, error) {
	if r.HomeDir != "" {
		return r.HomeDir, nil
	}
	return os.UserHomeDir()
}

// Register appends the package's marker block exporting dir to each
// relevant startup file. When dir already appears on the live PATH the
// call is a no-op returning true. Re-registering a package whose marker
// is already present leaves exactly one block per file.
func (r *Registrar) Register(identifier, dir string) (bool, error) {
	if onLivePath(dir) {
		return true, nil
	}

	home, err := r.homeDir()
	if err != nil {
		return false, &MutationError{Path: "", Message: "locate home directory", Cause: err}
	}

	shell := DetectShell(r.PreferredShell)
	files, err := selectFiles(shell, home)
	if err != nil {
		return false, err
	}

	marker := Marker(identifier)
	exportLine := ExportLine(shell, dir)

	for _, path := range files {
		present, err := hasMarker(path, marker)
		if err != nil {
			return false, err
		}
		if present {
			continue
		}
		if err := appendBlock(path, marker, exportLine); err != nil {
			return false, err
		}
	}

	return true, nil
}

// Deregister removes the package's marker block from every startup file
// of every supported shell. Returns false when no marker was found
// anywhere.
func (r *Registrar) Deregister(identifier string) (bool, error) {
	home, err := r.homeDir()
	if err != nil {
		return false, &MutationError{Path: "", Message: "locate home directory", Cause: err}
	}

	marker := Marker(identifier)
	removed := false

	// Sweep all shells: the user may have switched since installing.
	for _, shell := range []ShellType{ShellBash, ShellZsh, ShellFish} {
		for _, path := range startupFiles(shell, home) {
			ok, err := removeBlock(path, marker)
			if err != nil {
				return removed, err
			}
			removed = removed || ok
		}
	}

	return removed, nil
}

// onLivePath reports whether dir is already present in the live PATH.
func onLivePath(dir string) bool {
	clean := filepath.Clean(dir)
	for _, entry := range strings.Split(os.Getenv("PATH"), string(os.PathListSeparator)) {
		if entry != "" && filepath.Clean(entry) == clean {
			return true
		}
	}
	return false
}
