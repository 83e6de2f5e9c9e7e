package shellpath

import (
	"os"
	"path/filepath"
	"strings"
)

// startupFiles returns the candidate startup files for a shell, in the
// order they are considered. The first entry is the one created when none
// exist yet.
func startupFiles(shell ShellType, homeDir string) []string {
	switch shell {
	case ShellBash:
		return []string{
			filepath.Join(homeDir, ".bashrc"),
			filepath.Join(homeDir, ".bash_profile"),
			filepath.Join(homeDir, ".profile"),
		}
	case ShellZsh:
		return []string{
			filepath.Join(homeDir, ".zshrc"),
			filepath.Join(homeDir, ".zprofile"),
		}
	case ShellFish:
		return []string{
			filepath.Join(homeDir, ".config", "fish", "config.fish"),
		}
	default:
		return nil
	}
}

// selectFiles returns the startup files that exist and are writable,
// creating the shell's primary file when none exist.
func selectFiles(shell ShellType, homeDir string) ([]string, error) {
	candidates := startupFiles(shell, homeDir)
	if len(candidates) == 0 {
		return nil, &UnsupportedShellError{Shell: shell.String()}
	}

	var selected []string
	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0); err == nil {
			f.Close()
			selected = append(selected, path)
		}
	}

	if len(selected) > 0 {
		return selected, nil
	}

	// No startup file yet: create the primary one for the detected shell.
	primary := candidates[0]
	if err := os.MkdirAll(filepath.Dir(primary), 0755); err != nil {
		return nil, &MutationError{Path: primary, Message: "create parent directory", Cause: err}
	}
	if err := os.WriteFile(primary, []byte("# Shell configuration\n"), 0644); err != nil {
		return nil, &MutationError{Path: primary, Message: "create file", Cause: err}
	}

	return []string{primary}, nil
}

// hasMarker reports whether the file already carries the package marker.
func hasMarker(path, marker string) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &MutationError{Path: path, Message: "read file", Cause: err}
	}

	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == marker {
			return true, nil
		}
	}
	return false, nil
}

// appendBlock appends the marker block to a startup file atomically,
// via a temporary file in the same directory renamed over the original.
func appendBlock(path, marker, exportLine string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return &MutationError{Path: path, Message: "read existing file", Cause: err}
	}

	var b strings.Builder
	b.Write(existing)
	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		b.WriteString("\n")
	}
	b.WriteString(marker + "\n")
	b.WriteString(exportLine + "\n")

	return writeAtomic(path, []byte(b.String()))
}

// removeBlock deletes the marker line and the line immediately following
// it wherever the marker appears. Returns false when no marker was found.
func removeBlock(path, marker string) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &MutationError{Path: path, Message: "read file", Cause: err}
	}

	lines := strings.Split(string(content), "\n")
	kept := make([]string, 0, len(lines))
	removed := false

	for i := 0; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == marker {
			removed = true
			i++ // drop the export statement with the marker
			continue
		}
		kept = append(kept, lines[i])
	}

	if !removed {
		return false, nil
	}

	if err := writeAtomic(path, []byte(strings.Join(kept, "\n"))); err != nil {
		return false, err
	}
	return true, nil
}

// writeAtomic replaces path's content using a same-directory temp file
// and rename, preserving a readable file at every instant.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, ".benpak-tmp-*")
	if err != nil {
		return &MutationError{Path: path, Message: "create temporary file", Cause: err}
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(content); err != nil {
		tmpFile.Close()
		return &MutationError{Path: path, Message: "write temporary file", Cause: err}
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return &MutationError{Path: path, Message: "sync temporary file", Cause: err}
	}
	tmpFile.Close()

	if err := os.Rename(tmpPath, path); err != nil {
		return &MutationError{Path: path, Message: "rename temporary file", Cause: err}
	}

	return nil
}
