// Package desktop creates and removes launcher entries for installed
// packages.
//
// Generated entries carry a fixed name suffix so they never collide with
// a system-provided entry for the same application; the icon, when found
// inside the install subtree, is copied next to the entry so the launcher
// survives reinstalls of the mutable subtree.
package desktop

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/benpak/benpak/internal/catalog"
)

// entrySuffix distinguishes engine-managed entries from system ones.
const entrySuffix = "-benpak"

// iconCandidates are the filenames probed inside the subtree before
// falling back to any image file.
var iconCandidates = []string{
	"icon.png",
	"icon.svg",
	"app.png",
	"logo.png",
	"logo.svg",
}

// iconExtensions qualify a file as an icon in the fallback scan.
var iconExtensions = map[string]bool{
	".png":  true,
	".svg":  true,
	".xpm":  true,
	".ico":  true,
	".jpg":  true,
	".jpeg": true,
}

// Manager writes launcher entries into an applications directory.
type Manager struct {
	// AppsDir is where .desktop files go; defaults to the standard
	// per-user applications directory.
	AppsDir string
}

// NewManager creates a manager targeting the user applications directory.
func NewManager() (*Manager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("locate home directory: %w", err)
	}
	return &Manager{
		AppsDir: filepath.Join(home, ".local", "share", "applications"),
	}, nil
}

// EntryPath returns the path of the generated launcher for a package.
func (m *Manager) EntryPath(identifier string) string {
	return filepath.Join(m.AppsDir, identifier+entrySuffix+".desktop")
}

// Create writes the launcher entry for an installed package. subtree is
// scanned for an icon; a found file is copied beside the entry, otherwise
// the descriptor's symbolic icon reference is used as-is.
func (m *Manager) Create(desc *catalog.Descriptor, executablePath, subtree string) (bool, error) {
	if err := os.MkdirAll(m.AppsDir, 0755); err != nil {
		return false, fmt.Errorf("create applications dir: %w", err)
	}

	icon := desc.Icon
	if found := findIcon(subtree); found != "" {
		copied := filepath.Join(m.AppsDir, desc.Identifier+entrySuffix+filepath.Ext(found))
		if err := copyFile(found, copied); err == nil {
			icon = copied
		}
	}

	entry := fmt.Sprintf(`[Desktop Entry]
Name=%s
Comment=%s
Exec=%s
Icon=%s
Terminal=false
Type=Application
Categories=Development;
`, desc.Name, desc.Description, executablePath, icon)

	if err := os.WriteFile(m.EntryPath(desc.Identifier), []byte(entry), 0755); err != nil {
		return false, fmt.Errorf("write desktop entry: %w", err)
	}

	return true, nil
}

// Remove deletes the generated entry and its copied icon. The unsuffixed
// entry from the earlier naming scheme is removed best-effort.
func (m *Manager) Remove(identifier string) (bool, error) {
	removed := false

	if err := os.Remove(m.EntryPath(identifier)); err == nil {
		removed = true
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("remove desktop entry: %w", err)
	}

	// Copied icon, any extension.
	for ext := range iconExtensions {
		os.Remove(filepath.Join(m.AppsDir, identifier+entrySuffix+ext))
	}

	// Legacy unsuffixed entry.
	os.Remove(filepath.Join(m.AppsDir, identifier+".desktop"))

	return removed, nil
}

// findIcon locates an icon file inside the subtree: known candidate
// names first, then the first file with an image extension.
func findIcon(subtree string) string {
	if subtree == "" {
		return ""
	}

	for _, name := range iconCandidates {
		var hit string
		filepath.WalkDir(subtree, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if strings.EqualFold(d.Name(), name) {
				hit = path
				return fs.SkipAll
			}
			return nil
		})
		if hit != "" {
			return hit
		}
	}

	var fallback string
	filepath.WalkDir(subtree, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if iconExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
			fallback = path
			return fs.SkipAll
		}
		return nil
	})

	return fallback
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
