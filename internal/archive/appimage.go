package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// appImageShim is the launcher written next to a copied AppImage. The
// format has no installable layout, and several AppImage applications
// expect their working directory to be where the binary lives.
const appImageShim = `#!/bin/bash
cd "%s"
exec ./%s "$@"
`

// extractAppImage installs an AppImage: copy the artifact into the
// subtree, mark it executable, and synthesize a launcher shim named after
// the package's executable.
func extractAppImage(archivePath, destDir, identifier, executableName string) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	appImageName := identifier + ".AppImage"
	targetPath := filepath.Join(destDir, appImageName)

	if err := copyFile(archivePath, targetPath, 0755); err != nil {
		return fmt.Errorf("copy AppImage: %w", err)
	}

	shimPath := filepath.Join(destDir, executableName)
	if shimPath == targetPath {
		return nil
	}

	shim := fmt.Sprintf(appImageShim, destDir, appImageName)
	if err := os.WriteFile(shimPath, []byte(shim), 0755); err != nil {
		return fmt.Errorf("write launcher shim: %w", err)
	}

	return nil
}

// copyFile copies src to dst with the given mode.
func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
