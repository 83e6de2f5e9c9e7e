package archive

import (
	"archive/tar"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/benpak/benpak/internal/catalog"
)

// decompressor wraps an archive stream in the reader matching its kind.
func decompressor(kind catalog.Kind, r io.Reader) (io.Reader, error) {
	switch kind {
	case catalog.KindTarGz:
		return gzip.NewReader(r)
	case catalog.KindTarBz2:
		return bzip2.NewReader(r), nil
	case catalog.KindTarXz:
		return xz.NewReader(r)
	default:
		return nil, fmt.Errorf("no decompressor for kind %q", kind)
	}
}

// tarballReader returns a reader for an embedded Debian tarball member
// ("data.tar.gz", "control.tar.zst", ...) based on its extension.
func tarballReader(name string, r io.Reader) (io.Reader, error) {
	switch {
	case strings.HasSuffix(name, ".tar.gz"):
		return gzip.NewReader(r)
	case strings.HasSuffix(name, ".tar.xz"):
		return xz.NewReader(r)
	case strings.HasSuffix(name, ".tar.bz2"):
		return bzip2.NewReader(r), nil
	case strings.HasSuffix(name, ".tar.zst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	case strings.HasSuffix(name, ".tar"):
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported tarball member %q", name)
	}
}

// untar unpacks a tar stream into destDir, dropping strip leading path
// components from every entry. Entries left with no path after stripping
// are skipped, matching tar --strip-components.
func untar(tr *tar.Reader, destDir string, strip int) error {
	cleanDest := filepath.Clean(destDir)

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		name, ok := stripComponents(header.Name, strip)
		if !ok {
			continue
		}

		target := filepath.Join(destDir, name)

		// Security check: prevent path traversal
		if target != cleanDest && !strings.HasPrefix(target, cleanDest+string(os.PathSeparator)) {
			return fmt.Errorf("illegal file path: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("create parent dir for %s: %w", target, err)
			}

			outFile, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return fmt.Errorf("create file %s: %w", target, err)
			}

			if _, err := io.Copy(outFile, tr); err != nil {
				outFile.Close()
				return fmt.Errorf("write file %s: %w", target, err)
			}

			outFile.Close()

		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("create parent dir for %s: %w", target, err)
			}
			os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("create symlink %s: %w", target, err)
			}

		default:
			// Skip other types (char devices, block devices, etc.)
			continue
		}
	}

	return nil
}

// stripComponents removes strip leading components from a tar entry name.
// The second return is false when nothing remains.
func stripComponents(name string, strip int) (string, bool) {
	name = strings.TrimPrefix(toSlash(name), "./")
	if name == "" || name == "." {
		return "", false
	}
	if strip <= 0 {
		return name, true
	}

	parts := strings.Split(name, "/")
	if len(parts) <= strip {
		return "", false
	}
	return strings.Join(parts[strip:], "/"), true
}

// toSlash normalizes tar entry separators.
func toSlash(name string) string {
	return strings.ReplaceAll(name, "\\", "/")
}

// extractTar unpacks a tar-family artifact into destDir with a single
// leading directory component stripped; vendor tarballs wrap their
// content in a versioned top directory.
func extractTar(kind catalog.Kind, archivePath, destDir string) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	reader, err := decompressor(kind, archiveFile)
	if err != nil {
		return fmt.Errorf("create %s reader: %w", kind, err)
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	return untar(tar.NewReader(reader), destDir, 1)
}
