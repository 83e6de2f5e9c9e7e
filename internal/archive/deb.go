package archive

import (
	"archive/tar"
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/blakesmith/ar"
)

// extractDeb unpacks a Debian package's data payload into destDir and
// returns the package version read from its control member, if present.
//
// A .deb is an ar container holding debian-binary, control.tar.* and
// data.tar.*. Only the data payload lands in the subtree; paths are kept
// as shipped (usr/bin/..., opt/...), the same layout dpkg-deb -x produces.
func extractDeb(archivePath, destDir string) (string, error) {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("create dest dir: %w", err)
	}

	reader := ar.NewReader(archiveFile)

	version := ""
	dataSeen := false

	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read ar header: %w", err)
		}

		name := strings.TrimSuffix(strings.TrimSpace(header.Name), "/")

		switch {
		case strings.HasPrefix(name, "control.tar"):
			v, err := controlVersion(name, reader)
			if err != nil {
				// Version read-back is best effort; the marker logic
				// falls back to the resolver or filename.
				continue
			}
			version = v

		case strings.HasPrefix(name, "data.tar"):
			payload, err := tarballReader(name, reader)
			if err != nil {
				return "", fmt.Errorf("open data payload %s: %w", name, err)
			}
			if err := untar(tar.NewReader(payload), destDir, 0); err != nil {
				return "", fmt.Errorf("unpack data payload: %w", err)
			}
			dataSeen = true
		}
	}

	if !dataSeen {
		return "", fmt.Errorf("no data.tar member found in %s", archivePath)
	}

	return version, nil
}

// controlVersion reads the Version field from a control.tar.* member.
func controlVersion(name string, r io.Reader) (string, error) {
	payload, err := tarballReader(name, r)
	if err != nil {
		return "", err
	}

	tr := tar.NewReader(payload)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		entry := strings.TrimPrefix(toSlash(header.Name), "./")
		if entry != "control" {
			continue
		}

		scanner := bufio.NewScanner(tr)
		for scanner.Scan() {
			line := scanner.Text()
			if v, ok := strings.CutPrefix(line, "Version:"); ok {
				return strings.TrimSpace(v), nil
			}
		}
		return "", scanner.Err()
	}

	return "", fmt.Errorf("no control file in %s", name)
}
