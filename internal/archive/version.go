package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// dottedVersion matches a dotted version number in an artifact filename
// (discord-0.0.43.tar.gz, spotify-client_1.2.25.1011_amd64.deb).
var dottedVersion = regexp.MustCompile(`(\d+\.\d+(?:\.\d+)*)`)

// resolveVersion picks the version string written to the marker:
// the resolver-supplied version when it is a real one, else a dotted
// number parsed from the artifact filename, else today's date stamp.
func resolveVersion(resolved, artifactPath string) string {
	if resolved != "" && resolved != "latest" && resolved != "unknown" {
		return resolved
	}

	if m := dottedVersion.FindString(filepath.Base(artifactPath)); m != "" {
		return m
	}

	return time.Now().Format("2006.01.02")
}

// WriteMarker writes the version marker inside a package subtree.
func WriteMarker(subtree, version string) error {
	path := filepath.Join(subtree, VersionMarker)
	if err := os.WriteFile(path, []byte(version), 0644); err != nil {
		return fmt.Errorf("write version marker: %w", err)
	}
	return nil
}

// ReadMarker returns the installed version recorded in a package subtree,
// or "" when no marker exists.
func ReadMarker(subtree string) string {
	data, err := os.ReadFile(filepath.Join(subtree, VersionMarker))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
