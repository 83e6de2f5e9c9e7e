// Package executable locates the launchable binary inside an extracted
// package subtree.
//
// Vendor archives have no predictable layout: the binary may sit at the
// root, under bin/, or buried in usr/share. Candidates are collected under
// a fixed list of priority sub-paths and scored; the highest score wins,
// ties broken by search order.
package executable

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/benpak/benpak/internal/catalog"
)

// Scoring weights for executable candidates.
const (
	scoreExactName = 100 // filename equals the target name
	scoreBinDir    = 50  // resides under a binary-style directory
	scoreNotHelper = 25  // does not look like an auxiliary tool
)

// searchOrder lists subtree locations checked in priority order; typical
// binary directories first, the archive root last.
var searchOrder = []string{
	"bin",
	"usr/bin",
	"usr/local/bin",
	"opt",
	".",
}

// helperSuffixes mark auxiliary binaries shipped next to the main
// application (crash handlers, tunnel daemons, CLI companions) that must
// not be picked as the launch target.
var helperSuffixes = []string{
	"-cli",
	"-tunnel",
	"-helper",
	"-crashpad",
	"-sandbox",
	"_crashpad_handler",
}

// NotFoundError reports that no launchable binary was found.
type NotFoundError struct {
	Identifier string
	Name       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no executable named %q found for package %s", e.Name, e.Identifier)
}

// Candidate is a scored executable path.
type Candidate struct {
	Path  string
	Score int
	order int
}

// Resolve returns the path of the binary to launch for a package.
//
// An explicit bin-path hint on the descriptor is trusted and returned
// first, even when the target does not exist yet: some archives
// materialize nested payloads after first launch, and failing here would
// be spurious.
func Resolve(desc *catalog.Descriptor, subtree string) (string, error) {
	name := desc.ExecutableName()

	if desc.BinPath != "" {
		hinted := filepath.Join(subtree, desc.BinPath)
		if info, err := os.Stat(hinted); err == nil && info.IsDir() {
			// Hint names a directory: search inside it for the executable.
			if found := searchDir(hinted, name, 0); len(found) > 0 {
				return best(found).Path, nil
			}
			// Nothing there yet; the expected file path inside the hinted
			// directory is still a launchable target, a bare directory never is.
			return filepath.Join(hinted, name), nil
		}
		return hinted, nil
	}

	candidates := collect(subtree, name)
	if len(candidates) == 0 {
		return "", &NotFoundError{Identifier: desc.Identifier, Name: name}
	}

	return best(candidates).Path, nil
}

// collect gathers scored candidates under each search location.
func collect(subtree, name string) []Candidate {
	var all []Candidate
	seen := make(map[string]bool)

	for i, sub := range searchOrder {
		root := filepath.Join(subtree, sub)
		if sub == "." {
			root = subtree
		}

		for _, c := range searchDir(root, name, i*1000) {
			if seen[c.Path] {
				continue
			}
			seen[c.Path] = true
			c.Score += locationBonus(sub)
			all = append(all, c)
		}
	}

	return all
}

// searchDir walks root collecting executable files whose name equals or
// is prefixed by the target name. orderBase keeps earlier search
// locations ahead in tie-breaks.
func searchDir(root, name string, orderBase int) []Candidate {
	var found []Candidate
	lower := strings.ToLower(name)
	n := 0

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if d.IsDir() {
			return nil
		}

		base := strings.ToLower(d.Name())
		if base != lower && !strings.HasPrefix(base, lower) {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Mode().Perm()&0111 == 0 {
			return nil
		}

		score := 0
		if base == lower {
			score += scoreExactName
		}
		if !isHelper(base) {
			score += scoreNotHelper
		}

		found = append(found, Candidate{Path: path, Score: score, order: orderBase + n})
		n++
		return nil
	})

	return found
}

// locationBonus rewards binary-style directories.
func locationBonus(sub string) int {
	switch sub {
	case "bin", "usr/bin", "usr/local/bin":
		return scoreBinDir
	default:
		return 0
	}
}

// isHelper reports whether a filename matches a known helper-tool suffix.
func isHelper(base string) bool {
	// Strip a trailing extension so "app-tunnel.bin" still matches.
	noExt := strings.TrimSuffix(base, filepath.Ext(base))
	for _, suffix := range helperSuffixes {
		if strings.HasSuffix(base, suffix) || strings.HasSuffix(noExt, suffix) {
			return true
		}
	}
	return false
}

// best returns the highest-scoring candidate; ties go to the earliest
// discovered in search order.
func best(candidates []Candidate) Candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].order < candidates[j].order
	})
	return candidates[0]
}
