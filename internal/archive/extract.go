package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/benpak/benpak/internal/catalog"
)

// ProgressFunc receives extraction progress as a percentage in [0,100].
type ProgressFunc func(percent int)

// Extractor unpacks artifacts into per-package subtrees under an install
// root.
type Extractor struct {
	installRoot string
}

// NewExtractor creates an extractor rooted at installRoot.
func NewExtractor(installRoot string) *Extractor {
	return &Extractor{installRoot: installRoot}
}

// Subtree returns the install directory for a package identifier.
func (e *Extractor) Subtree(identifier string) string {
	return filepath.Join(e.installRoot, identifier)
}

// Extract verifies the artifact's content type, replaces any existing
// subtree for the package, unpacks, and writes the version marker.
//
// The pre-existing subtree is fully removed before re-populating, never
// merged into. On any failure after verification the partial subtree is
// removed before the error propagates.
func (e *Extractor) Extract(desc *catalog.Descriptor, archivePath string, progress ProgressFunc) (*Result, error) {
	start := time.Now()

	report := func(p int) {
		if progress != nil {
			progress(p)
		}
	}

	// Content check happens before the subtree is touched.
	if err := verifyKind(desc.Kind, archivePath); err != nil {
		return nil, err
	}

	subtree := e.Subtree(desc.Identifier)

	// Replace, never merge.
	if err := os.RemoveAll(subtree); err != nil {
		return nil, &ExtractionError{Identifier: desc.Identifier, Cause: fmt.Errorf("remove existing subtree: %w", err)}
	}

	report(10)

	fail := func(cause error) (*Result, error) {
		os.RemoveAll(subtree)
		return nil, &ExtractionError{Identifier: desc.Identifier, Cause: cause}
	}

	embeddedVersion := ""

	switch {
	case desc.Kind.IsTar():
		if err := extractTar(desc.Kind, archivePath, subtree); err != nil {
			return fail(err)
		}

	case desc.Kind == catalog.KindDeb:
		v, err := extractDeb(archivePath, subtree)
		if err != nil {
			return fail(err)
		}
		embeddedVersion = v

	case desc.Kind == catalog.KindAppImage:
		if err := extractAppImage(archivePath, subtree, desc.Identifier, desc.ExecutableName()); err != nil {
			return fail(err)
		}

	default:
		return nil, &ExtractionError{Identifier: desc.Identifier, Cause: fmt.Errorf("unsupported archive kind %q", desc.Kind)}
	}

	report(90)

	// Debian metadata beats filename guessing; the resolver beats both.
	version := desc.LatestVersion
	if version == "" || version == "latest" || version == "unknown" {
		version = embeddedVersion
	}
	version = resolveVersion(version, archivePath)

	if err := WriteMarker(subtree, version); err != nil {
		return fail(err)
	}

	report(100)

	return &Result{
		Subtree:  subtree,
		Version:  version,
		Duration: time.Since(start),
	}, nil
}
