// Package archive unpacks downloaded artifacts into a package's install
// subtree.
//
// The artifact's real content type is verified against the declared kind
// before the subtree is touched; a mismatch (a renamed file, an HTML error
// page saved as .tar.gz) fails fast without creating partial state. Any
// failure after that removes the partially populated subtree before the
// error propagates.
package archive

import (
	"fmt"
	"time"
)

// VersionMarker is the sidecar file inside each install subtree holding
// the installed version string.
const VersionMarker = ".version"

// Result describes a completed extraction.
type Result struct {
	// Subtree is the package's install directory.
	Subtree string
	// Version is the string written to the version marker.
	Version string
	// Duration is how long the unpack took.
	Duration time.Duration
}

// TypeMismatchError reports an artifact whose actual content does not
// match its declared archive kind.
type TypeMismatchError struct {
	Declared string
	Detected string
	Path     string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("archive type mismatch for %s: declared %s, detected %s",
		e.Path, e.Declared, e.Detected)
}

// ExtractionError reports an unpack failure. The install subtree has
// already been cleaned up when this error is returned.
type ExtractionError struct {
	Identifier string
	Cause      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Identifier, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
