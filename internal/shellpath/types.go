// Package shellpath idempotently adds and removes PATH entries in shell
// startup files.
//
// Every mutation for a package is a two-line block: a package-scoped
// marker comment followed by the PATH-extension statement in the detected
// shell's syntax. The marker makes repeated registration a no-op and
// removal exact.
package shellpath

import "fmt"

// ShellType represents a supported shell.
type ShellType string

const (
	// ShellBash represents the Bash shell
	ShellBash ShellType = "bash"
	// ShellZsh represents the Z shell
	ShellZsh ShellType = "zsh"
	// ShellFish represents the Fish shell
	ShellFish ShellType = "fish"
	// ShellUnknown represents an unknown or unsupported shell
	ShellUnknown ShellType = "unknown"
)

// String returns the string representation of the shell type.
func (s ShellType) String() string {
	return string(s)
}

// IsValid returns true if the shell type is supported.
func (s ShellType) IsValid() bool {
	switch s {
	case ShellBash, ShellZsh, ShellFish:
		return true
	default:
		return false
	}
}

// markerPrefix scopes marker comments to this tool; the identifier after
// it scopes them to one package.
const markerPrefix = "# benpak:"

// Marker returns the package-scoped marker comment line.
func Marker(identifier string) string {
	return markerPrefix + identifier
}

// ExportLine returns the PATH-extension statement for a shell.
func ExportLine(shell ShellType, dir string) string {
	switch shell {
	case ShellFish:
		return fmt.Sprintf("fish_add_path %q", dir)
	default:
		return fmt.Sprintf(`export PATH="%s:$PATH"`, dir)
	}
}

// UnsupportedShellError represents an unsupported shell error.
type UnsupportedShellError struct {
	Shell string
}

func (e *UnsupportedShellError) Error() string {
	return fmt.Sprintf("unsupported shell: %s (supported: bash, zsh, fish)", e.Shell)
}

// MutationError represents a failed startup-file mutation.
type MutationError struct {
	Path    string
	Message string
	Cause   error
}

func (e *MutationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("startup file %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("startup file %s: %s", e.Path, e.Message)
}

func (e *MutationError) Unwrap() error {
	return e.Cause
}
