package lifecycle

import (
	"errors"
	"fmt"
)

// ErrInstallInFlight is returned when an installation is requested while
// another one is still running.
var ErrInstallInFlight = errors.New("another installation is already in progress")

// InstallError wraps a failure during one install stage.
type InstallError struct {
	Identifier string
	Stage      string
	Cause      error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("installing %s: %s: %v", e.Identifier, e.Stage, e.Cause)
}

func (e *InstallError) Unwrap() error {
	return e.Cause
}

// NotInstalledError reports an operation against a package that has no
// install subtree.
type NotInstalledError struct {
	Identifier string
}

func (e *NotInstalledError) Error() string {
	return fmt.Sprintf("package %s is not installed", e.Identifier)
}
