package loader

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error patterns.
var (
	// ErrImportFailed is returned when a candidate cannot be loaded as code.
	ErrImportFailed = errors.New("import failed")

	// ErrMissingDeclaration is returned when an imported candidate exposes
	// no declaration.
	ErrMissingDeclaration = errors.New("missing declaration")
)

// ImportError indicates a candidate failed to import: unreadable bytes, an
// invalid module, or a crash during module initialization. It is always
// caught at the loader boundary and surfaced in the report, never raised
// past LoadAll.
type ImportError struct {
	Identifier string
	Cause      error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("capability %q: import failed: %v", e.Identifier, e.Cause)
}

// Is implements error matching for errors.Is() checks.
func (e *ImportError) Is(target error) bool {
	return target == ErrImportFailed
}

func (e *ImportError) Unwrap() error {
	return e.Cause
}

// MissingDeclarationError indicates an imported candidate has no usable
// declaration: no describe export, or an undecodable document.
type MissingDeclarationError struct {
	Identifier string
	Cause      error
}

func (e *MissingDeclarationError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("capability %q: missing declaration", e.Identifier)
	}
	return fmt.Sprintf("capability %q: missing declaration: %v", e.Identifier, e.Cause)
}

// Is implements error matching for errors.Is() checks.
func (e *MissingDeclarationError) Is(target error) bool {
	return target == ErrMissingDeclaration
}

func (e *MissingDeclarationError) Unwrap() error {
	return e.Cause
}
