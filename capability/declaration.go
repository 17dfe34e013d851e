// Package capability defines the data model for self-describing capability
// units: their declarations, their operations, and their loaded form.
package capability

import "context"

// Platform identifies the operating system family a capability targets.
type Platform string

// Recognized platform values. An empty Platform is equivalent to PlatformAny.
const (
	PlatformAny     Platform = "any"
	PlatformDarwin  Platform = "darwin"
	PlatformLinux   Platform = "linux"
	PlatformWindows Platform = "windows"
)

// EnvVar describes one environment variable a capability consumes.
type EnvVar struct {
	// Description is the human-readable purpose of the variable.
	Description string `json:"description" yaml:"description"`

	// Required marks the variable as mandatory for the capability to work.
	Required bool `json:"required,omitempty" yaml:"required,omitempty"`

	// Default is the fallback value when the variable is unset.
	// Nil means no fallback exists.
	Default *string `json:"default,omitempty" yaml:"default,omitempty"`
}

// Declaration is the validated static metadata describing a capability.
// It is immutable once produced by the Validator.
type Declaration struct {
	Name            string
	Description     string
	Author          string
	Version         string
	Platform        Platform
	RuntimeRequires string
	Dependencies    []string
	EnvVars         map[string]EnvVar
}

// Document is a raw declaration document as decoded from a manifest file or
// a module's describe export, before validation. Unknown top-level keys are
// dropped during decoding for forward compatibility.
type Document struct {
	Name            string               `json:"name" yaml:"name"`
	Description     string               `json:"description" yaml:"description"`
	Author          string               `json:"author,omitempty" yaml:"author,omitempty"`
	Version         string               `json:"version,omitempty" yaml:"version,omitempty"`
	Platform        string               `json:"platform,omitempty" yaml:"platform,omitempty"`
	RuntimeRequires string               `json:"runtime_requires,omitempty" yaml:"runtime_requires,omitempty"`
	Dependencies    []any                `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	EnvVars         map[string]EnvVarDoc `json:"environment_variables,omitempty" yaml:"environment_variables,omitempty"`
}

// EnvVarDoc is the raw form of an environment variable entry. Required is a
// pointer so "absent" and "false" can be told apart during validation.
type EnvVarDoc struct {
	Description string  `json:"description" yaml:"description"`
	Required    *bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Default     *string `json:"default,omitempty" yaml:"default,omitempty"`
}

// SourceKind tags how a capability unit is laid out on disk.
type SourceKind string

const (
	// SourceFile is a single-file unit: <stem>.wasm.
	SourceFile SourceKind = "file"

	// SourcePackage is a directory unit containing capability.wasm.
	SourcePackage SourceKind = "package"
)

// InvokeFunc is the callable form of one operation. Input and output are
// JSON payloads owned by the capability's own contract.
type InvokeFunc func(ctx context.Context, input []byte) ([]byte, error)

// Operation is one invocable function exported by a capability.
type Operation struct {
	Name   string
	Invoke InvokeFunc
}

// Unit is a loaded capability: one validated declaration, the operations it
// exports, and where it came from. Units live until process teardown; there
// is no unload path.
type Unit struct {
	Name        Name
	Declaration Declaration
	Operations  []Operation
	SourceKind  SourceKind
	Path        string
}
