// Package host provides the WASM runtime that executes capability units.
package host

import "context"

// ABIVersion is the version of the host ABI exposed to capability modules.
// Declarations constrain it through their runtime_requires field.
const ABIVersion = "1.0.0"

// DescribeExport is the fixed entry point every capability module must
// export. It returns the declaration document as JSON.
const DescribeExport = "describe"

// Engine instantiates capability modules. The loader depends on this
// interface only; WazeroEngine is the production implementation.
type Engine interface {
	// Instantiate compiles and instantiates a capability module.
	Instantiate(ctx context.Context, wasm []byte) (Instance, error)

	// Close releases resources held by the engine and all its instances.
	Close(ctx context.Context) error
}

// Instance is one instantiated capability module.
type Instance interface {
	// Describe calls the module's describe export and returns the raw
	// declaration document bytes.
	Describe(ctx context.Context) ([]byte, error)

	// Operations returns the module's operation export names in
	// lexicographic order.
	Operations() []string

	// Invoke calls the named operation with a JSON input payload and
	// returns its JSON output.
	Invoke(ctx context.Context, operation string, input []byte) ([]byte, error)

	// Close releases the instance.
	Close(ctx context.Context) error
}
