package host

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// hostModuleName is the import namespace capability modules use for host
// functions.
const hostModuleName = "agentkit"

// reservedExports are module exports that are part of the ABI plumbing and
// never registered as operations.
var reservedExports = map[string]struct{}{
	DescribeExport: {},
	"allocate":     {},
	"deallocate":   {},
	"memory":       {},
}

// WazeroEngine executes capability modules under the wazero runtime with
// WASI preview1 available to guests.
type WazeroEngine struct {
	runtime wazero.Runtime
	logger  *slog.Logger
	cache   wazero.CompilationCache
}

// NewWazeroEngine creates an engine with the given options.
func NewWazeroEngine(ctx context.Context, opts ...Option) (*WazeroEngine, error) {
	e := &WazeroEngine{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}

	cfg := wazero.NewRuntimeConfig()
	if e.cache != nil {
		cfg = cfg.WithCompilationCache(e.cache)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, cfg)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)
	e.runtime = rt

	if err := e.registerHostFunctions(ctx); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}

	return e, nil
}

// registerHostFunctions registers the agentkit host module with the runtime.
func (e *WazeroEngine) registerHostFunctions(ctx context.Context) error {
	_, err := e.runtime.NewHostModuleBuilder(hostModuleName).
		NewFunctionBuilder().
		WithGoModuleFunction(
			api.GoModuleFunc(func(ctx context.Context, m api.Module, stack []uint64) {
				logMessage(ctx, e.logger, m, stack[0])
			}),
			[]api.ValueType{api.ValueTypeI64},
			nil,
		).
		Export("log_message").
		Instantiate(ctx)
	return err
}

// Instantiate implements Engine.
func (e *WazeroEngine) Instantiate(ctx context.Context, wasm []byte) (inst Instance, err error) {
	// A module's start function runs arbitrary guest code; a panic there
	// must surface as an import failure, not take down the load pass.
	defer func() {
		if r := recover(); r != nil {
			inst = nil
			err = fmt.Errorf("module instantiation panicked: %v", r)
		}
	}()

	mod, err := e.runtime.Instantiate(ctx, wasm)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = mod.Close(ctx)
			return nil, fmt.Errorf("failed to call _initialize: %w", err)
		}
	}

	return &wazeroInstance{module: mod}, nil
}

// Close releases the runtime and every instance created from it.
func (e *WazeroEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// wazeroInstance implements Instance over an instantiated module.
type wazeroInstance struct {
	module api.Module
}

// Describe calls the describe export.
func (w *wazeroInstance) Describe(ctx context.Context) ([]byte, error) {
	if w.module.ExportedFunction(DescribeExport) == nil {
		return nil, fmt.Errorf("function %q not exported", DescribeExport)
	}
	packed, err := w.callRaw(ctx, DescribeExport, nil)
	if err != nil {
		return nil, err
	}
	return w.readPacked(packed)
}

// Operations returns the operation export names in lexicographic order.
// wazero exposes exports as an unordered map, so sorting is what makes
// registration order deterministic.
func (w *wazeroInstance) Operations() []string {
	var ops []string
	for name := range w.module.ExportedFunctionDefinitions() {
		if _, reserved := reservedExports[name]; reserved {
			continue
		}
		if strings.HasPrefix(name, "_") {
			continue
		}
		ops = append(ops, name)
	}
	sort.Strings(ops)
	return ops
}

// Invoke calls an operation export with a JSON payload.
func (w *wazeroInstance) Invoke(ctx context.Context, operation string, input []byte) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("operation %q panicked: %v", operation, r)
		}
	}()

	packed, err := w.callRaw(ctx, operation, input)
	if err != nil {
		return nil, err
	}
	return w.readPacked(packed)
}

// Close releases the module.
func (w *wazeroInstance) Close(ctx context.Context) error {
	return w.module.Close(ctx)
}

// callRaw invokes a module function with raw bytes, using the packed
// ptr/len calling convention.
func (w *wazeroInstance) callRaw(ctx context.Context, name string, input []byte) (uint64, error) {
	fn := w.module.ExportedFunction(name)
	if fn == nil {
		return 0, fmt.Errorf("function %q not found", name)
	}

	var ptr, length uint64
	if len(input) > 0 {
		allocate := w.module.ExportedFunction("allocate")
		if allocate == nil {
			return 0, fmt.Errorf("function 'allocate' not exported")
		}
		res, err := allocate.Call(ctx, uint64(len(input)))
		if err != nil {
			return 0, fmt.Errorf("allocate failed: %w", err)
		}
		ptr = res[0]
		length = uint64(len(input))

		//nolint:gosec // WASM pointers are 32-bit
		if !w.module.Memory().Write(uint32(ptr), input) {
			return 0, fmt.Errorf("failed to write input to memory")
		}
	}

	res, err := fn.Call(ctx, (ptr<<32)|length)
	if err != nil {
		return 0, fmt.Errorf("call failed: %w", err)
	}
	if len(res) == 0 {
		return 0, nil
	}
	return res[0], nil
}

// readPacked copies the bytes referenced by a packed ptr/len out of guest
// memory.
func (w *wazeroInstance) readPacked(packed uint64) ([]byte, error) {
	ptr, length := unpackPtrLen(packed)
	if length == 0 {
		return nil, nil
	}

	data, ok := w.module.Memory().Read(ptr, length)
	if !ok {
		return nil, fmt.Errorf("failed to read result from memory at ptr=%d, len=%d", ptr, length)
	}

	// Copy out: guest memory may move on the next allocate.
	result := make([]byte, length)
	copy(result, data)
	return result, nil
}

// unpackPtrLen splits a packed uint64 into a 32-bit pointer and length.
func unpackPtrLen(packed uint64) (uint32, uint32) {
	//nolint:gosec // WASM pointers and lengths are 32-bit
	return uint32(packed >> 32), uint32(packed)
}
