package loader_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentkit-dev/agentkit/capability"
	"github.com/agentkit-dev/agentkit/host"
	"github.com/agentkit-dev/agentkit/loader"
	"github.com/agentkit-dev/agentkit/registry"
)

// stubInstance is a host.Instance backed by canned data.
type stubInstance struct {
	describe    []byte
	describeErr error
	ops         map[string]string // operation name -> static output
	closed      bool
}

func (s *stubInstance) Describe(ctx context.Context) ([]byte, error) {
	if s.describeErr != nil {
		return nil, s.describeErr
	}
	return s.describe, nil
}

func (s *stubInstance) Operations() []string {
	names := make([]string, 0, len(s.ops))
	for name := range s.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *stubInstance) Invoke(ctx context.Context, operation string, input []byte) ([]byte, error) {
	out, ok := s.ops[operation]
	if !ok {
		return nil, fmt.Errorf("operation %q not found", operation)
	}
	return []byte(out), nil
}

func (s *stubInstance) Close(ctx context.Context) error {
	s.closed = true
	return nil
}

// stubEngine maps module bytes to canned instances, so loader tests need no
// real wasm toolchain.
type stubEngine struct {
	instances map[string]*stubInstance
	errs      map[string]error
}

func newStubEngine() *stubEngine {
	return &stubEngine{
		instances: make(map[string]*stubInstance),
		errs:      make(map[string]error),
	}
}

func (e *stubEngine) Instantiate(ctx context.Context, wasm []byte) (host.Instance, error) {
	if err, ok := e.errs[string(wasm)]; ok {
		return nil, err
	}
	inst, ok := e.instances[string(wasm)]
	if !ok {
		return nil, fmt.Errorf("unknown module %q", string(wasm))
	}
	return inst, nil
}

func (e *stubEngine) Close(ctx context.Context) error { return nil }

func declJSON(name, platform string) []byte {
	return []byte(fmt.Sprintf(`{"name": %q, "description": "test capability", "platform": %q}`, name, platform))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func linuxGate() *capability.Gate {
	return capability.NewGate(capability.Host{Platform: "linux", RuntimeVersion: host.ABIVersion})
}

func Test_Loader_SingleFileUnit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "calc.wasm", "calc-module")

	engine := newStubEngine()
	engine.instances["calc-module"] = &stubInstance{
		describe: declJSON("Calculator", "any"),
		ops:      map[string]string{"evaluate": `{"result":4}`},
	}

	l, err := loader.New(engine, loader.WithGate(linuxGate()))
	require.NoError(t, err)

	reg := registry.New()
	report, err := l.LoadAll(context.Background(), dir, reg)
	require.NoError(t, err)
	require.True(t, report.Clean())
	require.Len(t, report.Loaded, 1)

	assert.Equal(t, "calc", report.Loaded[0].Name.String())
	assert.Equal(t, capability.SourceFile, report.Loaded[0].SourceKind)
	assert.Equal(t, []string{"calc.evaluate"}, reg.ListTools())

	out, err := reg.Invoke(context.Background(), "calc.evaluate", []byte(`{"expr":"2+2"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":4}`, string(out))
}

func Test_Loader_PackageUnitWithManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "search"), 0o755))
	writeFile(t, filepath.Join(dir, "search"), "capability.wasm", "search-module")
	writeFile(t, filepath.Join(dir, "search"), "capability.yaml",
		"name: Web Search\ndescription: Searches the web\n")

	engine := newStubEngine()
	engine.instances["search-module"] = &stubInstance{
		// The manifest must take precedence; a broken describe export is
		// irrelevant when one is present.
		describeErr: errors.New("describe not implemented"),
		ops:         map[string]string{"run": `{}`},
	}

	l, err := loader.New(engine, loader.WithGate(linuxGate()))
	require.NoError(t, err)

	reg := registry.New()
	report, err := l.LoadAll(context.Background(), dir, reg)
	require.NoError(t, err)
	require.Len(t, report.Loaded, 1)

	assert.Equal(t, "search", report.Loaded[0].Name.String())
	assert.Equal(t, capability.SourcePackage, report.Loaded[0].SourceKind)
	assert.Equal(t, "Web Search", report.Loaded[0].Declaration.Name)
	assert.Equal(t, []string{"search.run"}, reg.ListTools())
}

func Test_Loader_FailureIsolation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "alpha.wasm", "alpha-module")
	writeFile(t, dir, "broken.wasm", "broken-module")
	writeFile(t, dir, "zeta.wasm", "zeta-module")

	engine := newStubEngine()
	engine.instances["alpha-module"] = &stubInstance{
		describe: declJSON("Alpha", "any"),
		ops:      map[string]string{"run": `{}`},
	}
	engine.errs["broken-module"] = errors.New("invalid magic number")
	engine.instances["zeta-module"] = &stubInstance{
		describe: declJSON("Zeta", "any"),
		ops:      map[string]string{"run": `{}`},
	}

	l, err := loader.New(engine, loader.WithGate(linuxGate()))
	require.NoError(t, err)

	reg := registry.New()
	report, err := l.LoadAll(context.Background(), dir, reg)
	require.NoError(t, err)

	require.Len(t, report.Loaded, 2)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "broken.wasm", report.Failed[0].Identifier)
	assert.ErrorIs(t, report.Failed[0].Err, loader.ErrImportFailed)

	assert.Equal(t, []string{"alpha.run", "zeta.run"}, reg.ListTools())
}

func Test_Loader_MissingDeclaration(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mute.wasm", "mute-module")

	engine := newStubEngine()
	engine.instances["mute-module"] = &stubInstance{
		describeErr: errors.New("function \"describe\" not exported"),
	}

	l, err := loader.New(engine, loader.WithGate(linuxGate()))
	require.NoError(t, err)

	report, err := l.LoadAll(context.Background(), dir, registry.New())
	require.NoError(t, err)

	require.Len(t, report.Failed, 1)
	assert.ErrorIs(t, report.Failed[0].Err, loader.ErrMissingDeclaration)
	assert.True(t, engine.instances["mute-module"].closed, "failed candidates must be closed")
}

func Test_Loader_InvalidDeclaration(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "anon.wasm", "anon-module")

	engine := newStubEngine()
	engine.instances["anon-module"] = &stubInstance{
		describe: []byte(`{"name": "Anon"}`),
	}

	l, err := loader.New(engine, loader.WithGate(linuxGate()))
	require.NoError(t, err)

	report, err := l.LoadAll(context.Background(), dir, registry.New())
	require.NoError(t, err)

	require.Len(t, report.Failed, 1)
	assert.ErrorIs(t, report.Failed[0].Err, capability.ErrInvalidDeclaration)
}

func Test_Loader_IncompatiblePlatformSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "winonly.wasm", "winonly-module")

	engine := newStubEngine()
	engine.instances["winonly-module"] = &stubInstance{
		describe: declJSON("WinOnly", "windows"),
		ops:      map[string]string{"run": `{}`},
	}

	l, err := loader.New(engine, loader.WithGate(linuxGate()))
	require.NoError(t, err)

	reg := registry.New()
	report, err := l.LoadAll(context.Background(), dir, reg)
	require.NoError(t, err)

	assert.Empty(t, report.Loaded)
	assert.Empty(t, report.Failed)
	require.Len(t, report.Skipped, 1)
	assert.Contains(t, report.Skipped[0].Reason, "windows")
	assert.Zero(t, reg.ToolCount())
	assert.True(t, engine.instances["winonly-module"].closed)
}

func Test_Loader_DuplicateStemConflict(t *testing.T) {
	dir := t.TempDir()
	// "calc" the directory sorts before "calc.wasm" the file; both share
	// the stem, so the file's registration is refused.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "calc"), 0o755))
	writeFile(t, filepath.Join(dir, "calc"), "capability.wasm", "calc-pkg-module")
	writeFile(t, dir, "calc.wasm", "calc-file-module")

	engine := newStubEngine()
	engine.instances["calc-pkg-module"] = &stubInstance{
		describe: declJSON("Calculator", "any"),
		ops:      map[string]string{"evaluate": `{"result":1}`},
	}
	engine.instances["calc-file-module"] = &stubInstance{
		describe: declJSON("Calculator Clone", "any"),
		ops:      map[string]string{"evaluate": `{"result":2}`},
	}

	l, err := loader.New(engine, loader.WithGate(linuxGate()))
	require.NoError(t, err)

	reg := registry.New()
	report, err := l.LoadAll(context.Background(), dir, reg)
	require.NoError(t, err)

	require.Len(t, report.Loaded, 1)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, "calc.evaluate", report.Conflicts[0].QualifiedName)
	assert.Equal(t, "calc", report.Conflicts[0].HeldBy)

	// Exactly one operation stays registered and it is the first one.
	assert.Equal(t, 1, reg.ToolCount())
	out, err := reg.Invoke(context.Background(), "calc.evaluate", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":1}`, string(out))
	assert.True(t, engine.instances["calc-file-module"].closed)
}

func Test_Loader_DottedDirectoryNameRejected(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "util.box"), 0o755))
	writeFile(t, filepath.Join(dir, "util.box"), "capability.wasm", "util-module")

	engine := newStubEngine()
	engine.instances["util-module"] = &stubInstance{
		describe: declJSON("Utility Box", "any"),
	}

	l, err := loader.New(engine, loader.WithGate(linuxGate()))
	require.NoError(t, err)

	reg := registry.New()
	report, err := l.LoadAll(context.Background(), dir, reg)
	require.NoError(t, err)

	// A directory stem keeps its full name, so the dot must fail name
	// validation rather than register the unit as "util".
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "util.box", report.Failed[0].Identifier)
	assert.ErrorIs(t, report.Failed[0].Err, loader.ErrImportFailed)
	assert.Empty(t, report.Loaded)
	assert.Empty(t, reg.ListCapabilities())
}

func Test_Loader_MetadataOnlyCapability(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "meta.wasm", "meta-module")

	engine := newStubEngine()
	engine.instances["meta-module"] = &stubInstance{
		describe: declJSON("Metadata Only", "any"),
	}

	l, err := loader.New(engine, loader.WithGate(linuxGate()))
	require.NoError(t, err)

	reg := registry.New()
	report, err := l.LoadAll(context.Background(), dir, reg)
	require.NoError(t, err)

	// A unit with no operations still loads: it publishes env and
	// dependency metadata without contributing tools.
	require.Len(t, report.Loaded, 1)
	assert.Empty(t, report.Loaded[0].Operations)
	assert.Zero(t, reg.ToolCount())
	assert.Len(t, reg.ListCapabilities(), 1)
}

func Test_Loader_IgnoreGlobs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "calc.wasm", "calc-module")
	writeFile(t, dir, "calc_test.wasm", "ignored-module")

	engine := newStubEngine()
	engine.instances["calc-module"] = &stubInstance{
		describe: declJSON("Calculator", "any"),
		ops:      map[string]string{"evaluate": `{}`},
	}

	l, err := loader.New(engine,
		loader.WithGate(linuxGate()),
		loader.WithIgnore("*_test.wasm"))
	require.NoError(t, err)

	report, err := l.LoadAll(context.Background(), dir, registry.New())
	require.NoError(t, err)
	require.True(t, report.Clean())
	require.Len(t, report.Loaded, 1)
	assert.Equal(t, "calc", report.Loaded[0].Name.String())
}

func Test_Loader_UnrecognizedEntriesIgnored(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "README.md", "docs")
	writeFile(t, dir, "notes.txt", "notes")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "assets"), 0o755))

	l, err := loader.New(newStubEngine(), loader.WithGate(linuxGate()))
	require.NoError(t, err)

	report, err := l.LoadAll(context.Background(), dir, registry.New())
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Empty(t, report.Loaded)
}

func Test_Loader_DeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "zeta.wasm", "zeta-module")
	writeFile(t, dir, "alpha.wasm", "alpha-module")

	engine := newStubEngine()
	engine.instances["alpha-module"] = &stubInstance{
		describe: declJSON("Alpha", "any"),
		ops:      map[string]string{"run": `{}`},
	}
	engine.instances["zeta-module"] = &stubInstance{
		describe: declJSON("Zeta", "any"),
		ops:      map[string]string{"run": `{}`},
	}

	for range 3 {
		l, err := loader.New(engine, loader.WithGate(linuxGate()))
		require.NoError(t, err)

		reg := registry.New()
		report, err := l.LoadAll(context.Background(), dir, reg)
		require.NoError(t, err)

		require.Len(t, report.Loaded, 2)
		assert.Equal(t, "alpha", report.Loaded[0].Name.String())
		assert.Equal(t, "zeta", report.Loaded[1].Name.String())
		assert.Equal(t, []string{"alpha.run", "zeta.run"}, reg.ListTools())
	}
}

func Test_Loader_Middleware(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "calc.wasm", "calc-module")

	engine := newStubEngine()
	engine.instances["calc-module"] = &stubInstance{
		describe: declJSON("Calculator", "any"),
		ops:      map[string]string{"evaluate": `{}`},
	}

	var calls int
	counting := func(next capability.InvokeFunc) capability.InvokeFunc {
		return func(ctx context.Context, input []byte) ([]byte, error) {
			calls++
			return next(ctx, input)
		}
	}

	l, err := loader.New(engine,
		loader.WithGate(linuxGate()),
		loader.WithMiddleware(counting))
	require.NoError(t, err)

	reg := registry.New()
	_, err = l.LoadAll(context.Background(), dir, reg)
	require.NoError(t, err)

	_, err = reg.Invoke(context.Background(), "calc.evaluate", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func Test_Loader_UnreadableRoot(t *testing.T) {
	l, err := loader.New(newStubEngine())
	require.NoError(t, err)

	_, err = l.LoadAll(context.Background(), filepath.Join(t.TempDir(), "absent"), registry.New())
	assert.Error(t, err)
}

func Test_Loader_ContextCancellation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "calc.wasm", "calc-module")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l, err := loader.New(newStubEngine(), loader.WithGate(linuxGate()))
	require.NoError(t, err)

	_, err = l.LoadAll(ctx, dir, registry.New())
	assert.ErrorIs(t, err, context.Canceled)
}
