// Package loader discovers capability units in a directory, imports each in
// isolation, and registers the survivors' operations with a tool registry.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/agentkit-dev/agentkit/capability"
	"github.com/agentkit-dev/agentkit/host"
	"github.com/agentkit-dev/agentkit/parser"
	"github.com/agentkit-dev/agentkit/registry"
)

const (
	// unitExtension is the recognized extension for single-file units.
	unitExtension = ".wasm"

	// packageEntryFile is the entry file a package unit's directory must
	// contain.
	packageEntryFile = "capability.wasm"
)

// manifestFiles are the companion declaration files a package unit may
// carry, in probe order. When present, the manifest overrides the module's
// embedded declaration.
var manifestFiles = []string{"capability.yaml", "capability.yml", "capability.json"}

// Loader walks a root directory and turns its entries into registered
// capability units. One broken candidate never prevents the rest from
// loading.
type Loader struct {
	engine      host.Engine
	validator   *capability.Validator
	gate        *capability.Gate
	logger      *slog.Logger
	ignore      []string
	middlewares []capability.Middleware

	// jsonParser decodes describe output; the manifest parsers add schema
	// validation on top for on-disk declaration files.
	jsonParser         parser.DocumentParser
	yamlParser         parser.DocumentParser
	jsonManifestParser parser.DocumentParser
}

// Option configures a Loader.
type Option func(*Loader)

// WithValidator replaces the default declaration validator.
func WithValidator(v *capability.Validator) Option {
	return func(l *Loader) { l.validator = v }
}

// WithGate replaces the default compatibility gate.
func WithGate(g *capability.Gate) Option {
	return func(l *Loader) { l.gate = g }
}

// WithLogger sets the loader's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithIgnore adds glob patterns (doublestar syntax) for directory entries
// the walk should not consider candidates.
func WithIgnore(globs ...string) Option {
	return func(l *Loader) { l.ignore = append(l.ignore, globs...) }
}

// WithMiddleware wraps every registered operation with the given
// middlewares, in FIFO order.
func WithMiddleware(middlewares ...capability.Middleware) Option {
	return func(l *Loader) { l.middlewares = append(l.middlewares, middlewares...) }
}

// New creates a Loader over the given engine. The default gate admits
// capabilities matching the current GOOS and the host ABI version.
func New(engine host.Engine, opts ...Option) (*Loader, error) {
	l := &Loader{
		engine: engine,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.validator == nil {
		l.validator = capability.NewValidator(capability.WithValidatorLogger(l.logger))
	}
	if l.gate == nil {
		l.gate = capability.NewGate(capability.Host{
			Platform:       runtime.GOOS,
			RuntimeVersion: host.ABIVersion,
		}, capability.WithGateLogger(l.logger))
	}

	l.jsonParser = parser.NewJSONDocumentParser()

	validating, err := parser.NewValidatingParser(parser.NewYamlDocumentParser())
	if err != nil {
		return nil, fmt.Errorf("build manifest parser: %w", err)
	}
	l.yamlParser = validating

	validatingJSON, err := parser.NewValidatingParser(parser.NewJSONDocumentParser())
	if err != nil {
		return nil, fmt.Errorf("build manifest parser: %w", err)
	}
	l.jsonManifestParser = validatingJSON

	return l, nil
}

// LoadAll walks root in lexicographic order, imports every candidate in
// isolation, and registers each surviving unit with reg. It returns a
// report of what loaded, what was skipped, and what failed. The only
// terminal error is an unreadable root directory or a canceled context.
func (l *Loader) LoadAll(ctx context.Context, root string, reg *registry.Registry) (*Report, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read capability directory: %w", err)
	}

	report := &Report{}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		cand, ok := l.candidateFor(root, entry)
		if !ok {
			continue
		}

		l.loadCandidate(ctx, cand, reg, report)
	}

	return report, nil
}

// candidate is one directory entry worth importing.
type candidate struct {
	identifier string // the raw entry name, for diagnostics
	wasmPath   string
	manifest   string // companion manifest path, "" when absent
	kind       capability.SourceKind
}

// candidateFor decides whether a directory entry is a loadable unit.
// Anything unrecognized is ignored silently.
func (l *Loader) candidateFor(root string, entry os.DirEntry) (candidate, bool) {
	name := entry.Name()

	for _, glob := range l.ignore {
		if matched, _ := doublestar.Match(glob, name); matched {
			return candidate{}, false
		}
	}

	if entry.IsDir() {
		wasmPath := filepath.Join(root, name, packageEntryFile)
		if _, err := os.Stat(wasmPath); err != nil {
			return candidate{}, false
		}
		return candidate{
			identifier: name,
			wasmPath:   wasmPath,
			manifest:   l.findManifest(filepath.Join(root, name)),
			kind:       capability.SourcePackage,
		}, true
	}

	if !entry.Type().IsRegular() || !strings.HasSuffix(name, unitExtension) {
		return candidate{}, false
	}
	return candidate{
		identifier: name,
		wasmPath:   filepath.Join(root, name),
		kind:       capability.SourceFile,
	}, true
}

func (l *Loader) findManifest(dir string) string {
	for _, name := range manifestFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// loadCandidate runs one candidate through import, declaration extraction,
// validation, the compatibility gate, and registration. Every failure mode
// is recorded on the report; nothing propagates.
func (l *Loader) loadCandidate(ctx context.Context, cand candidate, reg *registry.Registry, report *Report) {
	stem, err := cand.stemName()
	if err != nil {
		report.Failed = append(report.Failed, Failure{
			Identifier: cand.identifier,
			Err:        &ImportError{Identifier: cand.identifier, Cause: err},
		})
		return
	}

	wasm, err := os.ReadFile(cand.wasmPath)
	if err != nil {
		report.Failed = append(report.Failed, Failure{
			Identifier: cand.identifier,
			Err:        &ImportError{Identifier: cand.identifier, Cause: err},
		})
		return
	}

	inst, err := l.engine.Instantiate(ctx, wasm)
	if err != nil {
		report.Failed = append(report.Failed, Failure{
			Identifier: cand.identifier,
			Err:        &ImportError{Identifier: cand.identifier, Cause: err},
		})
		return
	}

	doc, err := l.extractDocument(ctx, cand, inst)
	if err != nil {
		_ = inst.Close(ctx)
		report.Failed = append(report.Failed, Failure{Identifier: cand.identifier, Err: err})
		return
	}

	decl, err := l.validator.Validate(stem.String(), doc)
	if err != nil {
		_ = inst.Close(ctx)
		report.Failed = append(report.Failed, Failure{Identifier: cand.identifier, Err: err})
		return
	}

	if ok, reason := l.gate.Check(decl); !ok {
		_ = inst.Close(ctx)
		report.Skipped = append(report.Skipped, Skip{Identifier: cand.identifier, Reason: reason})
		l.logger.Info("capability skipped", "capability", stem.String(), "reason", reason)
		return
	}

	unit := &capability.Unit{
		Name:        stem,
		Declaration: decl,
		Operations:  l.operationsFor(stem, inst),
		SourceKind:  cand.kind,
		Path:        cand.wasmPath,
	}

	if conflicts := reg.Register(unit); len(conflicts) > 0 {
		_ = inst.Close(ctx)
		report.Conflicts = append(report.Conflicts, conflicts...)
		for _, c := range conflicts {
			l.logger.Warn("duplicate registration dropped",
				"qualified_name", c.QualifiedName,
				"capability", c.Capability,
				"held_by", c.HeldBy)
		}
		return
	}

	report.Loaded = append(report.Loaded, unit)
	l.logger.Debug("capability loaded",
		"capability", stem.String(),
		"operations", len(unit.Operations),
		"source", string(cand.kind))
}

// extractDocument reads the declaration: the companion manifest when the
// package carries one, the module's describe export otherwise.
func (l *Loader) extractDocument(ctx context.Context, cand candidate, inst host.Instance) (*capability.Document, error) {
	if cand.manifest != "" {
		data, err := os.ReadFile(cand.manifest)
		if err != nil {
			return nil, &MissingDeclarationError{Identifier: cand.identifier, Cause: err}
		}
		doc, err := l.manifestParserFor(cand.manifest).Parse(data)
		if err != nil {
			return nil, &MissingDeclarationError{Identifier: cand.identifier, Cause: err}
		}
		return doc, nil
	}

	raw, err := inst.Describe(ctx)
	if err != nil {
		return nil, &MissingDeclarationError{Identifier: cand.identifier, Cause: err}
	}
	doc, err := l.jsonParser.Parse(raw)
	if err != nil {
		return nil, &MissingDeclarationError{Identifier: cand.identifier, Cause: err}
	}
	return doc, nil
}

func (l *Loader) manifestParserFor(path string) parser.DocumentParser {
	if strings.HasSuffix(path, ".json") {
		return l.jsonManifestParser
	}
	return l.yamlParser
}

// operationsFor builds the unit's operation list from the instance's
// exports, already in lexicographic order, with the loader's middleware
// chain applied. A unit with zero operations is valid: it may exist purely
// to publish environment and dependency metadata.
func (l *Loader) operationsFor(stem capability.Name, inst host.Instance) []capability.Operation {
	names := inst.Operations()
	ops := make([]capability.Operation, 0, len(names))
	for _, name := range names {
		opName := name
		invoke := capability.InvokeFunc(func(ctx context.Context, input []byte) ([]byte, error) {
			return inst.Invoke(ctx, opName, input)
		})
		ops = append(ops, capability.Operation{
			Name:   opName,
			Invoke: capability.Chain(invoke, l.middlewares...),
		})
	}
	return ops
}

// stemName derives the unit's capability name. Extension stripping applies
// only to single-file units; a package directory's name is taken verbatim,
// so "util.box/" fails name validation instead of registering as "util".
func (c candidate) stemName() (capability.Name, error) {
	if c.kind == capability.SourcePackage {
		return capability.NewName(c.identifier)
	}
	return capability.NameFromPath(c.wasmPath)
}
