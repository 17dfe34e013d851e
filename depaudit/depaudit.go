// Package depaudit aggregates the external tool dependencies declared by
// loaded capabilities and audits which of them the host can actually resolve.
package depaudit

import (
	"context"
	"log/slog"
	"os/exec"
	"slices"
	"strings"

	"github.com/agentkit-dev/agentkit/registry"
)

// Requirement is one dependency specifier and the capabilities declaring it.
type Requirement struct {
	// Specifier is the declared string, e.g. "ripgrep" or "jq>=1.6".
	Specifier string

	// DeclaredBy lists declaring capabilities in registration order,
	// de-duplicated.
	DeclaredBy []string
}

// Aggregated is the merged dependency view across a registry.
type Aggregated struct {
	// Requirements keeps first-declared order.
	Requirements []Requirement
}

// Aggregate merges dependency declarations across the registry's
// capabilities. Identical specifiers collapse into one requirement; a
// capability declaring the same specifier twice counts once.
func Aggregate(src registry.DeclarationSource) *Aggregated {
	var order []string
	buckets := make(map[string]*Requirement)

	for _, info := range src.ListCapabilities() {
		for _, spec := range info.Declaration.Dependencies {
			req, seen := buckets[spec]
			if !seen {
				req = &Requirement{Specifier: spec}
				buckets[spec] = req
				order = append(order, spec)
			}
			if !slices.Contains(req.DeclaredBy, info.Name) {
				req.DeclaredBy = append(req.DeclaredBy, info.Name)
			}
		}
	}

	agg := &Aggregated{Requirements: make([]Requirement, 0, len(order))}
	for _, spec := range order {
		agg.Requirements = append(agg.Requirements, *buckets[spec])
	}
	return agg
}

// Result is the outcome of auditing aggregated requirements against a host.
type Result struct {
	Installed []Requirement
	Missing   []Requirement
}

// Ok reports whether every requirement resolved.
func (r Result) Ok() bool {
	return len(r.Missing) == 0
}

// Inspector answers whether a named tool is available on this host.
type Inspector interface {
	Installed(ctx context.Context, name string) bool
}

// PathInspector resolves tools through the executable search path.
type PathInspector struct{}

// Installed reports whether name resolves to an executable on PATH.
func (PathInspector) Installed(_ context.Context, name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Auditor checks aggregated requirements against an Inspector.
type Auditor struct {
	inspector Inspector
	logger    *slog.Logger
}

// AuditorOption configures an Auditor.
type AuditorOption func(*Auditor)

// WithInspector replaces the default PATH-based inspector.
func WithInspector(i Inspector) AuditorOption {
	return func(a *Auditor) { a.inspector = i }
}

// WithLogger sets the auditor's logger.
func WithLogger(l *slog.Logger) AuditorOption {
	return func(a *Auditor) { a.logger = l }
}

// NewAuditor creates an Auditor. The default inspector is PathInspector.
func NewAuditor(opts ...AuditorOption) *Auditor {
	a := &Auditor{
		inspector: PathInspector{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Audit partitions the aggregated requirements into installed and missing.
// Only the specifier's name part is inspected; version constraints are
// advisory and never checked against the installed tool.
func (a *Auditor) Audit(ctx context.Context, agg *Aggregated) Result {
	var result Result
	for _, req := range agg.Requirements {
		if a.inspector.Installed(ctx, ToolName(req.Specifier)) {
			result.Installed = append(result.Installed, req)
			continue
		}
		result.Missing = append(result.Missing, req)
		a.logger.Warn("declared dependency not found on host",
			"specifier", req.Specifier,
			"declared_by", req.DeclaredBy)
	}
	return result
}

// ToolName extracts the bare tool name from a specifier, cutting at the
// first version-constraint character.
func ToolName(specifier string) string {
	if i := strings.IndexAny(specifier, " <>=!~^@([;"); i >= 0 {
		return strings.TrimSpace(specifier[:i])
	}
	return strings.TrimSpace(specifier)
}
