// Package env reconciles the environment-variable requirements declared by
// loaded capabilities against each other and against the live environment.
package env

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/agentkit-dev/agentkit/capability"
	"github.com/agentkit-dev/agentkit/registry"
)

// View is one capability's declared view of a variable.
type View struct {
	Capability  string
	Description string
	Required    bool
	Default     *string
}

// Variable is the aggregated, conflict-annotated view of one environment
// variable across every capability that declares it.
type Variable struct {
	Name string

	// DeclaredBy lists declaring capabilities in registration order.
	DeclaredBy []string

	// Required is true when any declarer marks the variable required.
	Required bool

	// Default is the first declared fallback value, nil when none exists.
	Default *string

	// Views holds each declarer's spec, in registration order.
	Views []View

	// Conflicting is true when declarers disagree on required or default.
	Conflicting bool
}

// Conflict reports two capabilities declaring the same variable with
// materially different specs. Conflicts are surfaced, never fatal.
type Conflict struct {
	Variable string
	Detail   string
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s: %s", c.Variable, c.Detail)
}

// Result is the outcome of validating the live environment.
type Result struct {
	// MissingRequired lists variables some declarer requires that are
	// absent from the live environment with no declared default.
	MissingRequired []string

	Conflicts []Conflict
}

// Ok reports whether the environment satisfies every required variable.
func (r Result) Ok() bool {
	return len(r.MissingRequired) == 0
}

// LookupFunc reads one variable from a live environment.
type LookupFunc func(name string) (string, bool)

// OSLookup reads from the process environment.
func OSLookup(name string) (string, bool) {
	return os.LookupEnv(name)
}

// MapLookup adapts a fixed map, mainly for tests.
func MapLookup(values map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	}
}

// Reconciler aggregates declared environment requirements from a registry.
type Reconciler struct {
	logger *slog.Logger
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithLogger sets the reconciler's logger.
func WithLogger(l *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) { r.logger = l }
}

// NewReconciler creates a Reconciler.
func NewReconciler(opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Aggregate buckets every declared variable across the registry's
// capabilities, in registration order; within one pass variables keep
// first-seen order.
func (r *Reconciler) Aggregate(src registry.DeclarationSource) []Variable {
	var order []string
	buckets := make(map[string]*Variable)

	for _, info := range src.ListCapabilities() {
		for _, name := range sortedVarNames(info.Declaration.EnvVars) {
			spec := info.Declaration.EnvVars[name]
			bucket, seen := buckets[name]
			if !seen {
				bucket = &Variable{Name: name}
				buckets[name] = bucket
				order = append(order, name)
			}

			bucket.DeclaredBy = append(bucket.DeclaredBy, info.Name)
			bucket.Views = append(bucket.Views, View{
				Capability:  info.Name,
				Description: spec.Description,
				Required:    spec.Required,
				Default:     spec.Default,
			})
			if spec.Required {
				bucket.Required = true
			}
			if bucket.Default == nil && spec.Default != nil {
				bucket.Default = spec.Default
			}
		}
	}

	out := make([]Variable, 0, len(order))
	for _, name := range order {
		bucket := buckets[name]
		bucket.Conflicting = viewsConflict(bucket.Views)
		out = append(out, *bucket)
	}
	return out
}

// BuildTemplate is the template-facing view of Aggregate.
func (r *Reconciler) BuildTemplate(src registry.DeclarationSource) []Variable {
	return r.Aggregate(src)
}

// Validate checks the live environment against the aggregated requirements.
// A variable is missing iff at least one declarer marks it required, it is
// absent from the live environment, and no declarer supplies a default.
func (r *Reconciler) Validate(src registry.DeclarationSource, lookup LookupFunc) Result {
	if lookup == nil {
		lookup = OSLookup
	}

	var result Result
	for _, v := range r.Aggregate(src) {
		if v.Conflicting {
			result.Conflicts = append(result.Conflicts, conflictFor(v))
		}
		if !v.Required {
			continue
		}
		if _, present := lookup(v.Name); present {
			continue
		}
		if v.Default != nil {
			continue
		}
		result.MissingRequired = append(result.MissingRequired, v.Name)
	}
	return result
}

// conflictFor describes how a variable's declarers disagree.
func conflictFor(v Variable) Conflict {
	required := make([]string, 0, len(v.Views))
	optional := make([]string, 0, len(v.Views))
	for _, view := range v.Views {
		if view.Required {
			required = append(required, view.Capability)
		} else {
			optional = append(optional, view.Capability)
		}
	}

	if len(required) > 0 && len(optional) > 0 {
		return Conflict{
			Variable: v.Name,
			Detail: fmt.Sprintf("required by %v but optional for %v",
				required, optional),
		}
	}
	return Conflict{
		Variable: v.Name,
		Detail:   fmt.Sprintf("declarers %v disagree on the default value", v.DeclaredBy),
	}
}

// viewsConflict reports whether declarers materially disagree: mixed
// required flags, or differing declared defaults.
func viewsConflict(views []View) bool {
	if len(views) < 2 {
		return false
	}

	first := views[0]
	for _, view := range views[1:] {
		if view.Required != first.Required {
			return true
		}
		if !equalDefault(view.Default, first.Default) {
			return true
		}
	}
	return false
}

func equalDefault(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// sortedVarNames orders one declaration's variable names; declarations use
// a map, so sorting is what keeps aggregation deterministic.
func sortedVarNames(vars map[string]capability.EnvVar) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
