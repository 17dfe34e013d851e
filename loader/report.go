package loader

import (
	"github.com/agentkit-dev/agentkit/capability"
	"github.com/agentkit-dev/agentkit/registry"
)

// Skip records a candidate the compatibility gate turned away. Skips are
// notices, not errors.
type Skip struct {
	Identifier string
	Reason     string
}

// Failure records a candidate that could not be loaded, with the offending
// identifier and a human-readable cause.
type Failure struct {
	Identifier string
	Err        error
}

// Report is the outcome of one load pass. All slices are in directory
// listing order, so two passes over an unchanged directory produce
// identical reports.
type Report struct {
	Loaded    []*capability.Unit
	Skipped   []Skip
	Failed    []Failure
	Conflicts []registry.Conflict
}

// Clean reports whether the pass had no failures and no conflicts. An
// empty directory is clean: zero loaded capabilities is a valid outcome.
func (r *Report) Clean() bool {
	return len(r.Failed) == 0 && len(r.Conflicts) == 0
}
