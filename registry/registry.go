// Package registry implements the in-memory tool registry: every loaded
// capability's declaration and its operations under qualified names.
package registry

import (
	"context"
	"sync"

	"github.com/agentkit-dev/agentkit/capability"
)

// Conflict records a registration that was refused because its key was
// already taken. First-registered-wins: the existing entry is kept intact.
type Conflict struct {
	// QualifiedName is the duplicated tool key, or "" when a capability
	// stem itself collided without contributing any tools.
	QualifiedName string

	// Capability is the stem whose registration was dropped.
	Capability string

	// HeldBy is the stem that already holds the key.
	HeldBy string
}

// Registry owns the qualified-name tool table and the capability table.
// Registration is serialized through a single mutex; after the load pass
// completes the registry is effectively read-only.
type Registry struct {
	mu        sync.RWMutex
	units     map[string]*capability.Unit
	unitOrder []string
	tools     map[string]capability.Operation
	toolOrder []string
}

// New creates an empty registry. There is no process-wide instance: whoever
// runs the load pass owns the registry and hands it to the reconcilers.
func New() *Registry {
	return &Registry{
		units: make(map[string]*capability.Unit),
		tools: make(map[string]capability.Operation),
	}
}

// Register adds a unit and its operations under qualified names
// ("<stem>.<operation>"). Duplicate keys are refused and reported as
// conflicts; the unit's remaining state is untouched. Registration order is
// preserved for listing.
func (r *Registry) Register(unit *capability.Unit) []Conflict {
	r.mu.Lock()
	defer r.mu.Unlock()

	stem := unit.Name.String()

	if existing, taken := r.units[stem]; taken {
		return r.conflictsFor(unit, existing.Name.String())
	}

	r.units[stem] = unit
	r.unitOrder = append(r.unitOrder, stem)

	for _, op := range unit.Operations {
		qualified := unit.Name.Qualified(op.Name)
		// A stem is unique here, so its qualified names are too; the
		// check stays as the registry's own invariant, not the caller's.
		if _, taken := r.tools[qualified]; taken {
			continue
		}
		r.tools[qualified] = op
		r.toolOrder = append(r.toolOrder, qualified)
	}

	return nil
}

// conflictsFor reports one conflict per operation of a refused unit, or a
// single stem-level conflict when the unit has no operations.
func (r *Registry) conflictsFor(unit *capability.Unit, heldBy string) []Conflict {
	stem := unit.Name.String()
	if len(unit.Operations) == 0 {
		return []Conflict{{Capability: stem, HeldBy: heldBy}}
	}

	conflicts := make([]Conflict, 0, len(unit.Operations))
	for _, op := range unit.Operations {
		conflicts = append(conflicts, Conflict{
			QualifiedName: unit.Name.Qualified(op.Name),
			Capability:    stem,
			HeldBy:        heldBy,
		})
	}
	return conflicts
}

// GetTool retrieves an operation by its exact qualified name. No fuzzy or
// prefix resolution.
func (r *Registry) GetTool(qualified string) (capability.Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.tools[qualified]
	return op, ok
}

// Invoke looks up a tool and calls it, tagging the context with the
// qualified name for middleware visibility.
func (r *Registry) Invoke(ctx context.Context, qualified string, input []byte) ([]byte, error) {
	op, ok := r.GetTool(qualified)
	if !ok {
		return nil, &NotFoundError{QualifiedName: qualified}
	}
	return op.Invoke(capability.ContextWithQualifiedName(ctx, qualified), input)
}

// ListTools returns all qualified tool names in registration order.
func (r *Registry) ListTools() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.toolOrder))
	copy(out, r.toolOrder)
	return out
}

// CapabilityInfo pairs a capability's identifier with its declaration.
type CapabilityInfo struct {
	Name        string
	Declaration capability.Declaration
}

// ListCapabilities returns every registered capability in registration
// order.
func (r *Registry) ListCapabilities() []CapabilityInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]CapabilityInfo, 0, len(r.unitOrder))
	for _, stem := range r.unitOrder {
		out = append(out, CapabilityInfo{
			Name:        stem,
			Declaration: r.units[stem].Declaration,
		})
	}
	return out
}

// Unit retrieves a registered unit by stem.
func (r *Registry) Unit(name string) (*capability.Unit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.units[name]
	return u, ok
}

// ToolCount returns the number of registered tools.
func (r *Registry) ToolCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
