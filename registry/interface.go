package registry

import "fmt"

// DeclarationSource is the read-only view the environment reconciler and
// dependency auditor consume: declarations in registration order.
type DeclarationSource interface {
	ListCapabilities() []CapabilityInfo
}

// NotFoundError indicates a qualified tool name with no registration.
type NotFoundError struct {
	QualifiedName string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool not found: %s", e.QualifiedName)
}
