package capability

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Sentinel errors for common error patterns.
// These allow both errors.Is() checks and errors.As() for detail.
var (
	// ErrInvalidDeclaration is returned when a declaration document fails
	// validation.
	ErrInvalidDeclaration = errors.New("invalid declaration")
)

// ValidationError indicates a malformed declaration field. It carries the
// capability's on-disk identifier and the first failing field path.
type ValidationError struct {
	Capability string
	Field      string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("capability %q: field %q: %s", e.Capability, e.Field, e.Reason)
}

// Is implements error matching for errors.Is() checks.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidDeclaration
}

// Validator checks one capability's declaration document in isolation and
// produces an immutable Declaration.
type Validator struct {
	logger *slog.Logger
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithValidatorLogger sets the logger used for non-fatal warnings.
func WithValidatorLogger(l *slog.Logger) ValidatorOption {
	return func(v *Validator) { v.logger = l }
}

// NewValidator creates a Validator with the given options.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{logger: slog.Default()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks a raw declaration document. id is the capability's on-disk
// identifier (its stem), used in error reports and warnings.
//
// name and description are required non-empty strings; everything else is
// optional. Each environment variable entry needs at least a description.
// Malformed dependency entries are dropped with a warning rather than
// failing the declaration: one bad dependency string must not block a
// capability's tools.
func (v *Validator) Validate(id string, doc *Document) (Declaration, error) {
	if doc == nil {
		return Declaration{}, &ValidationError{Capability: id, Field: "(root)", Reason: "declaration document is empty"}
	}

	if strings.TrimSpace(doc.Name) == "" {
		return Declaration{}, &ValidationError{Capability: id, Field: "name", Reason: "required non-empty string"}
	}
	if strings.TrimSpace(doc.Description) == "" {
		return Declaration{}, &ValidationError{Capability: id, Field: "description", Reason: "required non-empty string"}
	}

	decl := Declaration{
		Name:            doc.Name,
		Description:     doc.Description,
		Author:          doc.Author,
		Version:         doc.Version,
		Platform:        normalizePlatform(doc.Platform),
		RuntimeRequires: strings.TrimSpace(doc.RuntimeRequires),
	}

	deps, err := v.validateDependencies(id, doc.Dependencies)
	if err != nil {
		return Declaration{}, err
	}
	decl.Dependencies = deps

	if len(doc.EnvVars) > 0 {
		vars := make(map[string]EnvVar, len(doc.EnvVars))
		for name, spec := range doc.EnvVars {
			if strings.TrimSpace(name) == "" {
				return Declaration{}, &ValidationError{
					Capability: id,
					Field:      "environment_variables",
					Reason:     "variable name cannot be empty",
				}
			}
			if strings.TrimSpace(spec.Description) == "" {
				return Declaration{}, &ValidationError{
					Capability: id,
					Field:      "environment_variables." + name + ".description",
					Reason:     "required non-empty string",
				}
			}
			ev := EnvVar{Description: spec.Description, Default: spec.Default}
			if spec.Required != nil {
				ev.Required = *spec.Required
			}
			vars[name] = ev
		}
		decl.EnvVars = vars
	}

	return decl, nil
}

// validateDependencies keeps well-formed specifier strings and drops the
// rest with a warning.
func (v *Validator) validateDependencies(id string, raw []any) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	deps := make([]string, 0, len(raw))
	for i, entry := range raw {
		s, ok := entry.(string)
		if !ok || strings.TrimSpace(s) == "" {
			v.logger.Warn("dropping malformed dependency entry",
				"capability", id,
				"index", i,
				"entry", fmt.Sprintf("%v", entry))
			continue
		}
		deps = append(deps, strings.TrimSpace(s))
	}
	if len(deps) == 0 {
		return nil, nil
	}
	return deps, nil
}

// normalizePlatform lowercases the declared platform and maps the empty
// string to PlatformAny. Unrecognized values are kept as declared: they
// simply never match a host and the gate skips the capability.
func normalizePlatform(p string) Platform {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		return PlatformAny
	}
	return Platform(p)
}
