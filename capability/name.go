package capability

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Name represents a validated capability identifier: the file or directory
// stem a unit was loaded from. It is the namespace half of every qualified
// tool name, so it is deliberately stricter than the declaration's
// human-readable name field.
type Name struct {
	value string
}

// NewName creates a Name with strict validation.
// A valid capability name must:
// - be non-empty after trimming
// - contain only alphanumeric characters, underscores, and hyphens
// - be at most 64 characters long
func NewName(name string) (Name, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Name{}, fmt.Errorf("capability name cannot be empty")
	}

	if len(name) > 64 {
		return Name{}, fmt.Errorf("capability name too long (max 64 chars)")
	}

	if strings.ContainsAny(name, `/\`) {
		return Name{}, fmt.Errorf("capability name cannot contain path separators")
	}

	if strings.Contains(name, "..") {
		return Name{}, fmt.Errorf("capability name cannot contain parent directory references")
	}

	for _, ch := range name {
		if !isValidNameChar(ch) {
			return Name{}, fmt.Errorf("invalid capability name %q: must contain only alphanumeric characters, underscores, and hyphens", name)
		}
	}

	return Name{value: name}, nil
}

func isValidNameChar(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') ||
		r == '_' ||
		r == '-'
}

// MustNewName creates a Name or panics.
func MustNewName(name string) Name {
	n, err := NewName(name)
	if err != nil {
		panic(err)
	}
	return n
}

// NameFromPath derives a Name from a single-file unit's path: the base file
// name with its extension stripped. Directory stems keep their full name and
// go through NewName directly, so a dotted directory fails validation
// instead of silently losing its suffix.
func NameFromPath(path string) (Name, error) {
	stem := filepath.Base(path)
	if ext := filepath.Ext(stem); ext != "" {
		stem = strings.TrimSuffix(stem, ext)
	}
	return NewName(stem)
}

// String returns the string representation.
func (n Name) String() string {
	return n.value
}

// IsEmpty returns true if this is the zero value.
func (n Name) IsEmpty() bool {
	return n.value == ""
}

// Equals checks if two capability names are equal.
func (n Name) Equals(other Name) bool {
	return n.value == other.value
}

// Qualified returns the registry key for one of this capability's
// operations: "<name>.<operation>".
func (n Name) Qualified(operation string) string {
	return n.value + "." + operation
}

// MarshalJSON implements json.Marshaler.
func (n Name) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Name) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	name, err := NewName(s)
	if err != nil {
		return err
	}
	*n = name
	return nil
}
