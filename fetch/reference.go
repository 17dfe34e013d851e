// Package fetch installs capability modules from OCI registries: reference
// resolution, artifact pull, signature verification, and lockfile pinning.
package fetch

import (
	"fmt"
	"strings"
)

// Reference identifies a capability artifact in an OCI registry.
// Format: registry.io/org/repo/name:version.
type Reference struct {
	registry string
	org      string
	repo     string
	name     string
	version  string
}

// ParseReference parses an OCI reference string. The version part may be an
// exact tag or a semver constraint resolved at install time.
func ParseReference(ref string) (Reference, error) {
	parts := strings.Split(ref, "/")
	if len(parts) < 4 {
		return Reference{}, fmt.Errorf("invalid capability reference %q: want registry/org/repo/name:version", ref)
	}

	name, version, found := strings.Cut(parts[len(parts)-1], ":")
	if !found || name == "" || version == "" {
		return Reference{}, fmt.Errorf("invalid capability reference %q: missing version tag", ref)
	}

	return Reference{
		registry: parts[0],
		org:      strings.Join(parts[1:len(parts)-2], "/"),
		repo:     parts[len(parts)-2],
		name:     name,
		version:  version,
	}, nil
}

// String returns the canonical reference string.
func (r Reference) String() string {
	return r.Repository() + ":" + r.version
}

// Repository returns the reference without its version tag.
func (r Reference) Repository() string {
	return fmt.Sprintf("%s/%s/%s/%s", r.registry, r.org, r.repo, r.name)
}

// Name returns the capability name.
func (r Reference) Name() string { return r.name }

// Version returns the version part, tag or constraint.
func (r Reference) Version() string { return r.version }

// Registry returns the registry hostname.
func (r Reference) Registry() string { return r.registry }

// WithVersion returns a copy of the reference pinned to an exact version.
func (r Reference) WithVersion(version string) Reference {
	r.version = version
	return r
}

// VersionIsConstraint reports whether the version part needs resolution
// against the repository's tag list before pulling.
func (r Reference) VersionIsConstraint() bool {
	if r.version == "latest" {
		return true
	}
	return strings.ContainsAny(r.version, "^~><=*|, ")
}

// Equals checks equality with another reference.
func (r Reference) Equals(other Reference) bool {
	return r == other
}
