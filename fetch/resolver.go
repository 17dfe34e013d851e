package fetch

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
)

// SemverResolver picks an exact version from a tag list for a constraint.
type SemverResolver struct{}

// NewSemverResolver creates a SemverResolver.
func NewSemverResolver() *SemverResolver {
	return &SemverResolver{}
}

// Resolve returns the highest available version satisfying the constraint.
// "latest" means the highest version of any. Tags that are not valid semver
// are ignored.
func (r *SemverResolver) Resolve(constraint string, available []string) (string, error) {
	expr := constraint
	if expr == "latest" {
		expr = ">= 0"
	}
	c, err := semver.NewConstraint(expr)
	if err != nil {
		return "", fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}

	var matching []*semver.Version
	for _, tag := range available {
		v, err := semver.NewVersion(tag)
		if err != nil {
			continue
		}
		if c.Check(v) {
			matching = append(matching, v)
		}
	}
	if len(matching) == 0 {
		return "", fmt.Errorf("no available version satisfies %q", constraint)
	}

	sort.Sort(semver.Collection(matching))
	return matching[len(matching)-1].Original(), nil
}
