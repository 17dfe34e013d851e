package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SemverResolver_Resolve(t *testing.T) {
	r := NewSemverResolver()
	available := []string{"1.0.0", "1.2.0", "1.4.2", "2.0.0", "not-semver"}

	tests := []struct {
		name       string
		constraint string
		want       string
		wantErr    bool
	}{
		{"caret picks highest in major", "^1.0", "1.4.2", false},
		{"latest picks highest overall", "latest", "2.0.0", false},
		{"exact version", "1.2.0", "1.2.0", false},
		{"range", ">=1.0.0 <2.0.0", "1.4.2", false},
		{"nothing satisfies", "^3.0", "", true},
		{"invalid constraint", "???", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.constraint, available)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_SemverResolver_PreservesOriginalTag(t *testing.T) {
	r := NewSemverResolver()

	got, err := r.Resolve("^1.0", []string{"v1.0.0", "v1.3.0"})
	require.NoError(t, err)
	assert.Equal(t, "v1.3.0", got, "the registry's tag spelling is kept")
}

func Test_SemverResolver_EmptyAvailability(t *testing.T) {
	_, err := NewSemverResolver().Resolve("latest", nil)
	assert.Error(t, err)
}
