package depaudit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentkit-dev/agentkit/capability"
	"github.com/agentkit-dev/agentkit/depaudit"
	"github.com/agentkit-dev/agentkit/registry"
)

type declSource []registry.CapabilityInfo

func (s declSource) ListCapabilities() []registry.CapabilityInfo { return s }

func info(name string, deps ...string) registry.CapabilityInfo {
	return registry.CapabilityInfo{
		Name: name,
		Declaration: capability.Declaration{
			Name:         name,
			Description:  name + " capability",
			Dependencies: deps,
		},
	}
}

// mapInspector reports installed tools from a fixed set.
type mapInspector map[string]bool

func (m mapInspector) Installed(_ context.Context, name string) bool { return m[name] }

func Test_Aggregate(t *testing.T) {
	agg := depaudit.Aggregate(declSource{
		info("search", "ripgrep", "jq>=1.6"),
		info("convert", "jq>=1.6", "pandoc"),
		info("noisy", "ripgrep", "ripgrep"),
	})

	require.Len(t, agg.Requirements, 3)

	assert.Equal(t, "ripgrep", agg.Requirements[0].Specifier)
	assert.Equal(t, []string{"search", "noisy"}, agg.Requirements[0].DeclaredBy)

	assert.Equal(t, "jq>=1.6", agg.Requirements[1].Specifier)
	assert.Equal(t, []string{"search", "convert"}, agg.Requirements[1].DeclaredBy)

	assert.Equal(t, "pandoc", agg.Requirements[2].Specifier)
}

func Test_ToolName(t *testing.T) {
	tests := []struct {
		specifier string
		want      string
	}{
		{"ripgrep", "ripgrep"},
		{"jq>=1.6", "jq"},
		{"pandoc >= 2.0", "pandoc"},
		{"node^18", "node"},
		{"ffmpeg@5", "ffmpeg"},
		{"  spaced  ", "spaced"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, depaudit.ToolName(tt.specifier))
	}
}

func Test_Auditor_Audit(t *testing.T) {
	agg := depaudit.Aggregate(declSource{
		info("search", "ripgrep", "jq>=1.6"),
		info("convert", "pandoc"),
	})

	auditor := depaudit.NewAuditor(depaudit.WithInspector(mapInspector{
		"ripgrep": true,
		"jq":      true,
	}))
	result := auditor.Audit(context.Background(), agg)

	assert.False(t, result.Ok())
	require.Len(t, result.Installed, 2)
	require.Len(t, result.Missing, 1)
	assert.Equal(t, "pandoc", result.Missing[0].Specifier)
	assert.Equal(t, []string{"convert"}, result.Missing[0].DeclaredBy)
}

func Test_Auditor_Audit_AllInstalled(t *testing.T) {
	agg := depaudit.Aggregate(declSource{info("search", "ripgrep")})

	result := depaudit.NewAuditor(depaudit.WithInspector(mapInspector{"ripgrep": true})).
		Audit(context.Background(), agg)
	assert.True(t, result.Ok())
}

func Test_RenderManifest(t *testing.T) {
	agg := depaudit.Aggregate(declSource{
		info("b", "zlib", "ripgrep"),
		info("a", "jq>=1.6", "ripgrep"),
	})

	out := depaudit.RenderManifest(agg)
	assert.Equal(t, "jq>=1.6\nripgrep\nzlib\n", out, "sorted and de-duplicated")
}

func Test_RenderManifest_Empty(t *testing.T) {
	out := depaudit.RenderManifest(depaudit.Aggregate(declSource{info("bare")}))
	assert.Empty(t, out)
}
