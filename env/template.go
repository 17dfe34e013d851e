package env

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentkit-dev/agentkit/registry"
)

// RenderTemplate renders the aggregated variables as a documented dotenv
// template: one block per variable with its description, requirement,
// default, declaring capabilities, and any conflict annotation.
func (r *Reconciler) RenderTemplate(src registry.DeclarationSource) string {
	var b strings.Builder

	b.WriteString("# Environment template generated by agentkit.\n")
	b.WriteString("# Copy to .env and fill in the required values.\n")

	for _, v := range r.BuildTemplate(src) {
		b.WriteString("\n")

		for _, view := range v.Views {
			fmt.Fprintf(&b, "# %s (%s)\n", view.Description, view.Capability)
		}
		fmt.Fprintf(&b, "# Declared by: %s\n", strings.Join(v.DeclaredBy, ", "))
		if v.Conflicting {
			fmt.Fprintf(&b, "# CONFLICT: %s\n", conflictFor(v).Detail)
		}

		switch {
		case v.Required && v.Default == nil:
			fmt.Fprintf(&b, "# Required.\n%s=\n", v.Name)
		case v.Default != nil:
			fmt.Fprintf(&b, "%s=%s\n", v.Name, *v.Default)
		default:
			fmt.Fprintf(&b, "# Optional, no default.\n# %s=\n", v.Name)
		}
	}

	return b.String()
}

// WriteTemplate renders the template and writes it to path.
func (r *Reconciler) WriteTemplate(src registry.DeclarationSource, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create template directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(r.RenderTemplate(src)), 0o600); err != nil {
		return fmt.Errorf("write env template: %w", err)
	}
	r.logger.Info("environment template written", "path", path)
	return nil
}
