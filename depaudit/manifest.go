package depaudit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RenderManifest renders the aggregated requirements as a plain-text
// manifest, one specifier per line, sorted and de-duplicated.
func RenderManifest(agg *Aggregated) string {
	specs := make([]string, 0, len(agg.Requirements))
	for _, req := range agg.Requirements {
		specs = append(specs, req.Specifier)
	}
	sort.Strings(specs)

	var b strings.Builder
	for _, spec := range specs {
		b.WriteString(spec)
		b.WriteString("\n")
	}
	return b.String()
}

// WriteManifest renders the manifest and writes it to path.
func WriteManifest(agg *Aggregated, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create manifest directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(RenderManifest(agg)), 0o644); err != nil {
		return fmt.Errorf("write dependency manifest: %w", err)
	}
	return nil
}
