package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentkit-dev/agentkit/depaudit"
	"github.com/agentkit-dev/agentkit/env"
	"github.com/agentkit-dev/agentkit/registry"
)

var checkManifest string

// checkCmd runs every host-side readiness check.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check host dependencies and required environment",
	Long: `Aggregate the requirements declared by every loaded capability and check
them against this host: external tool dependencies must resolve on PATH,
and required environment variables must be set or carry a default.

With --manifest, the de-duplicated dependency specifier list is also
written to a file, one per line. The command exits non-zero on any
shortfall.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkManifest, "manifest", "",
		"write the aggregated dependency manifest to a file")
}

func runCheck(cmd *cobra.Command, args []string) error {
	reg, _, err := loadCapabilities(cmd)
	if err != nil {
		return err
	}

	if checkManifest != "" {
		if err := depaudit.WriteManifest(depaudit.Aggregate(reg), checkManifest); err != nil {
			return err
		}
	}

	return runChecks(cmd.Context(), reg, depaudit.NewAuditor(), env.OSLookup, cmd.OutOrStdout())
}

// runChecks audits declared dependencies and validates the required
// environment. The returned error carries the combined shortfall.
func runChecks(ctx context.Context, reg registry.DeclarationSource, auditor *depaudit.Auditor, lookup env.LookupFunc, out io.Writer) error {
	deps := auditor.Audit(ctx, depaudit.Aggregate(reg))
	for _, req := range deps.Installed {
		fmt.Fprintf(out, "ok       %s\n", req.Specifier)
	}
	for _, req := range deps.Missing {
		fmt.Fprintf(out, "missing  %s (declared by %s)\n",
			req.Specifier, strings.Join(req.DeclaredBy, ", "))
	}

	vars := env.NewReconciler().Validate(reg, lookup)
	for _, name := range vars.MissingRequired {
		fmt.Fprintf(out, "missing  %s (environment variable)\n", name)
	}

	var shortfalls []string
	if len(deps.Missing) > 0 {
		shortfalls = append(shortfalls, fmt.Sprintf("%d declared dependencies", len(deps.Missing)))
	}
	if len(vars.MissingRequired) > 0 {
		shortfalls = append(shortfalls, fmt.Sprintf("%d required environment variables", len(vars.MissingRequired)))
	}
	if len(shortfalls) > 0 {
		return fmt.Errorf("missing %s", strings.Join(shortfalls, " and "))
	}
	return nil
}
