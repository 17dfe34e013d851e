package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentkit-dev/agentkit/env"
	"github.com/agentkit-dev/agentkit/loader"
)

// summaryCmd prints the outcome of a load pass.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize a load pass",
	Long: `Load the capability directory and report what loaded, what was skipped
as incompatible, what failed, and which tool names collided, followed by
the aggregated environment variables the loaded capabilities declare.`,
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	reg, report, err := loadCapabilities(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Loaded:    %d capabilities (%d tools)\n", len(report.Loaded), reg.ToolCount())
	fmt.Fprintf(out, "Skipped:   %d\n", len(report.Skipped))
	fmt.Fprintf(out, "Failed:    %d\n", len(report.Failed))
	fmt.Fprintf(out, "Conflicts: %d\n", len(report.Conflicts))

	if vars := env.NewReconciler().Aggregate(reg); len(vars) > 0 {
		fmt.Fprintln(out, "Environment:")
		printEnvSummary(out, vars)
	}

	printLoadIssues(cmd, report)
	return nil
}

// printEnvSummary lists each aggregated variable with its strictest
// declared form and its declarers.
func printEnvSummary(out io.Writer, vars []env.Variable) {
	for _, v := range vars {
		attrs := "optional"
		if v.Required {
			attrs = "required"
		}
		if v.Default != nil {
			attrs += fmt.Sprintf(", default %q", *v.Default)
		}
		if v.Conflicting {
			attrs += ", conflicting declarations"
		}
		fmt.Fprintf(out, "  %s (%s) declared by %s\n",
			v.Name, attrs, strings.Join(v.DeclaredBy, ", "))
	}
}

// printLoadIssues details the non-fatal problems of a load pass on stderr.
func printLoadIssues(cmd *cobra.Command, report *loader.Report) {
	out := cmd.ErrOrStderr()
	for _, skip := range report.Skipped {
		fmt.Fprintf(out, "skipped %s: %s\n", skip.Identifier, skip.Reason)
	}
	for _, failure := range report.Failed {
		fmt.Fprintf(out, "failed %s: %v\n", failure.Identifier, failure.Err)
	}
	for _, conflict := range report.Conflicts {
		fmt.Fprintf(out, "conflict %s: already registered by %s\n",
			conflict.QualifiedName, conflict.HeldBy)
	}
}
