package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentkit-dev/agentkit/env"
)

var generateOutput string

// generateCmd renders the aggregated environment template.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an environment template",
	Long: `Aggregate the environment variables declared by every loaded capability
and render a documented dotenv template. Conflicting declarations are
annotated, not dropped.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "",
		"write the template to a file instead of stdout")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	reg, _, err := loadCapabilities(cmd)
	if err != nil {
		return err
	}

	reconciler := env.NewReconciler()
	if generateOutput != "" {
		return reconciler.WriteTemplate(reg, generateOutput)
	}

	fmt.Fprint(cmd.OutOrStdout(), reconciler.RenderTemplate(reg))
	return nil
}
