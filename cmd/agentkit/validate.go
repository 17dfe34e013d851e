package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentkit-dev/agentkit/env"
	"github.com/agentkit-dev/agentkit/registry"
)

var (
	validateEnvFile string
	validatePrompt  bool
)

// validateCmd checks the live environment against declared requirements.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the environment against declared requirements",
	Long: `Check that every required environment variable declared by a loaded
capability is satisfied by the process environment or the dotenv file.

With --prompt, missing required values are collected interactively and
saved to the dotenv file.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validateEnvFile, "env-file", ".env",
		"dotenv file merged over the process environment")
	validateCmd.Flags().BoolVar(&validatePrompt, "prompt", false,
		"interactively collect missing required values")
}

func runValidate(cmd *cobra.Command, args []string) error {
	reg, _, err := loadCapabilities(cmd)
	if err != nil {
		return err
	}

	store := env.NewFileStore(env.WithPath(validateEnvFile))
	stored, err := store.Load()
	if err != nil {
		return err
	}
	lookup := func(name string) (string, bool) {
		if v, ok := stored[name]; ok {
			return v, true
		}
		return env.OSLookup(name)
	}

	reconciler := env.NewReconciler()
	result := reconciler.Validate(reg, lookup)

	out := cmd.OutOrStdout()
	for _, conflict := range result.Conflicts {
		fmt.Fprintf(out, "conflict: %s\n", conflict)
	}

	if result.Ok() {
		fmt.Fprintln(out, "environment ok")
		return nil
	}

	if validatePrompt {
		if err := promptAndStore(reg, reconciler, store, result.MissingRequired); err != nil {
			return err
		}
		result = reconciler.Validate(reg, storeLookup(store, stored))
		if result.Ok() {
			fmt.Fprintln(out, "environment ok")
			return nil
		}
	}

	for _, name := range result.MissingRequired {
		fmt.Fprintf(out, "missing required variable: %s\n", name)
	}
	return fmt.Errorf("%d required environment variables missing", len(result.MissingRequired))
}

// promptAndStore collects values for the named variables and merges them
// into the dotenv store.
func promptAndStore(reg registry.DeclarationSource, reconciler *env.Reconciler, store *env.FileStore, missing []string) error {
	prompter := env.NewTerminalPrompter()
	if !prompter.IsInteractive() {
		return fmt.Errorf("cannot prompt: stdin is not a terminal")
	}

	wanted := make(map[string]bool, len(missing))
	for _, name := range missing {
		wanted[name] = true
	}

	var vars []env.Variable
	for _, v := range reconciler.Aggregate(reg) {
		if wanted[v.Name] {
			vars = append(vars, v)
		}
	}

	values, err := prompter.PromptForValues(vars)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	return store.Merge(values)
}

// storeLookup rebuilds the lookup after a prompt round, re-reading the
// store.
func storeLookup(store *env.FileStore, fallback map[string]string) env.LookupFunc {
	stored, err := store.Load()
	if err != nil {
		stored = fallback
	}
	return func(name string) (string, bool) {
		if v, ok := stored[name]; ok {
			return v, true
		}
		return env.OSLookup(name)
	}
}
