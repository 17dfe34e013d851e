package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// listCmd prints every registered tool.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered tools",
	Long: `Load the capability directory and list every registered tool with its
owning capability's description.`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	reg, report, err := loadCapabilities(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, info := range reg.ListCapabilities() {
		fmt.Fprintf(out, "%s  %s\n", info.Name, info.Declaration.Description)
		unit, ok := reg.Unit(info.Name)
		if !ok {
			continue
		}
		for _, op := range unit.Operations {
			fmt.Fprintf(out, "  %s.%s\n", info.Name, op.Name)
		}
	}

	printLoadIssues(cmd, report)
	return nil
}
