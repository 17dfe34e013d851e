package env

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
)

// TerminalPrompter interactively collects values for missing required
// variables so an operator can repair a failing environment in place.
type TerminalPrompter struct{}

// NewTerminalPrompter creates a new TerminalPrompter.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{}
}

// IsInteractive checks if we're running in an interactive terminal.
func (p *TerminalPrompter) IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// PromptForValues asks the user for each variable's value and returns the
// answered map. Empty answers are omitted so the caller never persists a
// blank required value.
func (p *TerminalPrompter) PromptForValues(vars []Variable) (map[string]string, error) {
	if len(vars) == 0 {
		return map[string]string{}, nil
	}

	answers := make([]string, len(vars))
	fields := make([]huh.Field, 0, len(vars))
	for i, v := range vars {
		fields = append(fields, huh.NewInput().
			Title(v.Name).
			Description(describeVariable(v)).
			Value(&answers[i]))
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return nil, fmt.Errorf("prompt aborted: %w", err)
	}

	values := make(map[string]string)
	for i, v := range vars {
		if answer := strings.TrimSpace(answers[i]); answer != "" {
			values[v.Name] = answer
		}
	}
	return values, nil
}

func describeVariable(v Variable) string {
	if len(v.Views) == 0 {
		return "required by " + strings.Join(v.DeclaredBy, ", ")
	}
	return fmt.Sprintf("%s (required by %s)",
		v.Views[0].Description, strings.Join(v.DeclaredBy, ", "))
}
