// Package prompt implements interactive confirmation for grant mutations.
package prompt

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/permgate-dev/permgate/internal/application/ports"
)

// TerminalPrompter asks for confirmation through an interactive terminal
// form. Non-interactive sessions fail with guidance toward --yes.
type TerminalPrompter struct{}

var _ ports.Prompter = (*TerminalPrompter)(nil)

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

// Confirm presents a yes/no form and returns the user's decision.
func (p *TerminalPrompter) Confirm(ctx context.Context, title, description string) (bool, error) {
	if !p.IsInteractive() {
		return false, fmt.Errorf("confirmation needs an interactive terminal; re-run with --yes to skip the prompt")
	}

	var confirmed bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(description).
			Affirmative("Confirm").
			Negative("Cancel").
			Value(&confirmed),
	))

	if err := form.RunWithContext(ctx); err != nil {
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
	return confirmed, nil
}
