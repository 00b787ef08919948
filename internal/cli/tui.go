package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mmcdole/stacks/internal/tui"
)

// runTUI opens the interactive UI. Logs never go to stderr here since
// the UI owns the terminal.
func runTUI(cmd *cobra.Command, opts *RootOptions) error {
	app, err := NewApp(cmd, opts, true)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Logger.Info("starting stacks", "version", opts.Version)

	model := tui.NewModel(tui.Deps{
		Session: app.Session,
		Notify:  app.Notify,
		Client:  app.Client,
		Config:  app.Config,
		Logger:  app.Logger,
	})
	defer model.Close()

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
	)

	if _, err := p.Run(); err != nil {
		app.Logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	app.Logger.Info("shutting down")
	return nil
}
