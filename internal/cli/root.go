// Package cli is the ClientLens terminal front end: cobra commands for
// scripting and a bubbletea TUI for interactive use.
package cli

import (
	"errors"
	"fmt"

	"github.com/BerylCAtieno/clientlens/internal/persona"
	"github.com/BerylCAtieno/clientlens/internal/workflow"
	"github.com/spf13/cobra"
)

// errNoModel is reported by generation commands when no backend is wired.
var errNoModel = errors.New("model backend not configured")

// App holds what the commands and views need.
type App struct {
	Personas persona.Store

	// Workflow factories. Nil when no model backend is configured; ModelErr
	// then says why.
	NewPreparation func() *workflow.Preparation
	NewAnalysis    func() *workflow.Analysis
	ModelErr       error

	IsInteractive func() bool
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) requireModel() error {
	if a.NewPreparation != nil && a.NewAnalysis != nil {
		return nil
	}
	if a.ModelErr != nil {
		return fmt.Errorf("%w: %w", errNoModel, a.ModelErr)
	}
	return errNoModel
}

// NewRootCmd creates the top-level "clientlens" command. Without a
// subcommand it opens the TUI on a terminal and prints help otherwise.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "clientlens",
		Short:         "Interview preparation and persona upkeep for client teams",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.interactive() {
				return runTUI(cmd.Context(), app)
			}
			return cmd.Help()
		},
	}

	root.AddCommand(
		newTUICmd(app),
		newPersonasCmd(app),
		newPrepareCmd(app),
		newAnalyzeCmd(app),
	)
	return root
}

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), app)
		},
	}
}
