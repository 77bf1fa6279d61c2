package cli

import (
	"fmt"

	"github.com/BerylCAtieno/clientlens/internal/report"
	"github.com/spf13/cobra"
)

func newPersonasCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "personas",
		Aliases: []string{"persona", "db"},
		Short:   "Browse the customer persona database",
	}
	cmd.AddCommand(newPersonasListCmd(app), newPersonasShowCmd(app))
	return cmd
}

func newPersonasListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every persona in database order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			personas, err := app.Personas.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing personas: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.PersonaList(personas))
			return nil
		},
	}
}

func newPersonasShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a persona's profile and engagement history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Personas.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.PersonaDetail(p))
			return nil
		},
	}
}
