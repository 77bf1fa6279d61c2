package cli

import (
	"fmt"
	"strings"

	"github.com/BerylCAtieno/clientlens/internal/report"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	var (
		customerID string
		notes      string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Turn interview notes into a meeting report and persona update",
		Long: `Write a meeting report from raw interview notes and propose updates to
the customer's persona. The update is only saved after confirmation: pass
--yes, or answer the prompt on a terminal. Otherwise it is discarded.`,
		Example: `  clientlens analyze --customer 2 --notes @notes.txt --yes`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireModel(); err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			var err error
			if notes, err = readText(notes); err != nil {
				return err
			}
			if (customerID == "" || strings.TrimSpace(notes) == "") && app.interactive() {
				personas, err := app.Personas.List(ctx)
				if err != nil {
					return fmt.Errorf("listing personas: %w", err)
				}
				if err := runForm(ctx, analysisForm(personas, &customerID, &notes)); err != nil {
					return err
				}
			}

			wf := app.NewAnalysis()
			if err := wf.Select(ctx, customerID); err != nil {
				return fmt.Errorf("selecting customer: %w", err)
			}
			wf.SetNotes(notes)

			snap := wf.Snapshot()
			fmt.Fprintf(cmd.ErrOrStderr(), "Analyzing interview with %s...\n", snap.CustomerName)
			res, err := wf.Submit(ctx)
			if err != nil {
				return fmt.Errorf("analyzing interview: %w", err)
			}
			fmt.Fprintln(out, report.Analysis(snap.CustomerName, *res))

			apply := yes
			if !apply && app.interactive() {
				if err := runForm(ctx, confirmForm(snap.CustomerName, &apply)); err != nil {
					return err
				}
			}
			if !apply {
				if err := wf.Discard(); err != nil {
					return err
				}
				fmt.Fprintln(out, "Update discarded. Pass --yes to save detected updates.")
				return nil
			}

			updated, err := wf.Confirm(ctx)
			if err != nil {
				return fmt.Errorf("updating persona: %w", err)
			}
			fmt.Fprintln(out, "Database updated successfully!")
			fmt.Fprintln(out)
			fmt.Fprintln(out, report.PersonaDetail(updated))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&customerID, "customer", "", "persona id of the customer interviewed")
	f.StringVar(&notes, "notes", "", "interview notes or transcript (@file to read a file, @- for stdin)")
	f.BoolVarP(&yes, "yes", "y", false, "save the detected persona updates without asking")
	return cmd
}
