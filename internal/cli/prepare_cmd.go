package cli

import (
	"fmt"

	"github.com/BerylCAtieno/clientlens/internal/models"
	"github.com/BerylCAtieno/clientlens/internal/report"
	"github.com/spf13/cobra"
)

func newPrepareCmd(app *App) *cobra.Command {
	var req models.PreparationRequest

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Draft a pre-interview brief for a customer",
		Long: `Draft a background summary, interview outline and approach strategy
from internal CRM notes and public information.

Notes flags accept @path to read a file, or @- for standard input. Missing
name or company are asked for interactively on a terminal.`,
		Example: `  clientlens prepare --name "Jane Doe" --company "Acme Corp" \
      --internal-notes @crm.txt --external-info "Acme raised a Series B"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireModel(); err != nil {
				return err
			}
			var err error
			if req.InternalNotes, err = readText(req.InternalNotes); err != nil {
				return err
			}
			if req.ExternalInfo, err = readText(req.ExternalInfo); err != nil {
				return err
			}
			if req.Validate() != nil && app.interactive() {
				if err := runForm(cmd.Context(), preparationForm(&req)); err != nil {
					return err
				}
			}

			wf := app.NewPreparation()
			wf.SetInput(req)
			fmt.Fprintf(cmd.ErrOrStderr(), "Generating brief for %s at %s...\n", req.CustomerName, req.CompanyName)
			res, err := wf.Submit(cmd.Context())
			if err != nil {
				return fmt.Errorf("preparing interview: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Brief(req, *res))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&req.CustomerName, "name", "n", "", "customer name")
	f.StringVarP(&req.CompanyName, "company", "c", "", "company name")
	f.StringVar(&req.InternalNotes, "internal-notes", "", "CRM or sales notes (@file to read a file)")
	f.StringVar(&req.ExternalInfo, "external-info", "", "public info such as LinkedIn or news (@file to read a file)")
	return cmd
}
