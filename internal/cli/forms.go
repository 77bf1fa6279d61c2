package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BerylCAtieno/clientlens/internal/models"
	"github.com/BerylCAtieno/clientlens/internal/report"
	"github.com/charmbracelet/huh"
)

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// preparationForm asks for the four preparation inputs, prefilled with req.
func preparationForm(req *models.PreparationRequest) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Customer Name").
				Placeholder("e.g. Jane Doe").
				Value(&req.CustomerName).
				Validate(required("customer name")),
			huh.NewInput().
				Title("Company").
				Placeholder("e.g. Acme Corp").
				Value(&req.CompanyName).
				Validate(required("company")),
		),
		huh.NewGroup(
			huh.NewText().
				Title("Internal Data (CRM / Sales Notes)").
				Placeholder("Paste past emails, meeting notes or CRM data...").
				Value(&req.InternalNotes),
			huh.NewText().
				Title("External Info (LinkedIn / News / Website)").
				Placeholder("Paste public info, recent news or LinkedIn bio...").
				Value(&req.ExternalInfo),
		),
	).WithTheme(clientLensHuhTheme())
}

// customerSelect offers every persona as "name - company".
func customerSelect(personas []models.Persona, id *string) *huh.Select[string] {
	opts := make([]huh.Option[string], 0, len(personas))
	for _, p := range personas {
		opts = append(opts, huh.NewOption(report.PickerLabel(p), p.ID))
	}
	return huh.NewSelect[string]().
		Title("Select Customer").
		Options(opts...).
		Value(id)
}

func analysisForm(personas []models.Persona, id, notes *string) *huh.Form {
	var fields []huh.Field
	if *id == "" {
		fields = append(fields, customerSelect(personas, id))
	}
	if strings.TrimSpace(*notes) == "" {
		fields = append(fields, huh.NewText().
			Title("Interview Notes / Transcript").
			Placeholder("Paste the raw conversation notes here...").
			Value(notes).
			Validate(required("interview notes")))
	}
	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(clientLensHuhTheme())
}

func confirmForm(name string, ok *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Update %s in the persona database?", name)).
				Affirmative("Confirm & Update").
				Negative("Discard").
				Value(ok),
		),
	).WithTheme(clientLensHuhTheme())
}

// runForm runs an interactive form. An aborted form reads as a cancel.
func runForm(ctx context.Context, form *huh.Form) error {
	err := form.RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return context.Canceled
	}
	return err
}

// readText returns value, or the contents of path when value is "@path".
// "@-" reads standard input.
func readText(value string) (string, error) {
	if !strings.HasPrefix(value, "@") {
		return value, nil
	}
	path := strings.TrimPrefix(value, "@")
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", value, err)
	}
	return string(data), nil
}
