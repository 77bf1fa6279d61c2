package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BerylCAtieno/clientlens/internal/models"
	"github.com/BerylCAtieno/clientlens/internal/report"
	"github.com/BerylCAtieno/clientlens/internal/workflow"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

type analysisDoneMsg struct {
	id  string
	res *models.AnalysisResult
	err error
}

const (
	anFocusPicker = iota
	anFocusNotes
)

// analysisView picks a customer, takes interview notes and shows the report
// with the detected persona update until it is confirmed or discarded.
type analysisView struct {
	state    *sharedState
	wf       *workflow.Analysis
	personas []models.Persona
	cursor   int
	notes    textarea.Model
	focus    int
	spinner  spinner.Model
	vp       viewport.Model
	pending  bool
	err      string
	notice   string
}

func newAnalysisView(state *sharedState) *analysisView {
	notes := textarea.New()
	notes.Placeholder = "Paste the raw conversation notes here..."
	notes.ShowLineNumbers = false
	notes.SetHeight(8)
	notes.SetWidth(state.contentWidth() - 2)

	return &analysisView{
		state:   state,
		wf:      state.app.NewAnalysis(),
		notes:   notes,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styleTitle)),
		vp:      viewport.New(state.contentWidth(), state.contentHeight()),
	}
}

func (v *analysisView) ID() ViewID    { return ViewAnalysis }
func (v *analysisView) Title() string { return "Analysis" }

func (v *analysisView) ShortHelp() []key.Binding {
	switch {
	case v.pending:
		return []key.Binding{key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))}
	case v.wf.Snapshot().State == workflow.StateResult:
		return []key.Binding{
			key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm & update")),
			key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "discard")),
			key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "scroll")),
		}
	case v.focus == anFocusPicker:
		return []key.Binding{
			key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "move")),
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select customer")),
			key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "notes")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		}
	}
	return []key.Binding{
		key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "customers")),
		key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "generate report")),
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}

func (v *analysisView) capturingInput() bool {
	return !v.pending && v.focus == anFocusNotes && v.wf.Snapshot().State == workflow.StateEditing
}

func (v *analysisView) Init() tea.Cmd { return loadPersonas(v.state) }

func (v *analysisView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case personasLoadedMsg:
		if msg.err != nil {
			v.err = "Could not load customers: " + msg.err.Error()
			return v, nil
		}
		v.personas = msg.personas
		return v, nil

	case analysisDoneMsg:
		if msg.id != v.wf.ID() || errors.Is(msg.err, workflow.ErrStale) {
			return v, nil
		}
		v.pending = false
		if msg.err != nil {
			v.err = msg.err.Error()
			return v, nil
		}
		v.err = ""
		v.vp.SetContent(renderAnalysis(v.wf.Snapshot().CustomerName, *msg.res, v.state.contentWidth()))
		v.vp.GotoTop()
		return v, nil

	case spinner.TickMsg:
		if !v.pending {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case tea.WindowSizeMsg:
		v.vp.Width = v.state.contentWidth()
		v.vp.Height = v.state.contentHeight()
		return v, nil

	case tea.KeyMsg:
		switch {
		case v.pending:
			if msg.String() == "esc" {
				v.wf.Cancel()
				v.pending = false
				v.err = "Request cancelled."
			}
			return v, nil
		case v.wf.Snapshot().State == workflow.StateResult:
			return v.updateResult(msg)
		}
		return v.updateEditing(msg)
	}

	if v.capturingInput() {
		var cmd tea.Cmd
		v.notes, cmd = v.notes.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *analysisView) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "ctrl+s":
		updated, err := v.wf.Confirm(v.state.ctx)
		if err != nil {
			v.err = err.Error()
			return v, nil
		}
		v.err = ""
		v.notice = fmt.Sprintf("Database updated successfully! %s's persona now reflects this interview.", updated.Name)
		v.notes.Reset()
		v.focus = anFocusPicker
		v.notes.Blur()
		return v, loadPersonas(v.state)
	case "n", "esc":
		if err := v.wf.Discard(); err != nil {
			v.err = err.Error()
		}
		return v, v.focusNotes()
	}
	var cmd tea.Cmd
	v.vp, cmd = v.vp.Update(msg)
	return v, cmd
}

func (v *analysisView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.wf.Cancel()
		return v, popView
	case "tab", "shift+tab":
		if v.focus == anFocusPicker {
			return v, v.focusNotes()
		}
		v.focus = anFocusPicker
		v.notes.Blur()
		return v, nil
	case "ctrl+s":
		return v, v.submit()
	}

	if v.focus == anFocusNotes {
		var cmd tea.Cmd
		v.notes, cmd = v.notes.Update(msg)
		v.wf.SetNotes(v.notes.Value())
		return v, cmd
	}

	switch msg.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(v.personas)-1 {
			v.cursor++
		}
	case "enter", " ":
		if v.cursor < len(v.personas) {
			if err := v.wf.Select(v.state.ctx, v.personas[v.cursor].ID); err != nil {
				v.err = err.Error()
				return v, nil
			}
			v.err = ""
			v.notice = ""
			return v, v.focusNotes()
		}
	}
	return v, nil
}

func (v *analysisView) focusNotes() tea.Cmd {
	v.focus = anFocusNotes
	return v.notes.Focus()
}

func (v *analysisView) submit() tea.Cmd {
	v.wf.SetNotes(v.notes.Value())
	if !v.wf.CanSubmit() {
		v.err = "Select a customer and enter interview notes."
		return nil
	}
	v.err = ""
	v.notice = ""
	v.pending = true

	wf, ctx := v.wf, v.state.ctx
	return tea.Batch(v.spinner.Tick, func() tea.Msg {
		res, err := wf.Submit(ctx)
		return analysisDoneMsg{id: wf.ID(), res: res, err: err}
	})
}

func (v *analysisView) View() string {
	if v.pending {
		return v.spinner.View() + " " + styleDim.Render("Processing notes and extracting data...")
	}
	snap := v.wf.Snapshot()
	if snap.State == workflow.StateResult {
		var b strings.Builder
		b.WriteString(v.vp.View())
		if v.err != "" {
			b.WriteString("\n")
			b.WriteString(styleError.Render(v.err))
		}
		return b.String()
	}

	var b strings.Builder
	b.WriteString(header("Post-Interview Analysis"))
	b.WriteString("\n")
	b.WriteString(styleDim.Render("Transform raw notes into structured reports and update the customer database."))
	b.WriteString("\n\n")

	if v.notice != "" {
		b.WriteString(styleSuccess.Render(v.notice))
		b.WriteString("\n\n")
	}

	label := styleLabel.Render("Select Customer")
	if v.focus == anFocusPicker {
		label = styleFocused.Render("Select Customer")
	}
	b.WriteString(label)
	b.WriteString("\n")
	if len(v.personas) == 0 {
		b.WriteString(styleDim.Render("  -- Choose a customer --"))
		b.WriteString("\n")
	}
	for i, p := range v.personas {
		mark := "  "
		if p.ID == snap.CustomerID {
			mark = "✓ "
		}
		line := mark + report.PickerLabel(p)
		if i == v.cursor && v.focus == anFocusPicker {
			b.WriteString(styleSelected.Render("› " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	label = styleLabel.Render("Interview Notes / Transcript")
	if v.focus == anFocusNotes {
		label = styleFocused.Render("Interview Notes / Transcript")
	}
	b.WriteString(label)
	b.WriteString("\n")
	b.WriteString(v.notes.View())
	b.WriteString("\n")
	if v.err != "" {
		b.WriteString("\n")
		b.WriteString(styleError.Render(v.err))
	}
	return b.String()
}

func renderAnalysis(customerName string, res models.AnalysisResult, width int) string {
	var b strings.Builder
	b.WriteString(header("Meeting Report"))
	b.WriteString("\n\n")
	b.WriteString(styleCard.Width(width - 2).Render(strings.TrimSpace(res.MeetingReportMarkdown)))
	b.WriteString("\n\n")
	b.WriteString(styleBold.Render("Detected Updates for " + customerName))
	b.WriteString("\n")
	b.WriteString(styleCard.Width(width - 2).BorderForeground(colorAccent).Render(strings.TrimRight(report.UpdatePreview(res.UpdatedPersonaData), "\n")))
	b.WriteString("\n")
	b.WriteString(styleDim.Render("y to confirm & update the database, n to discard"))
	return b.String()
}
