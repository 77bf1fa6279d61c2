package cli

import (
	"errors"
	"strings"

	"github.com/BerylCAtieno/clientlens/internal/models"
	"github.com/BerylCAtieno/clientlens/internal/workflow"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

type preparationDoneMsg struct {
	id  string
	res *models.PreparationResult
	err error
}

const (
	prepFieldName = iota
	prepFieldCompany
	prepFieldInternal
	prepFieldExternal
	prepFieldCount
)

// preparationView collects the four preparation inputs and shows the brief.
type preparationView struct {
	state   *sharedState
	wf      *workflow.Preparation
	name    textinput.Model
	company textinput.Model
	notes   textarea.Model
	info    textarea.Model
	focus   int
	spinner spinner.Model
	vp      viewport.Model
	pending bool
	err     string
}

func newPreparationView(state *sharedState) *preparationView {
	name := textinput.New()
	name.Placeholder = "e.g. Jane Doe"
	name.CharLimit = 120
	company := textinput.New()
	company.Placeholder = "e.g. Acme Corp"
	company.CharLimit = 120

	notes := textarea.New()
	notes.Placeholder = "Paste past emails, meeting notes or CRM data..."
	notes.SetHeight(4)
	notes.ShowLineNumbers = false
	info := textarea.New()
	info.Placeholder = "Paste public info, recent news or LinkedIn bio..."
	info.SetHeight(4)
	info.ShowLineNumbers = false

	width := state.contentWidth() - 2
	name.Width = width
	company.Width = width
	notes.SetWidth(width)
	info.SetWidth(width)

	return &preparationView{
		state:   state,
		wf:      state.app.NewPreparation(),
		name:    name,
		company: company,
		notes:   notes,
		info:    info,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styleTitle)),
		vp:      viewport.New(state.contentWidth(), state.contentHeight()),
	}
}

func (v *preparationView) ID() ViewID    { return ViewPreparation }
func (v *preparationView) Title() string { return "Preparation" }

func (v *preparationView) ShortHelp() []key.Binding {
	switch {
	case v.pending:
		return []key.Binding{key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))}
	case v.wf.Snapshot().State == workflow.StateResult:
		return []key.Binding{
			key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit inputs")),
			key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new brief")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		}
	}
	return []key.Binding{
		key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "generate")),
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}

func (v *preparationView) capturingInput() bool {
	return !v.pending && v.wf.Snapshot().State == workflow.StateEditing
}

func (v *preparationView) Init() tea.Cmd { return v.name.Focus() }

func (v *preparationView) input() models.PreparationRequest {
	return models.PreparationRequest{
		CustomerName:  v.name.Value(),
		CompanyName:   v.company.Value(),
		InternalNotes: v.notes.Value(),
		ExternalInfo:  v.info.Value(),
	}
}

func (v *preparationView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case preparationDoneMsg:
		if msg.id != v.wf.ID() || errors.Is(msg.err, workflow.ErrStale) {
			return v, nil
		}
		v.pending = false
		if msg.err != nil {
			v.err = msg.err.Error()
			return v, v.setFocus(v.focus)
		}
		v.err = ""
		v.vp.SetContent(renderBrief(v.input(), *msg.res, v.state.contentWidth()))
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
		return v, v.updateField(msg)
	}
	return v, nil
}

func (v *preparationView) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "e":
		v.wf.SetInput(v.input())
		return v, v.setFocus(v.focus)
	case "n":
		v.wf.Reset()
		v.name.Reset()
		v.company.Reset()
		v.notes.Reset()
		v.info.Reset()
		return v, v.setFocus(prepFieldName)
	case "esc":
		return v, popView
	}
	var cmd tea.Cmd
	v.vp, cmd = v.vp.Update(msg)
	return v, cmd
}

func (v *preparationView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.wf.Cancel()
		return v, popView
	case "tab":
		return v, v.setFocus((v.focus + 1) % prepFieldCount)
	case "shift+tab":
		return v, v.setFocus((v.focus + prepFieldCount - 1) % prepFieldCount)
	case "enter":
		if v.focus < prepFieldInternal {
			return v, v.setFocus(v.focus + 1)
		}
	case "ctrl+s":
		return v, v.submit()
	}
	return v, v.updateField(msg)
}

func (v *preparationView) updateField(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch v.focus {
	case prepFieldName:
		v.name, cmd = v.name.Update(msg)
	case prepFieldCompany:
		v.company, cmd = v.company.Update(msg)
	case prepFieldInternal:
		v.notes, cmd = v.notes.Update(msg)
	case prepFieldExternal:
		v.info, cmd = v.info.Update(msg)
	}
	return cmd
}

func (v *preparationView) setFocus(i int) tea.Cmd {
	v.focus = i
	v.name.Blur()
	v.company.Blur()
	v.notes.Blur()
	v.info.Blur()
	switch i {
	case prepFieldName:
		return v.name.Focus()
	case prepFieldCompany:
		return v.company.Focus()
	case prepFieldInternal:
		return v.notes.Focus()
	default:
		return v.info.Focus()
	}
}

func (v *preparationView) submit() tea.Cmd {
	v.wf.SetInput(v.input())
	if !v.wf.CanSubmit() {
		v.err = "Customer name and company are required."
		return nil
	}
	v.err = ""
	v.pending = true

	wf, ctx := v.wf, v.state.ctx
	return tea.Batch(v.spinner.Tick, func() tea.Msg {
		res, err := wf.Submit(ctx)
		return preparationDoneMsg{id: wf.ID(), res: res, err: err}
	})
}

func (v *preparationView) View() string {
	if v.pending {
		return v.spinner.View() + " " + styleDim.Render("Analyzing data and generating strategy...")
	}
	if v.wf.Snapshot().State == workflow.StateResult {
		return v.vp.View()
	}

	var b strings.Builder
	b.WriteString(header("Pre-Interview Preparation"))
	b.WriteString("\n")
	b.WriteString(styleDim.Render("Merge internal data with public info to generate a strategic interview plan."))
	b.WriteString("\n\n")

	fields := []struct {
		label string
		view  string
	}{
		{"Customer Name", v.name.View()},
		{"Company", v.company.View()},
		{"Internal Data (CRM / Sales Notes)", v.notes.View()},
		{"External Info (LinkedIn / News / Website)", v.info.View()},
	}
	for i, f := range fields {
		label := styleLabel.Render(f.label)
		if i == v.focus {
			label = styleFocused.Render(f.label)
		}
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(f.view)
		b.WriteString("\n\n")
	}
	if v.err != "" {
		b.WriteString(styleError.Render(v.err))
	}
	return b.String()
}

func renderBrief(req models.PreparationRequest, res models.PreparationResult, width int) string {
	body := styleCard.Width(width - 2)
	var b strings.Builder
	b.WriteString(header("Interview Brief: " + req.CustomerName + " at " + req.CompanyName))
	b.WriteString("\n\n")
	b.WriteString(styleBold.Render("Background Summary"))
	b.WriteString("\n")
	b.WriteString(body.Render(strings.TrimSpace(res.BackgroundSummary)))
	b.WriteString("\n\n")
	b.WriteString(styleBold.Render("Suggested Strategy"))
	b.WriteString("\n")
	b.WriteString(body.BorderForeground(colorAccent).Render(strings.TrimSpace(res.SuggestedStrategy)))
	b.WriteString("\n\n")
	b.WriteString(styleBold.Render("Interview Outline"))
	b.WriteString("\n")
	b.WriteString(body.Render(strings.TrimSpace(res.InterviewOutline)))
	return b.String()
}
