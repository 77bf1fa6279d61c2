package cli

import (
	"fmt"
	"strings"

	"github.com/BerylCAtieno/clientlens/internal/models"
	"github.com/BerylCAtieno/clientlens/internal/report"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type personasLoadedMsg struct {
	personas []models.Persona
	err      error
}

func loadPersonas(state *sharedState) tea.Cmd {
	return func() tea.Msg {
		personas, err := state.app.Personas.List(state.ctx)
		return personasLoadedMsg{personas: personas, err: err}
	}
}

// personaListView shows persona cards in database order.
type personaListView struct {
	state    *sharedState
	personas []models.Persona
	cursor   int
	loading  bool
	err      error
}

func newPersonaListView(state *sharedState) *personaListView {
	return &personaListView{state: state, loading: true}
}

func (v *personaListView) ID() ViewID    { return ViewPersonaList }
func (v *personaListView) Title() string { return "Personas" }

func (v *personaListView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "move")),
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}

func (v *personaListView) Init() tea.Cmd { return loadPersonas(v.state) }

// refresh reloads after returning from a view that may have changed data.
func (v *personaListView) refresh() tea.Cmd { return loadPersonas(v.state) }

func (v *personaListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case personasLoadedMsg:
		v.loading = false
		v.err = msg.err
		v.personas = msg.personas
		if v.cursor >= len(v.personas) {
			v.cursor = 0
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.cursor > 0 {
				v.cursor--
			}
		case "down", "j":
			if v.cursor < len(v.personas)-1 {
				v.cursor++
			}
		case "enter":
			if v.cursor < len(v.personas) {
				return v, pushView(newPersonaDetailView(v.state, v.personas[v.cursor]))
			}
		case "esc", "backspace":
			return v, popView
		}
	}
	return v, nil
}

func (v *personaListView) View() string {
	var b strings.Builder
	b.WriteString(header("Customer Persona Database"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(styleDim.Render("Loading..."))
		return b.String()
	case v.err != nil:
		b.WriteString(styleError.Render("Could not load personas: " + v.err.Error()))
		return b.String()
	case len(v.personas) == 0:
		b.WriteString(styleDim.Render("No personas in the database."))
		return b.String()
	}

	// Keep the selected card on screen: each card is about six lines.
	perPage := v.state.contentHeight() / 6
	if perPage < 1 {
		perPage = 1
	}
	start := 0
	if v.cursor >= perPage {
		start = v.cursor - perPage + 1
	}
	end := start + perPage
	if end > len(v.personas) {
		end = len(v.personas)
	}
	for i := start; i < end; i++ {
		b.WriteString(v.card(v.personas[i], i == v.cursor))
		b.WriteString("\n")
	}
	b.WriteString(styleDim.Render(fmt.Sprintf("%d of %d", v.cursor+1, len(v.personas))))
	return b.String()
}

func (v *personaListView) card(p models.Persona, selected bool) string {
	var b strings.Builder
	b.WriteString(styleBold.Render(p.Name))
	b.WriteString("  ")
	b.WriteString(statusStyle(string(p.Status)).Render(string(p.Status)))
	b.WriteString("\n")
	b.WriteString(styleDim.Render(fmt.Sprintf("%s · %s", p.Role, p.Company)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s   %s %s",
		styleLabel.Render("Budget"), p.Budget,
		styleLabel.Render("Last interview"), report.LastInterview(p)))
	if pains := report.TopPainPoints(p); len(pains) > 0 {
		b.WriteString("\n")
		b.WriteString(styleLabel.Render("Pains "))
		b.WriteString(strings.Join(pains, "; "))
	}
	if tags := report.Hashtags(p.Tags); tags != "" {
		b.WriteString("\n")
		b.WriteString(styleTag.Render(tags))
	}

	style := styleCard.Width(v.state.contentWidth() - 2)
	if selected {
		style = style.BorderForeground(colorAccent)
	}
	return style.Render(b.String())
}

// personaDetailView shows one persona in a scrollable viewport.
type personaDetailView struct {
	state   *sharedState
	persona models.Persona
	vp      viewport.Model
}

func newPersonaDetailView(state *sharedState, p models.Persona) *personaDetailView {
	vp := viewport.New(state.contentWidth(), state.contentHeight())
	v := &personaDetailView{state: state, persona: p, vp: vp}
	v.vp.SetContent(v.render())
	return v
}

func (v *personaDetailView) ID() ViewID    { return ViewPersonaDetail }
func (v *personaDetailView) Title() string { return v.persona.Name }

func (v *personaDetailView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "scroll")),
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}

func (v *personaDetailView) Init() tea.Cmd { return nil }

func (v *personaDetailView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.vp.Width = v.state.contentWidth()
		v.vp.Height = v.state.contentHeight()
		v.vp.SetContent(v.render())
		return v, nil
	case tea.KeyMsg:
		if msg.String() == "esc" || msg.String() == "backspace" {
			return v, popView
		}
	}
	var cmd tea.Cmd
	v.vp, cmd = v.vp.Update(msg)
	return v, cmd
}

func (v *personaDetailView) View() string { return v.vp.View() }

func (v *personaDetailView) render() string {
	p := v.persona
	var b strings.Builder
	b.WriteString(header(p.Name))
	b.WriteString("\n")
	b.WriteString(styleDim.Render(fmt.Sprintf("%s at %s", p.Role, p.Company)))
	b.WriteString("  ")
	b.WriteString(statusStyle(string(p.Status)).Render(string(p.Status)))
	b.WriteString("\n\n")

	rows := [][2]string{
		{"Industry", p.Industry},
		{"Budget", p.Budget},
		{"Decision maker", p.DecisionMakerStatus},
		{"Last interview", report.LastInterview(p)},
	}
	for _, r := range rows {
		b.WriteString(styleLabel.Render(fmt.Sprintf("%-16s", r[0])))
		b.WriteString(r[1])
		b.WriteString("\n")
	}

	if len(p.KeyPainPoints) > 0 {
		b.WriteString("\n")
		b.WriteString(styleBold.Render("Pain Points"))
		b.WriteString("\n")
		for _, pp := range p.KeyPainPoints {
			b.WriteString(styleError.Render("• "))
			b.WriteString(pp)
			b.WriteString("\n")
		}
	}
	if tags := report.Hashtags(p.Tags); tags != "" {
		b.WriteString("\n")
		b.WriteString(styleTag.Render(tags))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styleBold.Render("Engagement History"))
	b.WriteString("\n")
	if len(p.History) == 0 {
		b.WriteString(styleDim.Render("No recorded engagements."))
		b.WriteString("\n")
	}
	width := v.state.contentWidth() - 4
	for _, h := range p.History {
		b.WriteString(styleDim.Render(h.Date))
		b.WriteString("  ")
		b.WriteString(styleBold.Render(h.Title))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(width).PaddingLeft(2).Render(h.Summary))
		b.WriteString("\n")
	}
	return b.String()
}
