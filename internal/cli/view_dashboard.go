package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type dashboardEntry struct {
	key   string
	title string
	desc  string
	open  func(*sharedState) View
	model bool // needs a model backend
}

var dashboardEntries = []dashboardEntry{
	{
		key:   "p",
		title: "Pre-Interview Preparation",
		desc:  "Merge internal CRM notes and public info into a brief, an interview outline and a strategy.",
		open:  func(s *sharedState) View { return newPreparationView(s) },
		model: true,
	},
	{
		key:   "a",
		title: "Post-Interview Analysis",
		desc:  "Turn interview notes into a meeting report and update the customer's persona.",
		open:  func(s *sharedState) View { return newAnalysisView(s) },
		model: true,
	},
	{
		key:   "d",
		title: "Persona Database",
		desc:  "Browse customer personas, pain points and engagement history.",
		open:  func(s *sharedState) View { return newPersonaListView(s) },
	},
}

type dashboardView struct {
	state  *sharedState
	cursor int
	notice string
}

func newDashboardView(state *sharedState) *dashboardView {
	return &dashboardView{state: state}
}

func (v *dashboardView) ID() ViewID    { return ViewDashboard }
func (v *dashboardView) Title() string { return "Dashboard" }

func (v *dashboardView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prepare")),
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "analyze")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "personas")),
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	}
}

func (v *dashboardView) Init() tea.Cmd { return nil }

func (v *dashboardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	switch km.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(dashboardEntries)-1 {
			v.cursor++
		}
	case "enter":
		return v, v.open(dashboardEntries[v.cursor])
	default:
		for i, e := range dashboardEntries {
			if km.String() == e.key {
				v.cursor = i
				return v, v.open(e)
			}
		}
	}
	return v, nil
}

func (v *dashboardView) open(e dashboardEntry) tea.Cmd {
	if e.model {
		if err := v.state.app.requireModel(); err != nil {
			v.notice = err.Error()
			return nil
		}
	}
	v.notice = ""
	return pushView(e.open(v.state))
}

func (v *dashboardView) View() string {
	var b strings.Builder
	b.WriteString(header("Welcome back"))
	b.WriteString("\n")
	b.WriteString(styleDim.Render("Prepare for your next meeting or analyze a recent one."))
	b.WriteString("\n\n")

	for i, e := range dashboardEntries {
		title := fmt.Sprintf("[%s] %s", e.key, e.title)
		if i == v.cursor {
			b.WriteString(styleSelected.Render("› " + title))
		} else {
			b.WriteString(styleBold.Render("  " + title))
		}
		b.WriteString("\n    ")
		b.WriteString(styleDim.Render(e.desc))
		b.WriteString("\n\n")
	}
	if v.notice != "" {
		b.WriteString(styleError.Render(v.notice))
	}
	return b.String()
}
