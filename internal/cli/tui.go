package cli

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ViewID identifies each type of view in the TUI.
type ViewID int

const (
	ViewDashboard ViewID = iota
	ViewPreparation
	ViewAnalysis
	ViewPersonaList
	ViewPersonaDetail
)

// View is implemented by every screen on the view stack.
type View interface {
	tea.Model
	ID() ViewID
	Title() string
	ShortHelp() []key.Binding
}

// inputCapturer is implemented by views that take free text, so global
// single-letter keys must not be intercepted.
type inputCapturer interface {
	capturingInput() bool
}

type (
	pushViewMsg struct{ view View }
	popViewMsg  struct{}
)

func pushView(v View) tea.Cmd {
	return func() tea.Msg { return pushViewMsg{view: v} }
}

func popView() tea.Msg { return popViewMsg{} }

// sharedState is the state every view can read.
type sharedState struct {
	app    *App
	ctx    context.Context
	width  int
	height int
}

// contentHeight is the height left for a view's body after the header and
// footer.
func (s *sharedState) contentHeight() int {
	if h := s.height - 4; h > 3 {
		return h
	}
	return 3
}

func (s *sharedState) contentWidth() int {
	if s.width > 4 {
		return s.width - 2
	}
	return 80
}

// appModel is the root bubbletea model. It owns a stack of views with the
// dashboard at the bottom.
type appModel struct {
	state     *sharedState
	viewStack []View
	help      help.Model
	quitting  bool
}

func newAppModel(ctx context.Context, app *App) appModel {
	state := &sharedState{app: app, ctx: ctx, width: 100, height: 30}
	return appModel{
		state:     state,
		viewStack: []View{newDashboardView(state)},
		help:      help.New(),
	}
}

func (m *appModel) activeView() View {
	if len(m.viewStack) == 0 {
		return nil
	}
	return m.viewStack[len(m.viewStack)-1]
}

func (m *appModel) setActiveView(v View) {
	if len(m.viewStack) > 0 {
		m.viewStack[len(m.viewStack)-1] = v
	}
}

func (m appModel) Init() tea.Cmd {
	if v := m.activeView(); v != nil {
		return v.Init()
	}
	return nil
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.state.width = msg.Width
		m.state.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		capturing := false
		if c, ok := m.activeView().(inputCapturer); ok {
			capturing = c.capturingInput()
		}
		if !capturing && msg.String() == "q" && len(m.viewStack) == 1 {
			m.quitting = true
			return m, tea.Quit
		}

	case pushViewMsg:
		m.viewStack = append(m.viewStack, msg.view)
		return m, msg.view.Init()

	case popViewMsg:
		if len(m.viewStack) > 1 {
			m.viewStack = m.viewStack[:len(m.viewStack)-1]
			if v, ok := m.activeView().(interface{ refresh() tea.Cmd }); ok {
				return m, v.refresh()
			}
		}
		return m, nil
	}

	v := m.activeView()
	if v == nil {
		return m, nil
	}
	updated, cmd := v.Update(msg)
	m.setActiveView(updated.(View))
	return m, cmd
}

func (m appModel) View() string {
	if m.quitting {
		return ""
	}
	v := m.activeView()
	if v == nil {
		return ""
	}

	crumbs := make([]string, 0, len(m.viewStack))
	for _, sv := range m.viewStack {
		crumbs = append(crumbs, sv.Title())
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render("ClientLens"))
	b.WriteString(styleDim.Render("  " + strings.Join(crumbs, " › ")))
	b.WriteString("\n\n")
	b.WriteString(v.View())
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView(v.ShortHelp()))
	return lipgloss.NewStyle().Padding(0, 1).Render(b.String())
}

// runTUI starts the interactive program and blocks until it exits.
func runTUI(ctx context.Context, app *App) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(newAppModel(ctx, app), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
