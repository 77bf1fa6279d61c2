package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/BerylCAtieno/clientlens/internal/models"
	"github.com/BerylCAtieno/clientlens/internal/persona"
	"github.com/BerylCAtieno/clientlens/internal/workflow"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	mu       sync.Mutex
	prepErr  error
	anErr    error
	prepReqs []models.PreparationRequest
	anReqs   []models.AnalysisRequest
}

func (f *fakeService) PreparePreInterview(ctx context.Context, req models.PreparationRequest) (*models.PreparationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prepReqs = append(f.prepReqs, req)
	if f.prepErr != nil {
		return nil, f.prepErr
	}
	return &models.PreparationResult{
		BackgroundSummary: req.CustomerName + " leads infrastructure at " + req.CompanyName + ".",
		InterviewOutline:  "Ice breaking: recent funding. Discovery: cloud costs. Closing: next steps.",
		SuggestedStrategy: "Lead with cost savings.",
	}, nil
}

func (f *fakeService) AnalyzePostInterview(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.anReqs = append(f.anReqs, req)
	if f.anErr != nil {
		return nil, f.anErr
	}
	return &models.AnalysisResult{
		MeetingReportMarkdown: "## Meeting with " + req.CustomerName + "\nAgreed on a pilot.",
		UpdatedPersonaData: models.PersonaPatch{
			Budget: models.String("$650k Approved"),
			Tags:   []string{"Urgent"},
		},
	}, nil
}

func (f *fakeService) calls() (prep, analysis int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prepReqs), len(f.anReqs)
}

var testToday = time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	app   *App
	store *persona.MemoryStore
	svc   *fakeService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	seed, err := persona.DefaultSeed()
	require.NoError(t, err)
	store, err := persona.NewMemoryStore(seed)
	require.NoError(t, err)

	svc := &fakeService{}
	clock := workflow.WithClock(func() time.Time { return testToday })
	return &testEnv{
		app: &App{
			Personas:       store,
			NewPreparation: func() *workflow.Preparation { return workflow.NewPreparation(svc, clock) },
			NewAnalysis:    func() *workflow.Analysis { return workflow.NewAnalysis(svc, store, clock) },
		},
		store: store,
		svc:   svc,
	}
}

func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd(app)
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// driver feeds messages to the TUI and runs the resulting commands inline.
// Commands that do not finish quickly (cursor blinks, spinner frames) are
// dropped.
type driver struct {
	t        *testing.T
	model    tea.Model
	quitting bool
}

func newDriver(t *testing.T, app *App) *driver {
	t.Helper()
	m := newAppModel(context.Background(), app)
	d := &driver{t: t, model: m}
	d.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	d.run(m.Init())
	return d
}

func (d *driver) send(msg tea.Msg) {
	var cmd tea.Cmd
	d.model, cmd = d.model.Update(msg)
	d.run(cmd)
}

func (d *driver) run(cmd tea.Cmd) {
	for _, msg := range collect(cmd) {
		if _, ok := msg.(tea.QuitMsg); ok {
			d.quitting = true
			continue
		}
		d.send(msg)
	}
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-ch:
	case <-time.After(100 * time.Millisecond):
		return nil
	}

	switch m := msg.(type) {
	case nil, spinner.TickMsg:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range m {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func (d *driver) press(k string) {
	switch k {
	case "enter":
		d.send(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		d.send(tea.KeyMsg{Type: tea.KeyEsc})
	case "tab":
		d.send(tea.KeyMsg{Type: tea.KeyTab})
	case "down":
		d.send(tea.KeyMsg{Type: tea.KeyDown})
	case "up":
		d.send(tea.KeyMsg{Type: tea.KeyUp})
	case "ctrl+s":
		d.send(tea.KeyMsg{Type: tea.KeyCtrlS})
	case "ctrl+c":
		d.send(tea.KeyMsg{Type: tea.KeyCtrlC})
	default:
		d.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	}
}

// typeText sends text as a single paste-like key event.
func (d *driver) typeText(s string) {
	d.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (d *driver) app() appModel { return d.model.(appModel) }

func (d *driver) activeView() View {
	m := d.app()
	return m.activeView()
}

func (d *driver) activeID() ViewID { return d.activeView().ID() }

func (d *driver) stackLen() int { return len(d.app().viewStack) }

func (d *driver) view() string { return d.model.View() }
