package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/BerylCAtieno/clientlens/internal/models"
	"github.com/BerylCAtieno/clientlens/internal/persona"
	"github.com/google/uuid"
)

// DateLayout is the format of lastInterviewDate.
const DateLayout = "2006-01-02"

// AppliedUpdate describes the last confirmed analysis.
type AppliedUpdate struct {
	PersonaID string         `json:"personaId"`
	Date      string         `json:"date"`
	Persona   models.Persona `json:"persona"`
}

// AnalysisSnapshot is a point-in-time copy of an Analysis.
type AnalysisSnapshot struct {
	ID           string                 `json:"id"`
	State        State                  `json:"state"`
	CustomerID   string                 `json:"customerId,omitempty"`
	CustomerName string                 `json:"customerName,omitempty"`
	Notes        string                 `json:"notes"`
	Result       *models.AnalysisResult `json:"result,omitempty"`
	Error        string                 `json:"error,omitempty"`
	LastApplied  *AppliedUpdate         `json:"lastApplied,omitempty"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

// Analysis turns interview notes into a report and a persona update that is
// only written to the store once confirmed.
type Analysis struct {
	id    string
	svc   Analyzer
	store persona.Store
	opts  options

	mu           sync.Mutex
	state        State
	customerID   string
	customerName string
	notes        string
	result       *models.AnalysisResult
	lastErr      error
	lastApplied  *AppliedUpdate
	seq          uint64
	cancel       context.CancelFunc
	updatedAt    time.Time
}

func NewAnalysis(svc Analyzer, store persona.Store, opts ...Option) *Analysis {
	o := buildOptions(opts)
	return &Analysis{
		id:        uuid.NewString(),
		svc:       svc,
		store:     store,
		opts:      o,
		state:     StateEditing,
		updatedAt: o.now(),
	}
}

func (a *Analysis) ID() string { return a.id }

// Select picks the customer the notes are about. An empty id clears the
// selection. Any pending result is dropped.
func (a *Analysis) Select(ctx context.Context, customerID string) error {
	name := ""
	if customerID != "" {
		p, err := a.store.Get(ctx, customerID)
		if err != nil {
			return err
		}
		name = p.Name
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.abortLocked()
	a.customerID = customerID
	a.customerName = name
	a.result = nil
	a.lastErr = nil
	a.setState(ctx, StateEditing)
	return nil
}

// SetNotes replaces the interview notes. An in-flight request is abandoned.
func (a *Analysis) SetNotes(notes string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.notes = notes
	if a.state == StateLoading {
		a.abortLocked()
		a.setState(context.Background(), StateEditing)
	}
	a.touch()
}

func (a *Analysis) CanSubmit() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state != StateLoading && a.customerID != "" && strings.TrimSpace(a.notes) != ""
}

// Submit analyses the notes for the selected customer. The customer's name
// is read from the store at submit time.
func (a *Analysis) Submit(ctx context.Context) (*models.AnalysisResult, error) {
	a.mu.Lock()
	if a.state == StateLoading {
		a.mu.Unlock()
		return nil, ErrBusy
	}
	req := models.AnalysisRequest{CustomerID: a.customerID, InterviewNotes: a.notes}
	if err := req.Validate(); err != nil {
		a.lastErr = err
		a.touch()
		a.mu.Unlock()
		return nil, err
	}
	a.mu.Unlock()

	p, err := a.store.Get(ctx, req.CustomerID)
	if err != nil {
		a.mu.Lock()
		a.lastErr = err
		a.touch()
		a.mu.Unlock()
		return nil, err
	}
	req.CustomerName = p.Name

	a.mu.Lock()
	if a.state == StateLoading {
		a.mu.Unlock()
		return nil, ErrBusy
	}
	if a.customerID != req.CustomerID || a.notes != req.InterviewNotes {
		a.mu.Unlock()
		return nil, ErrStale
	}
	a.seq++
	seq := a.seq
	callCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.customerName = p.Name
	a.result = nil
	a.lastErr = nil
	a.setState(ctx, StateLoading)
	a.mu.Unlock()

	res, err := a.svc.AnalyzePostInterview(callCtx, req)

	a.mu.Lock()
	defer a.mu.Unlock()
	cancel()
	if a.seq != seq {
		return nil, ErrStale
	}
	a.cancel = nil
	if err != nil {
		a.lastErr = err
		a.setState(ctx, StateEditing)
		return nil, err
	}
	a.result = res
	a.setState(ctx, StateResult)
	return cloneAnalysisResult(res), nil
}

// Confirm writes the pending persona update to the store, stamping today's
// date as the last interview date, then clears the form. If the write fails
// the result stays pending so it can be discarded.
func (a *Analysis) Confirm(ctx context.Context) (models.Persona, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateResult || a.result == nil {
		return models.Persona{}, ErrNoResult
	}

	today := a.opts.now().Format(DateLayout)
	patch := personaUpdate(a.result.UpdatedPersonaData)
	patch.LastInterviewDate = models.String(today)

	updated, err := a.store.Update(ctx, a.customerID, patch)
	if err != nil {
		a.lastErr = fmt.Errorf("applying update to %q: %w", a.customerID, err)
		a.touch()
		return models.Persona{}, a.lastErr
	}

	a.setState(ctx, StateApplied)
	a.lastApplied = &AppliedUpdate{PersonaID: updated.ID, Date: today, Persona: updated.Clone()}
	a.customerID = ""
	a.customerName = ""
	a.notes = ""
	a.result = nil
	a.lastErr = nil
	a.setState(ctx, StateEditing)
	return updated, nil
}

// Discard drops the pending result, keeping customer and notes.
func (a *Analysis) Discard() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateResult {
		return ErrNoResult
	}
	a.result = nil
	a.lastErr = nil
	a.setState(context.Background(), StateEditing)
	return nil
}

func (a *Analysis) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateLoading {
		return
	}
	a.abortLocked()
	a.setState(context.Background(), StateEditing)
}

// Reset clears everything except the record of the last applied update.
func (a *Analysis) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.abortLocked()
	a.customerID = ""
	a.customerName = ""
	a.notes = ""
	a.result = nil
	a.lastErr = nil
	a.setState(context.Background(), StateEditing)
	a.touch()
}

func (a *Analysis) Snapshot() AnalysisSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := AnalysisSnapshot{
		ID:           a.id,
		State:        a.state,
		CustomerID:   a.customerID,
		CustomerName: a.customerName,
		Notes:        a.notes,
		Result:       cloneAnalysisResult(a.result),
		Error:        errString(a.lastErr),
		UpdatedAt:    a.updatedAt,
	}
	if a.lastApplied != nil {
		applied := *a.lastApplied
		applied.Persona = a.lastApplied.Persona.Clone()
		snap.LastApplied = &applied
	}
	return snap
}

func (a *Analysis) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

func (a *Analysis) abortLocked() {
	a.seq++
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

func (a *Analysis) setState(ctx context.Context, to State) {
	from := a.state
	a.state = to
	a.touch()
	a.opts.transition(ctx, KindAnalysis, a.id, from, to)
}

func (a *Analysis) touch() {
	a.updatedAt = a.opts.now()
}

// personaUpdate keeps only the fields an analysis may change.
func personaUpdate(p models.PersonaPatch) models.PersonaPatch {
	return models.PersonaPatch{
		KeyPainPoints:       p.KeyPainPoints,
		Budget:              p.Budget,
		DecisionMakerStatus: p.DecisionMakerStatus,
		Industry:            p.Industry,
		Tags:                p.Tags,
	}
}

func cloneAnalysisResult(r *models.AnalysisResult) *models.AnalysisResult {
	if r == nil {
		return nil
	}
	out := *r
	if r.UpdatedPersonaData.KeyPainPoints != nil {
		out.UpdatedPersonaData.KeyPainPoints = append([]string{}, r.UpdatedPersonaData.KeyPainPoints...)
	}
	if r.UpdatedPersonaData.Tags != nil {
		out.UpdatedPersonaData.Tags = append([]string{}, r.UpdatedPersonaData.Tags...)
	}
	return &out
}

// idleSince reports whether the workflow has not changed since cutoff and
// has no request in flight.
func (a *Analysis) idleSince(cutoff time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state != StateLoading && a.updatedAt.Before(cutoff)
}
