package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/BerylCAtieno/clientlens/internal/models"
	"github.com/google/uuid"
)

// PreparationSnapshot is a point-in-time copy of a Preparation.
type PreparationSnapshot struct {
	ID        string                    `json:"id"`
	State     State                     `json:"state"`
	Input     models.PreparationRequest `json:"input"`
	Result    *models.PreparationResult `json:"result,omitempty"`
	Error     string                    `json:"error,omitempty"`
	UpdatedAt time.Time                 `json:"updatedAt"`
}

// Preparation drafts a research brief: editing → loading → result.
type Preparation struct {
	id   string
	svc  Preparer
	opts options

	mu        sync.Mutex
	state     State
	input     models.PreparationRequest
	result    *models.PreparationResult
	lastErr   error
	seq       uint64
	cancel    context.CancelFunc
	updatedAt time.Time
}

func NewPreparation(svc Preparer, opts ...Option) *Preparation {
	o := buildOptions(opts)
	return &Preparation{
		id:        uuid.NewString(),
		svc:       svc,
		opts:      o,
		state:     StateEditing,
		updatedAt: o.now(),
	}
}

func (p *Preparation) ID() string { return p.id }

// SetInput replaces the form fields and returns the workflow to editing,
// dropping a shown result and abandoning an in-flight request.
func (p *Preparation) SetInput(in models.PreparationRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.input = in
	if p.state == StateLoading {
		p.abortLocked()
	}
	p.result = nil
	p.setState(context.Background(), StateEditing)
	p.touch()
}

// CanSubmit reports whether Submit would start a request.
func (p *Preparation) CanSubmit() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state != StateLoading && p.input.Validate() == nil
}

// Submit sends the current input to the model and blocks until it answers.
// On failure the workflow returns to editing with the input intact.
func (p *Preparation) Submit(ctx context.Context) (*models.PreparationResult, error) {
	p.mu.Lock()
	if p.state == StateLoading {
		p.mu.Unlock()
		return nil, ErrBusy
	}
	if err := p.input.Validate(); err != nil {
		p.lastErr = err
		p.touch()
		p.mu.Unlock()
		return nil, err
	}

	p.seq++
	seq := p.seq
	callCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	input := p.input
	p.result = nil
	p.lastErr = nil
	p.setState(ctx, StateLoading)
	p.mu.Unlock()

	res, err := p.svc.PreparePreInterview(callCtx, input)

	p.mu.Lock()
	defer p.mu.Unlock()
	cancel()
	if p.seq != seq {
		return nil, ErrStale
	}
	p.cancel = nil
	if err != nil {
		p.lastErr = err
		p.setState(ctx, StateEditing)
		return nil, err
	}
	p.result = res
	p.setState(ctx, StateResult)
	out := *res
	return &out, nil
}

// Cancel abandons an in-flight request. It is a no-op otherwise.
func (p *Preparation) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateLoading {
		return
	}
	p.abortLocked()
	p.setState(context.Background(), StateEditing)
}

// Reset clears input, result and error, abandoning any in-flight request.
func (p *Preparation) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.abortLocked()
	p.input = models.PreparationRequest{}
	p.result = nil
	p.lastErr = nil
	p.setState(context.Background(), StateEditing)
	p.touch()
}

func (p *Preparation) Snapshot() PreparationSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := PreparationSnapshot{
		ID:        p.id,
		State:     p.state,
		Input:     p.input,
		Error:     errString(p.lastErr),
		UpdatedAt: p.updatedAt,
	}
	if p.result != nil {
		r := *p.result
		snap.Result = &r
	}
	return snap
}

// Err returns the error of the last failed submit, if any.
func (p *Preparation) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Preparation) abortLocked() {
	p.seq++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Preparation) setState(ctx context.Context, to State) {
	from := p.state
	p.state = to
	p.touch()
	p.opts.transition(ctx, KindPreparation, p.id, from, to)
}

func (p *Preparation) touch() {
	p.updatedAt = p.opts.now()
}

// idleSince reports whether the workflow has not changed since cutoff and
// has no request in flight.
func (p *Preparation) idleSince(cutoff time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state != StateLoading && p.updatedAt.Before(cutoff)
}
