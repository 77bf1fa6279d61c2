package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/BerylCAtieno/clientlens/internal/models"
)

// fakeService answers immediately unless gate is set, in which case each
// call waits for a value on gate (or for its context to end).
type fakeService struct {
	mu        sync.Mutex
	prepCalls []models.PreparationRequest
	anCalls   []models.AnalysisRequest
	prepRes   *models.PreparationResult
	anRes     *models.AnalysisResult
	err       error
	gate      chan struct{}
	started   chan struct{}
}

func (f *fakeService) wait(ctx context.Context) error {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate == nil {
		return nil
	}
	select {
	case <-f.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeService) PreparePreInterview(ctx context.Context, req models.PreparationRequest) (*models.PreparationResult, error) {
	f.mu.Lock()
	f.prepCalls = append(f.prepCalls, req)
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	r := *f.prepRes
	return &r, nil
}

func (f *fakeService) AnalyzePostInterview(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	f.mu.Lock()
	f.anCalls = append(f.anCalls, req)
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	r := *f.anRes
	return &r, nil
}

func (f *fakeService) prepCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prepCalls)
}

func (f *fakeService) anCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.anCalls)
}

type transition struct {
	kind     Kind
	from, to State
}

type recordingObserver struct {
	mu  sync.Mutex
	log []transition
}

func (o *recordingObserver) OnTransition(_ context.Context, kind Kind, from, to State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.log = append(o.log, transition{kind, from, to})
}

func (o *recordingObserver) states() []State {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]State, len(o.log))
	for i, t := range o.log {
		out[i] = t.to
	}
	return out
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2024, 3, 9, 15, 4, 5, 0, time.UTC) }
}
