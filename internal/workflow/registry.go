package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BerylCAtieno/clientlens/internal/persona"
)

// Registry owns workflow instances for transports that address them by id.
type Registry struct {
	prep  Preparer
	an    Analyzer
	store persona.Store
	opts  []Option
	now   func() time.Time
	log   *slog.Logger

	mu       sync.RWMutex
	preps    map[string]*Preparation
	analyses map[string]*Analysis
}

func NewRegistry(prep Preparer, an Analyzer, store persona.Store, opts ...Option) *Registry {
	o := buildOptions(opts)
	return &Registry{
		prep:     prep,
		an:       an,
		store:    store,
		opts:     opts,
		now:      o.now,
		log:      o.logger,
		preps:    make(map[string]*Preparation),
		analyses: make(map[string]*Analysis),
	}
}

func (r *Registry) NewPreparation() *Preparation {
	p := NewPreparation(r.prep, r.opts...)
	r.mu.Lock()
	r.preps[p.ID()] = p
	r.mu.Unlock()
	return p
}

func (r *Registry) Preparation(id string) (*Preparation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.preps[id]
	if !ok {
		return nil, fmt.Errorf("preparation %q: %w", id, ErrUnknownWorkflow)
	}
	return p, nil
}

// RemovePreparation resets and forgets the workflow.
func (r *Registry) RemovePreparation(id string) error {
	r.mu.Lock()
	p, ok := r.preps[id]
	delete(r.preps, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("preparation %q: %w", id, ErrUnknownWorkflow)
	}
	p.Reset()
	return nil
}

func (r *Registry) NewAnalysis() *Analysis {
	a := NewAnalysis(r.an, r.store, r.opts...)
	r.mu.Lock()
	r.analyses[a.ID()] = a
	r.mu.Unlock()
	return a
}

func (r *Registry) Analysis(id string) (*Analysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.analyses[id]
	if !ok {
		return nil, fmt.Errorf("analysis %q: %w", id, ErrUnknownWorkflow)
	}
	return a, nil
}

func (r *Registry) RemoveAnalysis(id string) error {
	r.mu.Lock()
	a, ok := r.analyses[id]
	delete(r.analyses, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("analysis %q: %w", id, ErrUnknownWorkflow)
	}
	a.Reset()
	return nil
}

// Len returns the number of live workflows of each kind.
func (r *Registry) Len() (preparations, analyses int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.preps), len(r.analyses)
}

// Sweep forgets workflows that have not changed for longer than idle.
// Workflows waiting on the model are kept. It returns the number evicted.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	var evicted []interface{ Reset() }
	r.mu.Lock()
	for id, p := range r.preps {
		if p.idleSince(cutoff) {
			delete(r.preps, id)
			evicted = append(evicted, p)
		}
	}
	for id, a := range r.analyses {
		if a.idleSince(cutoff) {
			delete(r.analyses, id)
			evicted = append(evicted, a)
		}
	}
	r.mu.Unlock()

	for _, w := range evicted {
		w.Reset()
	}
	return len(evicted)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				r.log.Debug("evicted idle workflows", slog.Int("count", n), slog.Duration("idle", idle))
			}
		}
	}
}
