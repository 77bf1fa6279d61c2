package profiler

import (
	"context"
	"sync"
)

type reply struct {
	text string
	err  error
}

// scriptedGenerator returns its replies in order, repeating the last one.
type scriptedGenerator struct {
	mu       sync.Mutex
	replies  []reply
	requests []GenerateRequest
	block    bool
}

func (g *scriptedGenerator) Model() string { return "test-model" }

func (g *scriptedGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	n := len(g.requests)
	block := g.block
	g.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	r := g.replies[len(g.replies)-1]
	if n <= len(g.replies) {
		r = g.replies[n-1]
	}
	return r.text, r.err
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

type recordingObserver struct {
	mu     sync.Mutex
	events []CallEvent
}

func (o *recordingObserver) OnCallComplete(_ context.Context, e CallEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}
