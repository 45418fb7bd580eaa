package dispatch

import (
	"context"
	"sync"

	"github.com/starford/jarvis/internal/intent"
)

// Sequencer runs a batch of intents one after the other. A failing item does
// not stop the ones after it.
type Sequencer struct {
	d *Dispatcher
}

// NewSequencer creates a sequencer over d.
func NewSequencer(d *Dispatcher) *Sequencer {
	return &Sequencer{d: d}
}

// Run executes intents in order and tags each result with its 1-based
// position. Every item is journaled, "none" answers included.
func (s *Sequencer) Run(ctx context.Context, intents []intent.Intent) []Result {
	out := make([]Result, 0, len(intents))
	for i, in := range intents {
		res := s.d.Dispatch(ctx, in)
		if in.IsNone() {
			s.d.recordAnswer(in, res)
		}
		res.Position = i + 1
		out = append(out, res)
	}
	return out
}

// Report is the outcome of one request.
type Report struct {
	Batch   bool     `json:"batch"`
	Results []Result `json:"results"`
}

// OK reports whether every result succeeded.
func (r Report) OK() bool {
	for _, res := range r.Results {
		if !res.Success {
			return false
		}
	}
	return len(r.Results) > 0
}

// Text renders the report for display.
func (r Report) Text() string { return Render(r) }

// Executor is the entry point for requests. It holds one lock for the whole
// request so that the actions of concurrent requests never interleave.
type Executor struct {
	mu  sync.Mutex
	d   *Dispatcher
	seq *Sequencer
}

// NewExecutor creates an executor over d.
func NewExecutor(d *Dispatcher) *Executor {
	return &Executor{d: d, seq: NewSequencer(d)}
}

// Dispatcher returns the underlying dispatcher.
func (e *Executor) Dispatcher() *Dispatcher { return e.d }

// Execute runs req to completion.
func (e *Executor) Execute(ctx context.Context, req intent.Request) Report {
	e.mu.Lock()
	defer e.mu.Unlock()

	if req.Batch {
		return Report{Batch: true, Results: e.seq.Run(ctx, req.Intents)}
	}
	results := make([]Result, 0, len(req.Intents))
	for _, in := range req.Intents {
		results = append(results, e.d.Dispatch(ctx, in))
	}
	return Report{Results: results}
}
