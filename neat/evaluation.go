package neat

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// Completion is the handle an evaluator returns for one agent. Done is closed
// once the agent has written its fitness to the network.
type Completion interface {
	Done() <-chan struct{}
}

// Evaluator is the embodiment/simulation side of the evaluation boundary.
//
// Begin starts evaluating one network and must not block on the evaluation
// itself. Evaluations cannot fail from the trainer's point of view: an agent
// that cannot be run should simply finish with whatever fitness it has.
// Cleanup is called once per generation after ranking, so per-agent
// resources can be released before the next cohort is created.
type Evaluator interface {
	Begin(ctx context.Context, net Network, g *Genome) Completion
	Cleanup(ctx context.Context)
}

// Signal is a ready-made Completion.
type Signal struct {
	once sync.Once
	ch   chan struct{}
}

// NewSignal returns an unfinished Signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Finish marks the agent as done. Calling it more than once is harmless.
func (s *Signal) Finish() {
	s.once.Do(func() { close(s.ch) })
}

// Done implements Completion.
func (s *Signal) Done() <-chan struct{} {
	return s.ch
}

// FuncEvaluator runs a fitness function per network on its own goroutine.
type FuncEvaluator struct {
	Fn func(ctx context.Context, net Network, g *Genome) float64
}

// Begin implements Evaluator.
func (e FuncEvaluator) Begin(ctx context.Context, net Network, g *Genome) Completion {
	done := NewSignal()
	go func() {
		defer done.Finish()
		net.SetFitness(e.Fn(ctx, net, g))
	}()
	return done
}

// Cleanup implements Evaluator; there is nothing to release.
func (FuncEvaluator) Cleanup(context.Context) {}

// Join blocks until every completion is done. There is no timeout: one agent
// that never finishes stalls the caller until ctx is cancelled, in which case
// the context error is returned and no partial results should be used.
func Join(ctx context.Context, completions []Completion) error {
	p := pool.New().WithContext(ctx)
	for _, c := range completions {
		c := c
		p.Go(func(ctx context.Context) error {
			select {
			case <-c.Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	return p.Wait()
}
