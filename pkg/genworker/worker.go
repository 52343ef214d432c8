// Package genworker implements the Generation Worker (C4): a single
// background goroutine that turns submitted Jobs into model calls without
// ever blocking the control loop that submits them.
package genworker

import (
	"context"

	"go.uber.org/zap"

	"github.com/brkline/phrasebridge/pkg/modelengine"
)

// defaultQueueDepth bounds how many submitted-but-not-yet-started jobs can
// queue up. The controller only ever has one job in flight at a time
// (spec.md §4.4), so a depth of 4 leaves ample headroom for the handoff; it
// is not a backpressure knob.
const defaultQueueDepth = 4

// Worker runs jobs against a modelengine.Engine on a single goroutine, so
// model calls never overlap and never run on the control loop.
type Worker struct {
	engine modelengine.Engine
	log    *zap.SugaredLogger

	jobs chan *Job
	done chan struct{}
}

// New creates a Worker bound to engine. Call Run to start its goroutine.
func New(engine modelengine.Engine, log *zap.SugaredLogger) *Worker {
	return &Worker{
		engine: engine,
		log:    log,
		jobs:   make(chan *Job, defaultQueueDepth),
		done:   make(chan struct{}),
	}
}

// Submit enqueues job for processing without blocking the caller. It
// reports false if the queue is full, which the controller treats as a
// submission failure under spec.md §4.5.2.
func (w *Worker) Submit(job *Job) bool {
	select {
	case w.jobs <- job:
		return true
	default:
		return false
	}
}

// Run processes jobs until ctx is cancelled. Cancellation is only observed
// between jobs: once a model call starts it runs to completion on a
// detached context, so a shutdown signal never aborts an in-flight
// generation (spec.md §9 design notes) — the call is still bounded by
// whatever timeout the Engine implementation applies internally.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-w.jobs:
			w.process(job)
		}
	}
}

// Done returns a channel closed once Run has returned.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) process(job *Job) {
	w.log.Infow("[gen_worker] Starting", "bar_index", job.BarIndex, "gen_bars", job.GenBars)

	req := modelengine.Request{
		PromptMIDI:     job.Prompt,
		HorizonSeconds: float64(job.GenBars),
		Temperature:    job.Temperature,
		TopP:           job.TopP,
		GenBars:        job.GenBars,
	}

	resp, err := w.engine.Generate(context.Background(), req)
	if err != nil {
		w.log.Infow("[gen_worker] done", "bar_index", job.BarIndex, "error", err)
		job.complete(Result{Err: err})
		return
	}

	w.log.Infow("[gen_worker] done", "bar_index", job.BarIndex, "midi_bytes", len(resp.MIDI))
	job.complete(Result{MIDI: resp.MIDI})
}
