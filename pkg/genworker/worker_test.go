package genworker

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/brkline/phrasebridge/pkg/modelengine"
)

func waitDone(t *testing.T, job *Job) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		if job.Done() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("job never completed")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestWorkerProcessesSubmittedJob(t *testing.T) {
	eng := modelengine.NewFixture()
	eng.Return([]byte("generated-midi"))

	w := New(eng, zap.NewNop().Sugar())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	job := NewJob(0, []byte("prompt"), 0.8, 0.9, 2)
	if !w.Submit(job) {
		t.Fatal("expected Submit to succeed")
	}

	waitDone(t, job)
	result := job.Result()
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if string(result.MIDI) != "generated-midi" {
		t.Errorf("expected generated-midi, got %q", result.MIDI)
	}
}

func TestWorkerSurfacesEngineError(t *testing.T) {
	eng := modelengine.NewFixture()
	eng.Fail(errors.New("model unavailable"))

	w := New(eng, zap.NewNop().Sugar())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	job := NewJob(0, []byte("prompt"), 0.8, 0.9, 2)
	w.Submit(job)
	waitDone(t, job)

	if job.Result().Err == nil {
		t.Fatal("expected the engine error to surface on the job result")
	}
}

func TestWorkerSubmitFailsWhenQueueFull(t *testing.T) {
	eng := modelengine.NewFixture()
	w := New(eng, zap.NewNop().Sugar())
	// No Run loop started: the queue never drains, so it fills deterministically.
	for i := 0; i < defaultQueueDepth; i++ {
		if !w.Submit(NewJob(uint64(i), nil, 0, 0, 0)) {
			t.Fatalf("expected submit %d to succeed while queue has room", i)
		}
	}
	if w.Submit(NewJob(99, nil, 0, 0, 0)) {
		t.Error("expected Submit to report false once the queue is full")
	}
}

func TestWorkerStopsOnContextCancel(t *testing.T) {
	eng := modelengine.NewFixture()
	w := New(eng, zap.NewNop().Sugar())
	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	cancel()

	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("expected Run to return after cancellation")
	}
}
