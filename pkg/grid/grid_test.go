package grid

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeSource feeds a fixed sequence of raw bytes, then blocks until the
// context is cancelled (mirroring a live transport that simply has nothing
// more to say).
type fakeSource struct {
	bytes []byte
	pos   int
	errAt int // index at which to return an error instead, -1 for never
}

func (f *fakeSource) ReadMessage(ctx context.Context) (byte, error) {
	if f.errAt >= 0 && f.pos == f.errAt {
		return 0, errors.New("disconnected")
	}
	if f.pos < len(f.bytes) {
		b := f.bytes[f.pos]
		f.pos++
		return b, nil
	}
	<-ctx.Done()
	return 0, ctx.Err()
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestGridStartResetsAndRuns(t *testing.T) {
	g := New()
	src := &fakeSource{bytes: []byte{0xFA, 0xF8, 0xF8, 0xF8}, errAt: -1}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g.Run(ctx, src)

	waitUntil(t, time.Second, func() bool { return g.PulseCount() == 3 })
	if !g.Running() {
		t.Error("expected grid to be running after start")
	}
}

func TestGridStopClearsRunningNotPulses(t *testing.T) {
	g := New()
	src := &fakeSource{bytes: []byte{0xFA, 0xF8, 0xF8, 0xFC}, errAt: -1}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g.Run(ctx, src)

	waitUntil(t, time.Second, func() bool { return !g.Running() })
	if g.PulseCount() != 2 {
		t.Errorf("expected pulse count to persist across stop, got %d", g.PulseCount())
	}
}

func TestGridContinueResumesWithoutReset(t *testing.T) {
	g := New()
	src := &fakeSource{bytes: []byte{0xFA, 0xF8, 0xF8, 0xFC, 0xFB, 0xF8}, errAt: -1}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g.Run(ctx, src)

	waitUntil(t, time.Second, func() bool { return g.PulseCount() == 3 && g.Running() })
}

func TestGridIgnoresUnrecognizedBytes(t *testing.T) {
	g := New()
	src := &fakeSource{bytes: []byte{0xFA, 0x90, 60, 100, 0xF8}, errAt: -1}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g.Run(ctx, src)

	waitUntil(t, time.Second, func() bool { return g.PulseCount() == 1 })
}

func TestGridReportsFatalDisconnect(t *testing.T) {
	g := New()
	src := &fakeSource{bytes: []byte{0xFA}, errAt: 1}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fatal := g.Run(ctx, src)

	select {
	case err := <-fatal:
		if err == nil {
			t.Error("expected a non-nil disconnect error")
		}
	case <-time.After(time.Second):
		t.Fatal("expected a fatal error to be reported")
	}
}

func TestGridPulseCountNonDecreasing(t *testing.T) {
	g := New()
	src := &fakeSource{bytes: []byte{0xFA, 0xF8, 0xF8, 0xF8, 0xF8, 0xF8}, errAt: -1}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g.Run(ctx, src)

	last := uint64(0)
	waitUntil(t, time.Second, func() bool {
		cur := g.PulseCount()
		if cur < last {
			t.Errorf("pulse count decreased: %d -> %d", last, cur)
		}
		last = cur
		return cur == 5
	})
}
