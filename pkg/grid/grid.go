// Package grid implements the Clock Grid (C1): a monotonically increasing
// pulse counter and running flag driven by an external MIDI clock source.
package grid

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/brkline/phrasebridge/pkg/midi"
)

// Source is the abstract clock port the grid consumes: one realtime status
// byte at a time, blocking until one arrives.
type Source interface {
	ReadMessage(ctx context.Context) (byte, error)
}

// Grid exposes a read-mostly pulse count and running flag. A single
// internal goroutine is the sole writer; PulseCount and Running may be
// called from any number of reader goroutines.
type Grid struct {
	pulses  atomic.Uint64
	running atomic.Bool
}

// New creates a stopped Grid at pulse 0.
func New() *Grid {
	return &Grid{}
}

// PulseCount returns the current pulse count. Safe for concurrent use.
func (g *Grid) PulseCount() uint64 {
	return g.pulses.Load()
}

// Running reports whether the external transport is currently playing.
// Safe for concurrent use.
func (g *Grid) Running() bool {
	return g.running.Load()
}

// Run starts a goroutine that drives the grid from src until ctx is
// cancelled or src returns a fatal read error, and returns at once. A fatal
// error is sent on the returned channel (buffered, capacity 1) before the
// goroutine closes it and exits. A disconnected clock source is fatal to
// the bridge per spec.md §4.1/§7 — Run itself does not decide what to do
// about it, leaving that policy to the caller (bootstrap signals shutdown).
func (g *Grid) Run(ctx context.Context, src Source) <-chan error {
	fatal := make(chan error, 1)
	go func() {
		defer close(fatal)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			b, err := src.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				fatal <- fmt.Errorf("grid: clock source disconnected: %w", err)
				return
			}

			rt, ok := midi.DecodeRealtime(b)
			if !ok {
				continue
			}
			switch rt {
			case midi.RealtimeTick:
				g.pulses.Add(1)
			case midi.RealtimeStart:
				g.pulses.Store(0)
				g.running.Store(true)
			case midi.RealtimeStop:
				g.running.Store(false)
			case midi.RealtimeContinue:
				g.running.Store(true)
			}
		}
	}()
	return fatal
}
