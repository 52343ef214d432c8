// Package barbuffer implements the Bar Buffer (C2): a per-measure mapping
// of captured human events, tagged with the absolute pulse they arrived at.
package barbuffer

import (
	"sync"

	"github.com/brkline/phrasebridge/pkg/midi"
)

// Buffer is the single-producer (input loop), single-consumer (controller)
// bar buffer. The zero value is not usable; use New.
type Buffer struct {
	mu           sync.Mutex
	pulsesPerBar uint64
	anchor       *uint64
	bars         map[uint64][]midi.InputEvent
}

// New creates an empty Buffer for the given bar length in pulses.
func New(pulsesPerBar uint64) *Buffer {
	return &Buffer{
		pulsesPerBar: pulsesPerBar,
		bars:         make(map[uint64][]midi.InputEvent),
	}
}

// Append assigns event to its bar using the anchor rule from spec.md §4.2:
// the first positive-velocity note-on sets the anchor; non-note events and
// note-offs received before the anchor is set are dropped; events that
// compute a negative bar index (a delayed stamp predating the anchor) are
// dropped. The absolute pulse is retained on the stored event so prompt
// assembly can reconstruct relative timing.
func (b *Buffer) Append(event midi.Event, pulse uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.anchor == nil {
		if event.IsNoteOnActive() {
			a := pulse
			b.anchor = &a
		} else {
			return
		}
	}

	anchor := *b.anchor
	if pulse < anchor {
		return
	}
	bar := (pulse - anchor) / b.pulsesPerBar
	b.bars[bar] = append(b.bars[bar], midi.InputEvent{Event: event, Pulse: pulse})
}

// Take removes and returns barIndex's events in capture order. A missing
// bar returns nil.
func (b *Buffer) Take(barIndex uint64) []midi.InputEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	events := b.bars[barIndex]
	delete(b.bars, barIndex)
	return events
}

// Anchor returns the anchor pulse and whether it has been set yet.
func (b *Buffer) Anchor() (uint64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.anchor == nil {
		return 0, false
	}
	return *b.anchor, true
}

// Clear purges every buffered bar and resets the anchor, ready for a fresh
// COLLECT cycle. Called on the PLAY -> COLLECT transition.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.anchor = nil
	b.bars = make(map[uint64][]midi.InputEvent)
}
