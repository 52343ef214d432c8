// Package controller implements the Bridge Controller (C5): the phase state
// machine, bar-boundary detection, prompt assembly, window enforcement,
// scheduling, and output dispatch that together turn captured human input
// into a scheduled model response.
package controller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/brkline/phrasebridge/pkg/barbuffer"
	"github.com/brkline/phrasebridge/pkg/bridgecfg"
	"github.com/brkline/phrasebridge/pkg/genworker"
	"github.com/brkline/phrasebridge/pkg/midi"
	"github.com/brkline/phrasebridge/pkg/schedqueue"
)

// PulseSource is the read side of the clock grid (C1) the controller
// depends on. *grid.Grid satisfies this.
type PulseSource interface {
	PulseCount() uint64
}

// EventSource delivers one decoded channel message at a time from the
// input port. Framing (collecting a status byte and its data bytes into
// one message) is a transport concern left to the caller, per spec.md's
// treatment of MIDI ports as abstract.
type EventSource interface {
	ReadEvent(ctx context.Context) (status, d1, d2 byte, err error)
}

// OutputSink accepts one dispatched event at a time.
type OutputSink interface {
	Send(event midi.Event) error
}

// outputChannel is the channel all forced-close and all-notes-off events
// address; spec.md's Open Question on multi-channel output is resolved by
// treating every event as channel-agnostic (channel 0 on the wire).
const outputChannel uint8 = 0

// pollInterval is how often the control loop wakes between iterations. It
// must stay well under one pulse's real-world duration so pulse observation
// stays tight, per the "≤ 1 ms typical" guidance in spec.md §5.
const pollInterval = time.Millisecond

// Controller wires the clock grid, bar buffer, scheduled queue, and
// generation worker into the bar-boundary / scheduling state machine. The
// zero value is not usable; use New.
type Controller struct {
	cfg    bridgecfg.Config
	log    *zap.SugaredLogger
	pulses PulseSource
	bar    *barbuffer.Buffer
	queue  *schedqueue.Queue
	worker *genworker.Worker
	output OutputSink

	// Owned exclusively by the control loop; no locking per spec.md §9.
	phase           Phase
	nextBarBoundary *uint64
	modelEndPulse   *uint64
	pendingJob      *genworker.Job
	prevBarEvents   []midi.InputEvent

	statusMu sync.RWMutex
	status   Status
}

// Status is a read-only snapshot for the observability server (C9). Anchor
// is nil until the bar buffer has captured its first note-on.
type Status struct {
	Phase         string
	PulseCount    uint64
	Anchor        *uint64
	QueueSize     int
	ModelEndPulse *uint64
}

// New builds a Controller. pulses, b, q, and w must already be constructed
// by the caller and are not owned exclusively (pulses is read by other
// components too).
func New(cfg bridgecfg.Config, log *zap.SugaredLogger, pulses PulseSource, b *barbuffer.Buffer, q *schedqueue.Queue, w *genworker.Worker, output OutputSink) *Controller {
	return &Controller{
		cfg:    cfg,
		log:    log,
		pulses: pulses,
		bar:    b,
		queue:  q,
		worker: w,
		output: output,
	}
}

// Status returns the most recently published snapshot of controller state.
func (c *Controller) Status() Status {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	return c.status
}

// RunInput pumps decoded channel messages from src into the bar buffer
// until ctx is cancelled or src reports a disconnect. This is the MIDI
// input thread from spec.md §5.
func (c *Controller) RunInput(ctx context.Context, src EventSource) error {
	for {
		status, d1, d2, err := src.ReadEvent(ctx)
		if err != nil {
			return err
		}
		event, ok := midi.DecodeChannelMessage(status, d1, d2)
		if !ok {
			continue
		}
		c.bar.Append(event, c.pulses.PulseCount())
	}
}

// RunControl runs the control loop until ctx is cancelled. It must never
// block: each iteration does a bounded amount of work and then sleeps
// briefly.
func (c *Controller) RunControl(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

func (c *Controller) tick() {
	currentPulse := c.pulses.PulseCount()

	c.detectBoundaries(currentPulse)
	c.pollResult(currentPulse)
	c.dispatch(currentPulse)
	c.publishStatus(currentPulse)
}

// detectBoundaries implements spec.md §4.5.1. It may cross more than one
// boundary in a single iteration if the control loop fell behind.
func (c *Controller) detectBoundaries(currentPulse uint64) {
	anchor, ok := c.bar.Anchor()
	if !ok {
		return
	}
	pulsesPerBar := c.cfg.PulsesPerBar()
	if c.nextBarBoundary == nil {
		b := anchor + pulsesPerBar
		c.nextBarBoundary = &b
	}

	for currentPulse >= *c.nextBarBoundary {
		finishedBar := (*c.nextBarBoundary-anchor)/pulsesPerBar - 1
		c.log.Infow("[bar_boundary]", "bar_index", finishedBar, "pulse", *c.nextBarBoundary, "phase", c.phase.String())
		if c.phase == Collect {
			c.handleBoundary(finishedBar)
		}
		next := *c.nextBarBoundary + pulsesPerBar
		c.nextBarBoundary = &next
	}
}

// handleBoundary implements spec.md §4.5.2.
func (c *Controller) handleBoundary(finishedBar uint64) {
	current := c.bar.Take(finishedBar)
	if len(current) == 0 {
		c.prevBarEvents = current
		return
	}

	prompt := make([]midi.InputEvent, 0, len(c.prevBarEvents)+len(current))
	prompt = append(prompt, c.prevBarEvents...)
	prompt = append(prompt, current...)
	c.prevBarEvents = current

	blob := midi.EncodeSMF(c.normalizeToWindowStart(finishedBar, prompt), uint16(c.cfg.TicksPerBeat))
	job := genworker.NewJob(finishedBar, blob, c.cfg.Temperature, c.cfg.TopP, c.cfg.Measures)

	if !c.worker.Submit(job) {
		c.log.Warnw("generation worker queue full, dropping job", "bar_index", finishedBar)
		return
	}
	c.pendingJob = job
	c.log.Infow("[enqueue]", "bar_index", finishedBar, "prompt_events", len(prompt))
}

// normalizeToWindowStart rewrites each event's absolute capture pulse as an
// offset from the start of the prompt window (the previous bar, or the
// current bar if there is no previous one), so the encoded SMF starts at or
// near tick 0 regardless of how far into the session the bar fell. Without
// this, the leading silence before the first note would grow without bound
// as finishedBar increases.
func (c *Controller) normalizeToWindowStart(finishedBar uint64, prompt []midi.InputEvent) []midi.InputEvent {
	anchor, ok := c.bar.Anchor()
	if !ok {
		return prompt
	}
	pulsesPerBar := c.cfg.PulsesPerBar()
	windowStart := anchor
	if finishedBar > 0 {
		windowStart = anchor + (finishedBar-1)*pulsesPerBar
	}

	normalized := make([]midi.InputEvent, len(prompt))
	for i, ie := range prompt {
		rel := uint64(0)
		if ie.Pulse > windowStart {
			rel = ie.Pulse - windowStart
		}
		normalized[i] = midi.InputEvent{Event: ie.Event, Pulse: rel}
	}
	return normalized
}

// pollResult implements spec.md §4.5.3. Results are only ever consumed
// while in COLLECT; per spec.md §7 a job cannot exist while in PLAY, so no
// separate late-result branch is needed.
func (c *Controller) pollResult(currentPulse uint64) {
	if c.phase != Collect || c.pendingJob == nil || !c.pendingJob.Done() {
		return
	}

	job := c.pendingJob
	c.pendingJob = nil
	result := job.Result()

	if result.Err != nil {
		c.log.Infow("[gen_worker] result discarded", "bar_index", job.BarIndex, "error", result.Err)
		return
	}

	c.log.Infow("[ai_ready]", "bar_index", job.BarIndex, "midi_bytes", len(result.MIDI))
	c.scheduleResponse(currentPulse, result.MIDI)
}

// scheduleResponse implements spec.md §4.5.4 (window enforcement) and the
// tail of §4.5.3 (phase transition).
func (c *Controller) scheduleResponse(boundaryPulse uint64, blob []byte) {
	window := c.cfg.Window()
	batch, err := midi.ParseWindow(blob, c.cfg.TicksPerBeat, boundaryPulse, window, outputChannel)
	if err != nil {
		c.log.Warnw("discarding malformed generated MIDI", "error", err)
		return
	}

	if c.queue.Size() > 0 {
		c.queue.Clear()
	}
	c.queue.PushMany(batch)

	minPulse, maxPulse := boundaryPulse, boundaryPulse
	for _, s := range batch {
		if s.TargetPulse < minPulse {
			minPulse = s.TargetPulse
		}
		if s.TargetPulse > maxPulse {
			maxPulse = s.TargetPulse
		}
	}
	end := boundaryPulse + window
	c.modelEndPulse = &end

	c.log.Infow("[schedule]", "window_start", boundaryPulse, "window_end", end, "min_pulse", minPulse, "max_pulse", maxPulse, "events", len(batch))
	c.log.Infow("[phase] COLLECT -> PLAY", "model_end_pulse", end)
	c.phase = Play
}

// dispatch implements spec.md §4.5.5.
func (c *Controller) dispatch(currentPulse uint64) {
	due := c.queue.DrainDue(currentPulse)
	for _, s := range due {
		if err := c.output.Send(s.Event); err != nil {
			c.log.Warnw("output sink disconnected, dropping event", "error", err, "event", s.Event.String())
		}
	}

	if c.phase == Play && c.modelEndPulse != nil && currentPulse >= *c.modelEndPulse {
		c.queue.Clear()
		c.bar.Clear()
		c.prevBarEvents = nil
		c.nextBarBoundary = nil
		c.modelEndPulse = nil
		c.log.Infow("[phase] PLAY -> COLLECT", "pulse", currentPulse)
		c.phase = Collect
	}
}

func (c *Controller) publishStatus(currentPulse uint64) {
	var anchor *uint64
	if a, ok := c.bar.Anchor(); ok {
		anchor = &a
	}

	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	c.status = Status{
		Phase:         c.phase.String(),
		PulseCount:    currentPulse,
		Anchor:        anchor,
		QueueSize:     c.queue.Size(),
		ModelEndPulse: c.modelEndPulse,
	}
}
