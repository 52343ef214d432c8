// Package midi provides the wire-level event model for the bridge: a small
// tagged event variant, raw status-byte decode/encode for the channel and
// realtime messages spec.md enumerates, and standard MIDI file parsing for
// generated continuations (see window.go).
package midi

import "fmt"

// Kind tags an Event's variant. Only the three channel-voice messages the
// bridge recognizes are represented; DecodeChannelMessage reports "not ok"
// for everything else and the caller drops it.
type Kind uint8

const (
	KindNoteOn Kind = iota
	KindNoteOff
	KindControlChange
)

func (k Kind) String() string {
	switch k {
	case KindNoteOn:
		return "note-on"
	case KindNoteOff:
		return "note-off"
	case KindControlChange:
		return "control-change"
	default:
		return "unknown"
	}
}

// CCAllNotesOff is the controller number the window-enforcement "silence"
// rule emits at the end of every scheduled response.
const CCAllNotesOff uint8 = 123

// Event is the tagged record from the data model: a note event carries
// Pitch/Velocity, a control-change event carries Controller/Value. The
// unused pair is zero for a given Kind.
type Event struct {
	Kind       Kind
	Channel    uint8
	Pitch      uint8
	Velocity   uint8
	Controller uint8
	Value      uint8
}

func (e Event) String() string {
	switch e.Kind {
	case KindNoteOn:
		return fmt.Sprintf("NoteOn{ch:%d note:%d vel:%d}", e.Channel, e.Pitch, e.Velocity)
	case KindNoteOff:
		return fmt.Sprintf("NoteOff{ch:%d note:%d vel:%d}", e.Channel, e.Pitch, e.Velocity)
	case KindControlChange:
		return fmt.Sprintf("CC{ch:%d ctrl:%d val:%d}", e.Channel, e.Controller, e.Value)
	default:
		return "Event{?}"
	}
}

// IsNoteOnActive reports whether the event is a sounding note-on (velocity
// 0 is treated as a note-off by convention throughout the bridge).
func (e Event) IsNoteOnActive() bool {
	return e.Kind == KindNoteOn && e.Velocity > 0
}

// NoteOn builds a note-on event.
func NoteOn(channel, pitch, velocity uint8) Event {
	return Event{Kind: KindNoteOn, Channel: channel, Pitch: pitch, Velocity: velocity}
}

// NoteOff builds a note-off event.
func NoteOff(channel, pitch, velocity uint8) Event {
	return Event{Kind: KindNoteOff, Channel: channel, Pitch: pitch, Velocity: velocity}
}

// ControlChange builds a control-change event.
func ControlChange(channel, controller, value uint8) Event {
	return Event{Kind: KindControlChange, Channel: channel, Controller: controller, Value: value}
}

// AllNotesOff builds the all-notes-off controller event.
func AllNotesOff(channel uint8) Event {
	return ControlChange(channel, CCAllNotesOff, 0)
}

// InputEvent is an Event tagged with the absolute pulse it was captured at.
// This is what the input loop hands to the bar buffer.
type InputEvent struct {
	Event
	Pulse uint64
}

// Scheduled pairs an Event with the pulse it should be emitted at. This is
// the unit the scheduled queue (C3) stores and drains.
type Scheduled struct {
	TargetPulse uint64
	Event       Event
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteNumberToName renders a MIDI note number as scientific pitch notation,
// useful for log fields.
func NoteNumberToName(note uint8) string {
	octave := int(note/12) - 1
	return fmt.Sprintf("%s%d", noteNames[note%12], octave)
}
