package midi

// Realtime tags the four single-byte MIDI realtime messages the clock
// source is allowed to emit (spec.md §6). Nothing else is consumed from
// that stream.
type Realtime uint8

const (
	RealtimeTick Realtime = iota
	RealtimeStart
	RealtimeContinue
	RealtimeStop
)

const (
	statusTick     byte = 0xF8
	statusStart    byte = 0xFA
	statusContinue byte = 0xFB
	statusStop     byte = 0xFC
)

// DecodeRealtime decodes a single status byte from the clock source. The
// second return value is false for any byte other than the four recognized
// realtime messages.
func DecodeRealtime(b byte) (Realtime, bool) {
	switch b {
	case statusTick:
		return RealtimeTick, true
	case statusStart:
		return RealtimeStart, true
	case statusContinue:
		return RealtimeContinue, true
	case statusStop:
		return RealtimeStop, true
	default:
		return 0, false
	}
}

const (
	statusNoteOffHi  byte = 0x80
	statusNoteOnHi   byte = 0x90
	statusControlHi  byte = 0xB0
	statusNibbleMask byte = 0xF0
	channelMask      byte = 0x0F
)

// DecodeChannelMessage decodes a single channel-voice message from the
// input source: note-on (0x9n), note-off (0x8n), and control-change (0xBn).
// Everything else (aftertouch, pitch bend, program change, system messages)
// reports ok=false and the caller drops it, per spec.md §6.
func DecodeChannelMessage(status, d1, d2 byte) (Event, bool) {
	channel := status & channelMask
	switch status & statusNibbleMask {
	case statusNoteOnHi:
		if d2 == 0 {
			// A note-on with velocity 0 is conventionally a note-off; the
			// bar buffer's anchor rule keys specifically on velocity > 0,
			// so surfacing it as NoteOn here (not NoteOff) preserves that
			// distinction for the caller.
			return NoteOn(channel, d1, 0), true
		}
		return NoteOn(channel, d1, d2), true
	case statusNoteOffHi:
		return NoteOff(channel, d1, d2), true
	case statusControlHi:
		return ControlChange(channel, d1, d2), true
	default:
		return Event{}, false
	}
}

// EncodeChannelMessage renders an Event back to raw status/data bytes for
// an output sink that wants the wire form.
func EncodeChannelMessage(e Event) (status, d1, d2 byte) {
	switch e.Kind {
	case KindNoteOn:
		return statusNoteOnHi | (e.Channel & channelMask), e.Pitch, e.Velocity
	case KindNoteOff:
		return statusNoteOffHi | (e.Channel & channelMask), e.Pitch, e.Velocity
	case KindControlChange:
		return statusControlHi | (e.Channel & channelMask), e.Controller, e.Value
	default:
		return 0, 0, 0
	}
}
