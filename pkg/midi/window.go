package midi

import (
	"bytes"
	"fmt"

	"gitlab.com/gomidi/midi/v2/smf"
)

// ParseWindow implements the window-enforcement algorithm of spec.md
// §4.5.4: it parses a generated MIDI blob as a Standard MIDI File,
// converts every channel-voice event's absolute tick to a pulse offset
// from boundaryPulse, and applies the drop/track/emit/close/silence rules
// so the returned batch never reaches beyond boundaryPulse+window.
//
// fallbackTPQ is used when the blob's time format does not self-declare a
// ticks-per-quarter-note resolution (e.g. SMPTE time code), per the
// ticks_per_beat configuration entry in spec.md §6.
func ParseWindow(blob []byte, fallbackTPQ int, boundaryPulse, window uint64, channel uint8) ([]Scheduled, error) {
	data, err := smf.ReadFrom(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("midi: malformed generated blob: %w", err)
	}

	tpq := fallbackTPQ
	if mt, ok := data.TimeFormat.(smf.MetricTicks); ok {
		tpq = int(mt)
	}
	if tpq <= 0 {
		tpq = fallbackTPQ
	}
	if tpq <= 0 {
		return nil, fmt.Errorf("midi: no usable ticks-per-quarter resolution")
	}

	active := make(map[uint8]bool)
	var batch []Scheduled

	for _, track := range data.Tracks {
		var absTick int64
		for _, ev := range track {
			absTick += int64(ev.Delta)

			e, ok := decodeSMFMessage(ev.Message)
			if !ok {
				continue
			}

			offset := uint64(absTick*24) / uint64(tpq)

			// Rule 1: drop anything at or beyond the window.
			if offset >= window {
				continue
			}

			// Rule 2: track active note-ons by pitch.
			switch e.Kind {
			case KindNoteOn:
				if e.Velocity > 0 {
					active[e.Pitch] = true
				} else {
					delete(active, e.Pitch)
				}
			case KindNoteOff:
				delete(active, e.Pitch)
			}

			// Rule 3: emit surviving events.
			batch = append(batch, Scheduled{TargetPulse: boundaryPulse + offset, Event: e})
		}
	}

	end := boundaryPulse + window

	// Rule 4: close every pitch still active at end of parsing.
	for pitch := range active {
		batch = append(batch, Scheduled{TargetPulse: end, Event: NoteOff(channel, pitch, 0)})
	}

	// Rule 5: silence the channel.
	batch = append(batch, Scheduled{TargetPulse: end, Event: AllNotesOff(channel)})

	return batch, nil
}

// decodeSMFMessage extracts a bridge Event from a raw SMF channel message,
// reusing the same status-byte grammar the live input port uses.
func decodeSMFMessage(msg smf.Message) (Event, bool) {
	raw := msg.Bytes()
	if len(raw) < 1 {
		return Event{}, false
	}
	status := raw[0]
	var d1, d2 byte
	if len(raw) > 1 {
		d1 = raw[1]
	}
	if len(raw) > 2 {
		d2 = raw[2]
	}
	return DecodeChannelMessage(status, d1, d2)
}
