package midi

import (
	"bytes"
	"testing"

	"gitlab.com/gomidi/midi/v2/smf"
)

func TestEncodeSMFRoundTripsThroughReader(t *testing.T) {
	events := []InputEvent{
		{Event: NoteOn(0, 60, 100), Pulse: 100},
		{Event: NoteOff(0, 60, 0), Pulse: 112},
		{Event: NoteOn(0, 64, 90), Pulse: 100},
	}

	blob := EncodeSMF(events, 480)
	if !bytes.HasPrefix(blob, []byte("MThd")) {
		t.Fatalf("expected MThd header, got %x", blob[:4])
	}

	s, err := smf.ReadFrom(bytes.NewReader(blob))
	if err != nil {
		t.Fatalf("smf.ReadFrom: %v", err)
	}
	if len(s.Tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(s.Tracks))
	}

	var noteOns, noteOffs int
	for _, ev := range s.Tracks[0] {
		if decoded, ok := decodeSMFMessage(ev.Message); ok {
			switch decoded.Kind {
			case KindNoteOn:
				noteOns++
			case KindNoteOff:
				noteOffs++
			}
		}
	}
	if noteOns != 2 {
		t.Errorf("expected 2 note-on messages, got %d", noteOns)
	}
	if noteOffs != 1 {
		t.Errorf("expected 1 note-off message, got %d", noteOffs)
	}
}

func TestEncodeSMFOrdersByPulse(t *testing.T) {
	events := []InputEvent{
		{Event: NoteOn(0, 67, 100), Pulse: 200},
		{Event: NoteOn(0, 60, 100), Pulse: 0},
	}

	blob := EncodeSMF(events, 480)
	s, err := smf.ReadFrom(bytes.NewReader(blob))
	if err != nil {
		t.Fatalf("smf.ReadFrom: %v", err)
	}

	var pitches []uint8
	for _, ev := range s.Tracks[0] {
		if decoded, ok := decodeSMFMessage(ev.Message); ok && decoded.Kind == KindNoteOn {
			pitches = append(pitches, decoded.Pitch)
		}
	}
	if len(pitches) != 2 || pitches[0] != 60 || pitches[1] != 67 {
		t.Errorf("expected pitches sorted by pulse [60 67], got %v", pitches)
	}
}

func TestEncodeSMFEmpty(t *testing.T) {
	blob := EncodeSMF(nil, 480)
	if _, err := smf.ReadFrom(bytes.NewReader(blob)); err != nil {
		t.Fatalf("expected an empty-track SMF to still parse, got %v", err)
	}
}
