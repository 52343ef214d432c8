package schedqueue

import (
	"testing"

	"github.com/brkline/phrasebridge/pkg/midi"
)

func TestQueueEmpty(t *testing.T) {
	q := New()
	if q.Size() != 0 {
		t.Errorf("expected size 0, got %d", q.Size())
	}
	if due := q.DrainDue(1000); due != nil {
		t.Errorf("expected nil drain on empty queue, got %v", due)
	}
}

func TestQueuePushManySorts(t *testing.T) {
	q := New()
	q.PushMany([]midi.Scheduled{
		{TargetPulse: 300, Event: midi.NoteOn(0, 62, 100)},
		{TargetPulse: 100, Event: midi.NoteOn(0, 60, 100)},
		{TargetPulse: 200, Event: midi.NoteOn(0, 61, 100)},
	})

	if q.Size() != 3 {
		t.Fatalf("expected size 3, got %d", q.Size())
	}

	due := q.DrainDue(300)
	if len(due) != 3 {
		t.Fatalf("expected 3 due events, got %d", len(due))
	}
	for i := 1; i < len(due); i++ {
		if due[i].TargetPulse < due[i-1].TargetPulse {
			t.Errorf("events not in non-decreasing order: %+v", due)
		}
	}
}

func TestQueueDrainDueIsIdempotent(t *testing.T) {
	q := New()
	q.PushMany([]midi.Scheduled{{TargetPulse: 50, Event: midi.NoteOn(0, 60, 100)}})

	first := q.DrainDue(100)
	if len(first) != 1 {
		t.Fatalf("expected 1 event drained, got %d", len(first))
	}
	second := q.DrainDue(100)
	if len(second) != 0 {
		t.Errorf("expected empty drain on second call, got %v", second)
	}
}

func TestQueueDrainDueOnlyUpToPulse(t *testing.T) {
	q := New()
	q.PushMany([]midi.Scheduled{
		{TargetPulse: 10, Event: midi.NoteOn(0, 60, 100)},
		{TargetPulse: 20, Event: midi.NoteOn(0, 61, 100)},
	})

	due := q.DrainDue(10)
	if len(due) != 1 || due[0].TargetPulse != 10 {
		t.Errorf("expected only the pulse-10 event, got %+v", due)
	}
	if q.Size() != 1 {
		t.Errorf("expected 1 event remaining, got %d", q.Size())
	}
}

func TestQueueTieBreakNoteOffBeforeNoteOn(t *testing.T) {
	q := New()
	// Closing note-off for a previous phrase and a fresh note-on land on
	// the same pulse: the note-off must drain first so it never silences
	// the new note-on (spec.md §4.3).
	q.PushMany([]midi.Scheduled{
		{TargetPulse: 500, Event: midi.NoteOn(0, 64, 90)},
		{TargetPulse: 500, Event: midi.NoteOff(0, 60, 0)},
	})

	due := q.DrainDue(500)
	if len(due) != 2 {
		t.Fatalf("expected 2 events, got %d", len(due))
	}
	if due[0].Event.Kind != midi.KindNoteOff || due[1].Event.Kind != midi.KindNoteOn {
		t.Errorf("expected note-off before note-on at equal pulse, got %+v", due)
	}
}

func TestQueueTieBreakPreservesInsertionOrderOtherwise(t *testing.T) {
	q := New()
	q.PushMany([]midi.Scheduled{
		{TargetPulse: 10, Event: midi.ControlChange(0, 7, 100)},
		{TargetPulse: 10, Event: midi.ControlChange(0, 10, 64)},
	})

	due := q.DrainDue(10)
	if len(due) != 2 || due[0].Event.Controller != 7 || due[1].Event.Controller != 10 {
		t.Errorf("expected insertion order preserved among non note-on/off ties, got %+v", due)
	}
}

func TestQueueClear(t *testing.T) {
	q := New()
	q.PushMany([]midi.Scheduled{{TargetPulse: 1, Event: midi.NoteOn(0, 60, 100)}})
	q.Clear()
	if q.Size() != 0 {
		t.Errorf("expected size 0 after clear, got %d", q.Size())
	}
}

func TestQueueSuccessiveBatchesAcrossPulses(t *testing.T) {
	q := New()
	q.PushMany([]midi.Scheduled{{TargetPulse: 100, Event: midi.NoteOn(0, 60, 100)}})
	q.PushMany([]midi.Scheduled{{TargetPulse: 50, Event: midi.NoteOn(0, 61, 100)}})

	due := q.DrainDue(100)
	if len(due) != 2 {
		t.Fatalf("expected 2 events, got %d", len(due))
	}
	if due[0].TargetPulse != 50 || due[1].TargetPulse != 100 {
		t.Errorf("expected ascending order across batches, got %+v", due)
	}
}
