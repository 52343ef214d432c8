// Package schedqueue implements the Scheduled Queue (C3): a pulse-ordered
// priority queue of outbound events awaiting their target pulse.
package schedqueue

import (
	"sort"
	"sync"

	"github.com/brkline/phrasebridge/pkg/midi"
)

// Queue is the pulse-ordered, lock-guarded scheduled queue. The zero value
// is not usable; use New.
type Queue struct {
	mu     sync.Mutex
	events []midi.Scheduled
	sorted bool
}

// New creates an empty Queue.
func New() *Queue {
	return &Queue{
		events: make([]midi.Scheduled, 0, 64),
		sorted: true,
	}
}

// PushMany inserts a batch of (target_pulse, event) pairs. The batch may
// arrive in any order; the invariant (non-decreasing target_pulse, with
// note-off preceding note-on at equal target_pulse, insertion order
// preserved otherwise) is restored before the lock is released.
func (q *Queue) PushMany(batch []midi.Scheduled) {
	if len(batch) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	q.events = append(q.events, batch...)
	q.sorted = false
	q.sortLocked()
}

// DrainDue removes and returns, in ascending target_pulse order, every
// entry whose target_pulse is less than or equal to currentPulse. Calling
// it twice in a row with no intervening PushMany yields an empty slice the
// second time.
func (q *Queue) DrainDue(currentPulse uint64) []midi.Scheduled {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.sorted {
		q.sortLocked()
	}

	idx := sort.Search(len(q.events), func(i int) bool {
		return q.events[i].TargetPulse > currentPulse
	})
	if idx == 0 {
		return nil
	}

	due := make([]midi.Scheduled, idx)
	copy(due, q.events[:idx])

	copy(q.events, q.events[idx:])
	q.events = q.events[:len(q.events)-idx]

	return due
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = q.events[:0]
	q.sorted = true
}

// Size returns the number of entries currently queued.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// sortLocked restores the sort invariant. Callers must hold q.mu.
//
// sort.SliceStable's stability is the mechanism that satisfies "preserve
// insertion order" for every tie except note-off/note-on, which the less
// function breaks explicitly in the direction §4.3 requires.
func (q *Queue) sortLocked() {
	sort.SliceStable(q.events, func(i, j int) bool {
		a, b := q.events[i], q.events[j]
		if a.TargetPulse != b.TargetPulse {
			return a.TargetPulse < b.TargetPulse
		}
		aOff := a.Event.Kind == midi.KindNoteOff
		bOn := b.Event.Kind == midi.KindNoteOn
		bOff := b.Event.Kind == midi.KindNoteOff
		aOn := a.Event.Kind == midi.KindNoteOn
		if aOff && bOn {
			return true
		}
		if aOn && bOff {
			return false
		}
		return false
	})
	q.sorted = true
}
