package modelengine

import (
	"context"
	"errors"
	"sync"
)

// Fixture is an in-memory Engine stand-in for tests and offline runs. Calls
// are answered from a FIFO of pre-programmed results; once exhausted it
// returns ErrExhausted.
type Fixture struct {
	mu      sync.Mutex
	results []fixtureResult
	calls   []Request
}

type fixtureResult struct {
	resp Response
	err  error
}

// ErrExhausted is returned once every programmed result has been consumed.
var ErrExhausted = errors.New("modelengine: fixture exhausted")

// NewFixture creates an empty Fixture; use Return/Fail to program results.
func NewFixture() *Fixture {
	return &Fixture{}
}

// Return programs a successful result to be returned on the next call.
func (f *Fixture) Return(midiBlob []byte) *Fixture {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, fixtureResult{resp: Response{MIDI: midiBlob}})
	return f
}

// Fail programs a failing result to be returned on the next call.
func (f *Fixture) Fail(err error) *Fixture {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, fixtureResult{err: err})
	return f
}

// Generate implements Engine.
func (f *Fixture) Generate(ctx context.Context, req Request) (Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, req)

	if len(f.results) == 0 {
		return Response{}, ErrExhausted
	}
	next := f.results[0]
	f.results = f.results[1:]
	return next.resp, next.err
}

// Calls returns every request the fixture has received, in call order.
func (f *Fixture) Calls() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Request, len(f.calls))
	copy(out, f.calls)
	return out
}
