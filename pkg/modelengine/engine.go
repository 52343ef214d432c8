// Package modelengine defines the external model collaborator spec.md §6
// describes as a black box: given a prompt MIDI blob, sampling parameters,
// and a horizon in seconds, produce a MIDI blob or fail.
package modelengine

import "context"

// Request is the immutable generation request sent to the model.
type Request struct {
	PromptMIDI     []byte
	HorizonSeconds float64
	Temperature    float64 // [0, 2]
	TopP           float64 // (0, 1]
	GenBars        int
}

// Response carries the model's output on success.
type Response struct {
	MIDI []byte
}

// Engine is the one operation the core consumes from the generative model.
// Implementations may be slow and must be safe to call from a single
// dedicated goroutine (the generation worker never calls concurrently).
type Engine interface {
	Generate(ctx context.Context, req Request) (Response, error)
}
