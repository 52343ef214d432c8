package genworker

// Job is the generation job record from the data model: an immutable
// request, mutated exactly once on completion via Result. The submission
// side (the controller) only ever reads Result after Done() reports ready;
// the worker only ever writes to it once.
//
// Prompt is already SMF-encoded (pkg/midi.EncodeSMF) by the time the job is
// built, so the worker itself never needs to touch raw events.
type Job struct {
	BarIndex    uint64
	Prompt      []byte
	Temperature float64
	TopP        float64
	GenBars     int

	done   chan struct{}
	result Result
}

// Result holds either a generated MIDI blob or the reason generation
// failed.
type Result struct {
	MIDI []byte
	Err  error
}

// NewJob builds a Job ready for submission.
func NewJob(barIndex uint64, prompt []byte, temperature, topP float64, genBars int) *Job {
	return &Job{
		BarIndex:    barIndex,
		Prompt:      prompt,
		Temperature: temperature,
		TopP:        topP,
		GenBars:     genBars,
		done:        make(chan struct{}),
	}
}

// Done reports whether the job has completed. Safe to poll repeatedly
// without blocking.
func (j *Job) Done() bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}

// Result returns the job's result. Only meaningful once Done reports true.
func (j *Job) Result() Result {
	return j.result
}

// complete is called exactly once by the worker.
func (j *Job) complete(result Result) {
	j.result = result
	close(j.done)
}
