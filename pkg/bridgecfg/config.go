// Package bridgecfg implements the Configuration component (C8): the
// handful of tunables from spec.md §6, validated at construction time so
// the rest of the bridge never has to re-check them.
package bridgecfg

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the validated, immutable settings for one bridge run.
type Config struct {
	BeatsPerBar  int
	Measures     int
	Temperature  float64
	TopP         float64
	TicksPerBeat int

	ModelEngineURL string
	StatusAddr     string
}

// PulsesPerBar returns beats_per_bar * 24, the pulse length of one measure.
func (c Config) PulsesPerBar() uint64 {
	return uint64(c.BeatsPerBar) * 24
}

// Window returns the output window W = measures * pulses_per_bar.
func (c Config) Window() uint64 {
	return uint64(c.Measures) * c.PulsesPerBar()
}

// Default returns the spec.md §6 defaults: beats_per_bar=4, measures=2,
// temperature=0.8, top_p=0.9, ticks_per_beat=480.
func Default() Config {
	return Config{
		BeatsPerBar:    4,
		Measures:       2,
		Temperature:    0.8,
		TopP:           0.9,
		TicksPerBeat:   480,
		ModelEngineURL: "http://localhost:8800",
		StatusAddr:     ":8801",
	}
}

// Builder provides a fluent API for assembling a Config, validating each
// field's range at the point it's set so a single bad value fails where
// it's introduced rather than at first use.
type Builder struct {
	cfg Config
	err error
}

// NewBuilder starts from Default and lets the caller override fields.
func NewBuilder() *Builder {
	return &Builder{cfg: Default()}
}

// BeatsPerBar sets beats_per_bar; must be a positive integer.
func (b *Builder) BeatsPerBar(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n <= 0 {
		b.err = fmt.Errorf("bridgecfg: beats_per_bar must be positive, got %d", n)
		return b
	}
	b.cfg.BeatsPerBar = n
	return b
}

// Measures sets the output window length N; must be >= 1.
func (b *Builder) Measures(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n < 1 {
		b.err = fmt.Errorf("bridgecfg: measures must be >= 1, got %d", n)
		return b
	}
	b.cfg.Measures = n
	return b
}

// Temperature sets the sampling temperature; must be in [0, 2].
func (b *Builder) Temperature(t float64) *Builder {
	if b.err != nil {
		return b
	}
	if t < 0 || t > 2 {
		b.err = fmt.Errorf("bridgecfg: temperature must be in [0, 2], got %f", t)
		return b
	}
	b.cfg.Temperature = t
	return b
}

// TopP sets the sampling top-p; must be in (0, 1].
func (b *Builder) TopP(p float64) *Builder {
	if b.err != nil {
		return b
	}
	if p <= 0 || p > 1 {
		b.err = fmt.Errorf("bridgecfg: top_p must be in (0, 1], got %f", p)
		return b
	}
	b.cfg.TopP = p
	return b
}

// TicksPerBeat sets the fallback ticks-per-quarter resolution; must be
// positive.
func (b *Builder) TicksPerBeat(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n <= 0 {
		b.err = fmt.Errorf("bridgecfg: ticks_per_beat must be positive, got %d", n)
		return b
	}
	b.cfg.TicksPerBeat = n
	return b
}

// ModelEngineURL sets the model engine's HTTP endpoint.
func (b *Builder) ModelEngineURL(url string) *Builder {
	if b.err != nil {
		return b
	}
	if url == "" {
		b.err = fmt.Errorf("bridgecfg: model engine URL must not be empty")
		return b
	}
	b.cfg.ModelEngineURL = url
	return b
}

// StatusAddr sets the listen address for the status/observability server.
func (b *Builder) StatusAddr(addr string) *Builder {
	if b.err != nil {
		return b
	}
	if addr == "" {
		b.err = fmt.Errorf("bridgecfg: status address must not be empty")
		return b
	}
	b.cfg.StatusAddr = addr
	return b
}

// Build returns the assembled Config, or the first validation error
// encountered.
func (b *Builder) Build() (Config, error) {
	if b.err != nil {
		return Config{}, b.err
	}
	return b.cfg, nil
}

// FromEnv overlays environment variables onto Default: PHRASEBRIDGE_BEATS_PER_BAR,
// PHRASEBRIDGE_MEASURES, PHRASEBRIDGE_TEMPERATURE, PHRASEBRIDGE_TOP_P,
// PHRASEBRIDGE_TICKS_PER_BEAT, PHRASEBRIDGE_MODEL_ENGINE_URL,
// PHRASEBRIDGE_STATUS_ADDR. Unset variables keep their default; a value
// present but unparsable is a validation error.
func FromEnv() (Config, error) {
	b := NewBuilder()

	if v, ok := os.LookupEnv("PHRASEBRIDGE_BEATS_PER_BAR"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("bridgecfg: PHRASEBRIDGE_BEATS_PER_BAR: %w", err)
		}
		b.BeatsPerBar(n)
	}
	if v, ok := os.LookupEnv("PHRASEBRIDGE_MEASURES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("bridgecfg: PHRASEBRIDGE_MEASURES: %w", err)
		}
		b.Measures(n)
	}
	if v, ok := os.LookupEnv("PHRASEBRIDGE_TEMPERATURE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("bridgecfg: PHRASEBRIDGE_TEMPERATURE: %w", err)
		}
		b.Temperature(f)
	}
	if v, ok := os.LookupEnv("PHRASEBRIDGE_TOP_P"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("bridgecfg: PHRASEBRIDGE_TOP_P: %w", err)
		}
		b.TopP(f)
	}
	if v, ok := os.LookupEnv("PHRASEBRIDGE_TICKS_PER_BEAT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("bridgecfg: PHRASEBRIDGE_TICKS_PER_BEAT: %w", err)
		}
		b.TicksPerBeat(n)
	}
	if v, ok := os.LookupEnv("PHRASEBRIDGE_MODEL_ENGINE_URL"); ok {
		b.ModelEngineURL(v)
	}
	if v, ok := os.LookupEnv("PHRASEBRIDGE_STATUS_ADDR"); ok {
		b.StatusAddr(v)
	}

	return b.Build()
}
