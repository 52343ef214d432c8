// Command phrasebridge runs the real-time MIDI bridge: it couples a live
// performer, driven through MIDI clock and channel messages, to a
// background generation model, and schedules the model's response back
// onto the performer's clock grid.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/brkline/phrasebridge/internal/statusapi"
	"github.com/brkline/phrasebridge/pkg/barbuffer"
	"github.com/brkline/phrasebridge/pkg/bridgecfg"
	"github.com/brkline/phrasebridge/pkg/controller"
	"github.com/brkline/phrasebridge/pkg/genworker"
	"github.com/brkline/phrasebridge/pkg/grid"
	"github.com/brkline/phrasebridge/pkg/midi"
	"github.com/brkline/phrasebridge/pkg/modelengine"
	"github.com/brkline/phrasebridge/pkg/schedqueue"
)

func main() {
	clockDevice := flag.String("clock-in", "", "path to a byte stream carrying MIDI clock realtime bytes (required)")
	midiDevice := flag.String("midi-in", "", "path to a byte stream carrying MIDI channel messages (required)")
	midiOut := flag.String("midi-out", "", "path to write dispatched MIDI channel messages (required)")
	modelURL := flag.String("model-engine", "", "model engine HTTP endpoint (overrides PHRASEBRIDGE_MODEL_ENGINE_URL)")
	statusAddr := flag.String("status-addr", "", "listen address for the status server (overrides PHRASEBRIDGE_STATUS_ADDR)")
	flag.Parse()

	if *clockDevice == "" || *midiDevice == "" || *midiOut == "" {
		log.Fatal("phrasebridge: -clock-in, -midi-in, and -midi-out are required")
	}

	cfg, err := bridgecfg.FromEnv()
	if err != nil {
		log.Fatalf("phrasebridge: config: %v", err)
	}
	if *modelURL != "" {
		cfg.ModelEngineURL = *modelURL
	}
	if *statusAddr != "" {
		cfg.StatusAddr = *statusAddr
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("phrasebridge: logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	clockFile, err := os.Open(*clockDevice)
	if err != nil {
		sugar.Fatalw("opening clock source", "error", err)
	}
	defer clockFile.Close()

	midiInFile, err := os.Open(*midiDevice)
	if err != nil {
		sugar.Fatalw("opening MIDI input source", "error", err)
	}
	defer midiInFile.Close()

	midiOutFile, err := os.OpenFile(*midiOut, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		sugar.Fatalw("opening MIDI output sink", "error", err)
	}
	defer midiOutFile.Close()

	clockSource := midi.NewByteSource(clockFile)
	inputSource := midi.NewByteSource(midiInFile)
	outputSink := midi.NewByteSink(midiOutFile)

	g := grid.New()
	bar := barbuffer.New(cfg.PulsesPerBar())
	queue := schedqueue.New()
	engine := modelengine.NewHTTPEngine(cfg.ModelEngineURL)
	worker := genworker.New(engine, sugar)
	ctl := controller.New(cfg, sugar, g, bar, queue, worker, outputSink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		sugar.Info("shutdown signal received")
		cancel()
	}()

	clockFatal := g.Run(ctx, clockSource)
	go func() {
		if err, ok := <-clockFatal; ok && err != nil {
			sugar.Errorw("clock source disconnected, shutting down", "error", err)
			cancel()
		}
	}()

	go func() {
		if err := ctl.RunInput(ctx, inputSource); err != nil && ctx.Err() == nil {
			sugar.Errorw("MIDI input disconnected, shutting down", "error", err)
			cancel()
		}
	}()

	go worker.Run(ctx)
	go ctl.RunControl(ctx)

	router := statusapi.NewRouter(cfg, func() statusapi.Snapshot {
		s := ctl.Status()
		return statusapi.Snapshot{
			Phase:         s.Phase,
			PulseCount:    s.PulseCount,
			Anchor:        s.Anchor,
			QueueSize:     s.QueueSize,
			ModelEndPulse: s.ModelEndPulse,
		}
	})
	go func() {
		if err := router.Run(cfg.StatusAddr); err != nil {
			sugar.Errorw("status server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("phrasebridge: shutting down")
	<-worker.Done()
}
