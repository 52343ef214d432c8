// Package statusapi implements the Status/Observability Server (C9): a
// small read-only HTTP surface for inspecting a running bridge, grounded
// on the same gin+CORS shape used for guitartutor's backend API.
package statusapi

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/brkline/phrasebridge/pkg/bridgecfg"
)

// Snapshot is the subset of controller.Status the server renders, kept as
// its own type so this package does not need to import pkg/controller.
// Anchor and ModelEndPulse are nil when not yet set (no capture started, or
// not currently in PLAY).
type Snapshot struct {
	Phase         string
	PulseCount    uint64
	Anchor        *uint64
	QueueSize     int
	ModelEndPulse *uint64
}

// StatusProvider supplies a live snapshot on demand.
type StatusProvider func() Snapshot

// NewRouter builds the gin engine serving /health, /api/status, and
// /api/config. CORS origins are configurable via CORS_ORIGINS
// (comma-separated), defaulting to "*" for local development.
func NewRouter(cfg bridgecfg.Config, status StatusProvider) *gin.Engine {
	r := gin.Default()

	originsEnv := os.Getenv("CORS_ORIGINS")
	if originsEnv == "" {
		originsEnv = "*"
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins: strings.Split(originsEnv, ","),
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/status", func(c *gin.Context) {
			s := status()
			c.JSON(http.StatusOK, gin.H{
				"phase":           s.Phase,
				"pulse_count":     s.PulseCount,
				"anchor":          s.Anchor,
				"queue_size":      s.QueueSize,
				"model_end_pulse": s.ModelEndPulse,
			})
		})
		api.GET("/config", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"beats_per_bar":    cfg.BeatsPerBar,
				"measures":         cfg.Measures,
				"temperature":      cfg.Temperature,
				"top_p":            cfg.TopP,
				"ticks_per_beat":   cfg.TicksPerBeat,
				"pulses_per_bar":   cfg.PulsesPerBar(),
				"window":           cfg.Window(),
				"model_engine_url": cfg.ModelEngineURL,
			})
		})
	}

	return r
}
