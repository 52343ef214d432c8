package modelengine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPEngine calls a remote generation service over HTTP: the prompt and
// sampling parameters are POSTed as JSON, the result MIDI blob returns
// base64-encoded in the JSON body. This is the production implementation of
// Engine — the model itself is out of scope, so the bridge only needs to
// know how to reach it.
type HTTPEngine struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPEngine creates an HTTPEngine with a two-minute client timeout. That
// timeout caps every request regardless of the context's deadline; it is a
// backstop against a hung connection, not a per-job budget (spec.md §5 —
// there is no per-job timeout policy).
func NewHTTPEngine(endpoint string) *HTTPEngine {
	return &HTTPEngine{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 2 * time.Minute},
	}
}

type generateRequest struct {
	PromptMIDI     string  `json:"prompt_midi"`
	HorizonSeconds float64 `json:"horizon_seconds"`
	Temperature    float64 `json:"temperature"`
	TopP           float64 `json:"top_p"`
	GenBars        int     `json:"gen_bars"`
}

type generateResponse struct {
	MIDI  string `json:"midi"`
	Error string `json:"error"`
}

// Generate implements Engine.
func (h *HTTPEngine) Generate(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(generateRequest{
		PromptMIDI:     base64.StdEncoding.EncodeToString(req.PromptMIDI),
		HorizonSeconds: req.HorizonSeconds,
		Temperature:    req.Temperature,
		TopP:           req.TopP,
		GenBars:        req.GenBars,
	})
	if err != nil {
		return Response{}, fmt.Errorf("modelengine: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("modelengine: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.Client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("modelengine: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("modelengine: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("modelengine: status %d: %s", resp.StatusCode, string(raw))
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Response{}, fmt.Errorf("modelengine: decode response: %w", err)
	}
	if out.Error != "" {
		return Response{}, fmt.Errorf("modelengine: %s", out.Error)
	}

	midiBytes, err := base64.StdEncoding.DecodeString(out.MIDI)
	if err != nil {
		return Response{}, fmt.Errorf("modelengine: decode midi payload: %w", err)
	}

	return Response{MIDI: midiBytes}, nil
}
