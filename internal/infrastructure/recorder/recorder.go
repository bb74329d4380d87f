// Package recorder hands confirmed records to the business application.
// Persistence and retry semantics belong to that collaborator; this client
// posts once and reports the outcome.
package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/solodesk/voice-api/internal/domain/intake"
	"github.com/solodesk/voice-api/internal/infrastructure/metrics"
)

// recordPayload is the hand-off body.
type recordPayload struct {
	Action string         `json:"action"`
	Data   map[string]any `json:"data"`
	Source string         `json:"source"`
}

// HTTPRecorder posts confirmed records to the business app.
type HTTPRecorder struct {
	client *resty.Client
	log    zerolog.Logger
}

var _ intake.Recorder = (*HTTPRecorder)(nil)

// NewHTTPRecorder builds the resty-backed recorder.
func NewHTTPRecorder(baseURL string, timeout time.Duration, log zerolog.Logger) *HTTPRecorder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPRecorder{
		client: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout),
		log: log.With().Str("component", "recorder").Logger(),
	}
}

// Save posts the record under /records/{action}.
func (r *HTTPRecorder) Save(ctx context.Context, action string, data map[string]any) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(recordPayload{Action: action, Data: data, Source: "voice"}).
		Post("/records/" + action)
	if err != nil {
		return fmt.Errorf("post record: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("business app rejected record: %s", resp.Status())
	}

	metrics.RecordsSaved.WithLabelValues(action).Inc()
	r.log.Info().Str("action", action).Int("fields", len(data)).Msg("record handed off")
	return nil
}

// NoopRecorder logs and drops records. Used when no records endpoint is
// configured, e.g. local development.
type NoopRecorder struct {
	log zerolog.Logger
}

var _ intake.Recorder = (*NoopRecorder)(nil)

// NewNoopRecorder builds the logging no-op recorder.
func NewNoopRecorder(log zerolog.Logger) *NoopRecorder {
	return &NoopRecorder{log: log.With().Str("component", "recorder").Logger()}
}

// Save logs the confirmed record and succeeds.
func (r *NoopRecorder) Save(_ context.Context, action string, data map[string]any) error {
	r.log.Info().Str("action", action).Int("fields", len(data)).Msg("records endpoint not configured, dropping record")
	return nil
}
