// Package engine adapts an external OpenAI-compatible text-completion
// service into the intake.Engine port: transcript in, structured turn
// result out.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/solodesk/voice-api/internal/domain/conversation"
	"github.com/solodesk/voice-api/internal/domain/intake"
	"github.com/solodesk/voice-api/internal/infrastructure/metrics"
)

// Config holds the external engine connection settings.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Temperature       float32
	Timeout           time.Duration
	LanguageSelection bool
	// Clock stamps today's date into the instruction payload. Nil means
	// time.Now.
	Clock func() time.Time
}

// Client calls the external understanding engine.
type Client struct {
	api *openai.Client
	cfg Config
	log zerolog.Logger
	now func() time.Time
}

var _ intake.Engine = (*Client)(nil)

// NewClient builds the engine adapter.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	apiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		apiConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &Client{
		api: openai.NewClientWithConfig(apiConfig),
		cfg: cfg,
		log: log.With().Str("component", "engine").Logger(),
		now: now,
	}
}

// Interpret sends the instruction payload plus the bounded transcript and
// decodes the reply into a turn result. Transport errors pass through;
// replies that do not decode after unwrapping return ErrMalformedReply.
func (c *Client) Interpret(ctx context.Context, transcript []conversation.Turn) (*intake.TurnResult, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(transcript)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: buildInstructions(c.now(), c.cfg.LanguageSelection),
	})
	for _, turn := range transcript {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}

	started := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
	})
	metrics.EngineDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.EngineFailures.WithLabelValues("transport").Inc()
		return nil, fmt.Errorf("engine completion: %w", err)
	}
	c.log.Debug().
		Dur("duration", time.Since(started)).
		Int("transcript_turns", len(transcript)).
		Msg("engine call finished")

	if len(resp.Choices) == 0 {
		metrics.EngineFailures.WithLabelValues("malformed").Inc()
		return nil, fmt.Errorf("%w: reply carried no choices", intake.ErrMalformedReply)
	}

	result, err := decodeTurnResult(resp.Choices[0].Message.Content)
	if err != nil {
		metrics.EngineFailures.WithLabelValues("malformed").Inc()
		return nil, err
	}
	return result, nil
}

func decodeTurnResult(raw string) (*intake.TurnResult, error) {
	text := unwrapFences(raw)

	var result intake.TurnResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", intake.ErrMalformedReply, err)
	}
	if result.State == "" {
		return nil, fmt.Errorf("%w: missing state", intake.ErrMalformedReply)
	}
	if result.Data == nil {
		result.Data = map[string]any{}
	}
	if result.MissingFields == nil {
		result.MissingFields = []string{}
	}
	return &result, nil
}
