package intake

import (
	"context"
	"errors"

	"github.com/solodesk/voice-api/internal/domain/conversation"
)

// ErrMalformedReply means the engine's reply did not decode as a TurnResult
// after unwrapping any formatting fences. Recoverable: the orchestrator maps
// it to the sentinel error turn and never persists the raw text.
var ErrMalformedReply = errors.New("malformed engine reply")

// Engine maps a bounded transcript to a structured turn result. The real
// implementation calls an external text-completion service; tests substitute
// scripted fakes.
type Engine interface {
	Interpret(ctx context.Context, transcript []conversation.Turn) (*TurnResult, error)
}

// Recorder receives confirmed, fully collected records. Retry and
// persistence semantics belong to the collaborator, not this service.
type Recorder interface {
	Save(ctx context.Context, action string, data map[string]any) error
}
