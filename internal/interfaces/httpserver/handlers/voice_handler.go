package handlers

import (
	"context"

	"github.com/solodesk/voice-api/internal/domain/intake"
)

// IntakeService is the slice of the orchestrator the HTTP layer uses.
type IntakeService interface {
	HandleTurn(ctx context.Context, sessionID, text string) (*intake.TurnResult, error)
	Reset(ctx context.Context, sessionID string) error
}

// VoiceHandler invokes the slot-filling orchestrator for voice routes.
type VoiceHandler struct {
	service          IntakeService
	defaultSessionID string
}

// NewVoiceHandler wires dependencies for the voice routes.
func NewVoiceHandler(service IntakeService, defaultSessionID string) *VoiceHandler {
	return &VoiceHandler{
		service:          service,
		defaultSessionID: defaultSessionID,
	}
}

// ResolveSession falls back to the shared default session when the caller
// sends no id.
func (h *VoiceHandler) ResolveSession(sessionID string) string {
	if sessionID == "" {
		return h.defaultSessionID
	}
	return sessionID
}

// HandleTurn processes one utterance.
func (h *VoiceHandler) HandleTurn(ctx context.Context, sessionID, text string) (*intake.TurnResult, error) {
	return h.service.HandleTurn(ctx, sessionID, text)
}

// ClearSession drops the session's conversational state.
func (h *VoiceHandler) ClearSession(ctx context.Context, sessionID string) error {
	return h.service.Reset(ctx, sessionID)
}
