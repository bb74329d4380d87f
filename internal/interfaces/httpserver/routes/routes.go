package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/solodesk/voice-api/internal/domain/intake"
	"github.com/solodesk/voice-api/internal/infrastructure/metrics"
	"github.com/solodesk/voice-api/internal/interfaces/httpserver/handlers"
)

// Provider registers the voice routes on the engine.
type Provider struct {
	handlers *handlers.Provider
}

// NewProvider builds the route registrar.
func NewProvider(handlerProvider *handlers.Provider) *Provider {
	return &Provider{handlers: handlerProvider}
}

// Register attaches the voice routes.
func (p *Provider) Register(engine *gin.Engine) {
	engine.POST("/voice", postVoice(p.handlers.Voice))
	engine.POST("/voice/clear", postVoiceClear(p.handlers.Voice))
}

type voiceRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"sessionId"`
}

type clearRequest struct {
	SessionID string `json:"sessionId"`
}

type voiceResponse struct {
	intake.TurnResult
	SessionID string `json:"session_id"`
}

type clearResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// postVoice godoc
// @Summary      Process one voice utterance
// @Description  Runs one slot-filling turn and returns the structured result plus the spoken reply.
// @Tags         voice
// @Accept       json
// @Produce      json
// @Success      200  {object}  voiceResponse
// @Failure      400  {object}  errorResponse
// @Router       /voice [post]
func postVoice(handler *handlers.VoiceHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req voiceRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
			// Missing input is the one failure surfaced as a client error,
			// before any engine call.
			c.JSON(http.StatusBadRequest, errorResponse{Error: "text is required"})
			return
		}

		ctx := c.Request.Context()
		sessionID := handler.ResolveSession(req.SessionID)

		result, err := handler.HandleTurn(ctx, sessionID, req.Text)
		if err != nil {
			// Absorbed at the boundary: a well-formed conversational reply,
			// never a transport fault.
			zerolog.Ctx(ctx).Error().Err(err).Str("session_id", sessionID).Msg("turn failed")
			result = &intake.TurnResult{
				State:          intake.StateError,
				Data:           map[string]any{},
				MissingFields:  []string{},
				SpokenResponse: "Sorry, something went wrong on my end. Please try again.",
			}
		}

		metrics.TurnsTotal.WithLabelValues(result.State.String()).Inc()
		c.JSON(http.StatusOK, voiceResponse{TurnResult: *result, SessionID: sessionID})
	}
}

// postVoiceClear godoc
// @Summary      Clear a session
// @Description  Drops the session transcript and collected data. Always acknowledges.
// @Tags         voice
// @Accept       json
// @Produce      json
// @Success      200  {object}  clearResponse
// @Router       /voice/clear [post]
func postVoiceClear(handler *handlers.VoiceHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req clearRequest
		_ = c.ShouldBindJSON(&req)

		ctx := c.Request.Context()
		sessionID := handler.ResolveSession(req.SessionID)

		if err := handler.ClearSession(ctx, sessionID); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("session_id", sessionID).Msg("clear failed")
		}

		metrics.SessionsCleared.Inc()
		c.JSON(http.StatusOK, clearResponse{Status: "cleared", SessionID: sessionID})
	}
}
