package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/solodesk/voice-api/internal/config"
	"github.com/solodesk/voice-api/internal/domain/intake"
	"github.com/solodesk/voice-api/internal/interfaces/httpserver"
	"github.com/solodesk/voice-api/internal/interfaces/httpserver/handlers"
)

// MockIntakeService is a scripted stand-in for the orchestrator.
type MockIntakeService struct {
	HandleTurnFunc func(ctx context.Context, sessionID, text string) (*intake.TurnResult, error)
	ResetFunc      func(ctx context.Context, sessionID string) error

	handleCalls []string
	resetCalls  []string
}

func (m *MockIntakeService) HandleTurn(ctx context.Context, sessionID, text string) (*intake.TurnResult, error) {
	m.handleCalls = append(m.handleCalls, sessionID)
	if m.HandleTurnFunc != nil {
		return m.HandleTurnFunc(ctx, sessionID, text)
	}
	return &intake.TurnResult{
		State:          intake.StateCollectingData,
		Data:           map[string]any{},
		MissingFields:  []string{},
		SpokenResponse: "ok",
	}, nil
}

func (m *MockIntakeService) Reset(ctx context.Context, sessionID string) error {
	m.resetCalls = append(m.resetCalls, sessionID)
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return nil
}

func newTestServer(service handlers.IntakeService) *httpserver.HttpServer {
	cfg := &config.Config{
		ServiceName:      "voice-api",
		Environment:      "test",
		DefaultSessionID: "default-session",
	}
	voiceHandler := handlers.NewVoiceHandler(service, cfg.DefaultSessionID)
	return httpserver.New(cfg, zerolog.Nop(), handlers.NewProvider(voiceHandler), nil)
}

func postJSON(t *testing.T, server *httpserver.HttpServer, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	server.Engine().ServeHTTP(recorder, req)
	return recorder
}

func TestPostVoice(t *testing.T) {
	question := "What type of appointment?"
	service := &MockIntakeService{
		HandleTurnFunc: func(_ context.Context, sessionID, text string) (*intake.TurnResult, error) {
			if text != "Book an appointment with Karen" {
				t.Errorf("text = %q", text)
			}
			return &intake.TurnResult{
				State:          intake.StateCollectingData,
				Action:         "create_appointment",
				Data:           map[string]any{"client_name": "Karen"},
				MissingFields:  []string{"title", "date", "time", "address", "duration_minutes"},
				NextQuestion:   &question,
				SpokenResponse: "Okay. What type of appointment?",
			}, nil
		},
	}
	server := newTestServer(service)

	recorder := postJSON(t, server, "/voice", map[string]string{
		"text":      "Book an appointment with Karen",
		"sessionId": "abc",
	})

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}

	var resp struct {
		State          string         `json:"state"`
		Action         string         `json:"action"`
		Data           map[string]any `json:"data"`
		MissingFields  []string       `json:"missing_fields"`
		NextQuestion   *string        `json:"next_question"`
		SpokenResponse string         `json:"spoken_response"`
		ReadyToSave    bool           `json:"ready_to_save"`
		SessionID      string         `json:"session_id"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.State != "collecting_data" {
		t.Errorf("state = %q, want collecting_data", resp.State)
	}
	if resp.SessionID != "abc" {
		t.Errorf("session_id = %q, want abc", resp.SessionID)
	}
	if resp.Data["client_name"] != "Karen" {
		t.Errorf("data = %v", resp.Data)
	}
	if resp.NextQuestion == nil || *resp.NextQuestion != question {
		t.Errorf("next_question = %v, want %q", resp.NextQuestion, question)
	}
}

func TestPostVoice_DefaultSession(t *testing.T) {
	service := &MockIntakeService{}
	server := newTestServer(service)

	recorder := postJSON(t, server, "/voice", map[string]string{"text": "hello"})

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if len(service.handleCalls) != 1 || service.handleCalls[0] != "default-session" {
		t.Errorf("handled sessions = %v, want [default-session]", service.handleCalls)
	}
}

func TestPostVoice_MissingTextIsClientError(t *testing.T) {
	service := &MockIntakeService{}
	server := newTestServer(service)

	tests := []struct {
		name string
		body any
	}{
		{"empty body", map[string]string{}},
		{"blank text", map[string]string{"text": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := postJSON(t, server, "/voice", tt.body)
			if recorder.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", recorder.Code)
			}
		})
	}

	if len(service.handleCalls) != 0 {
		t.Errorf("engine invoked %d times for invalid input, want 0", len(service.handleCalls))
	}
}

func TestPostVoice_ServiceFailureIsConversational(t *testing.T) {
	service := &MockIntakeService{
		HandleTurnFunc: func(context.Context, string, string) (*intake.TurnResult, error) {
			return nil, errors.New("store exploded")
		},
	}
	server := newTestServer(service)

	recorder := postJSON(t, server, "/voice", map[string]string{"text": "hello"})

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even on internal failure", recorder.Code)
	}
	var resp struct {
		State          string `json:"state"`
		SpokenResponse string `json:"spoken_response"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.State != "error" {
		t.Errorf("state = %q, want error", resp.State)
	}
	if resp.SpokenResponse == "" {
		t.Error("spoken_response should carry an apology")
	}
}

func TestPostVoiceClear(t *testing.T) {
	service := &MockIntakeService{}
	server := newTestServer(service)

	recorder := postJSON(t, server, "/voice/clear", map[string]string{"sessionId": "abc"})

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	var resp struct {
		Status    string `json:"status"`
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "cleared" {
		t.Errorf("status = %q, want cleared", resp.Status)
	}
	if len(service.resetCalls) != 1 || service.resetCalls[0] != "abc" {
		t.Errorf("reset calls = %v, want [abc]", service.resetCalls)
	}
}

func TestPostVoiceClear_EmptyBodyUsesDefaultSession(t *testing.T) {
	service := &MockIntakeService{}
	server := newTestServer(service)

	recorder := postJSON(t, server, "/voice/clear", map[string]string{})

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if len(service.resetCalls) != 1 || service.resetCalls[0] != "default-session" {
		t.Errorf("reset calls = %v, want [default-session]", service.resetCalls)
	}
}

func TestStatusRoute(t *testing.T) {
	server := newTestServer(&MockIntakeService{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	recorder := httptest.NewRecorder()
	server.Engine().ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["service"] != "voice-api" || resp["status"] != "ok" {
		t.Errorf("status payload = %v", resp)
	}
}
