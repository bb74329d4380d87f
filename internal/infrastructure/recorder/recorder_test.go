package recorder_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/solodesk/voice-api/internal/infrastructure/recorder"
)

func TestHTTPRecorder_Save(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	rec := recorder.NewHTTPRecorder(server.URL, 5*time.Second, zerolog.Nop())
	err := rec.Save(context.Background(), "create_appointment", map[string]any{"client_name": "Karen"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if gotPath != "/records/create_appointment" {
		t.Errorf("path = %q, want /records/create_appointment", gotPath)
	}
	if gotBody["action"] != "create_appointment" {
		t.Errorf("body action = %v, want create_appointment", gotBody["action"])
	}
	data, _ := gotBody["data"].(map[string]any)
	if data["client_name"] != "Karen" {
		t.Errorf("body data = %v, want client_name Karen", gotBody["data"])
	}
}

func TestHTTPRecorder_SaveRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "validation failed", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	rec := recorder.NewHTTPRecorder(server.URL, 5*time.Second, zerolog.Nop())
	if err := rec.Save(context.Background(), "create_invoice", nil); err == nil {
		t.Fatal("Save should surface rejections")
	}
}

func TestNoopRecorder_Save(t *testing.T) {
	rec := recorder.NewNoopRecorder(zerolog.Nop())
	if err := rec.Save(context.Background(), "create_expense", map[string]any{"amount": 50}); err != nil {
		t.Fatalf("Save: %v", err)
	}
}
