package engine

import (
	"errors"
	"testing"

	"github.com/solodesk/voice-api/internal/domain/intake"
)

func TestUnwrapFences(t *testing.T) {
	payload := `{"state":"collecting_data"}`

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare json", payload, payload},
		{"json fence", "```json\n" + payload + "\n```", payload},
		{"plain fence", "```\n" + payload + "\n```", payload},
		{"fence with trailing whitespace", "```json\n" + payload + "\n```\n\n", payload},
		{"single line fence", "```json" + payload + "```", payload},
		{"unclosed fence", "```json\n" + payload, payload},
		{"surrounding whitespace", "\n  " + payload + "  \n", payload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unwrapFences(tt.raw); got != tt.want {
				t.Errorf("unwrapFences(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDecodeTurnResult(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{
			name: "valid result",
			raw:  `{"state":"collecting_data","action":"create_appointment","data":{"client_name":"Karen"},"missing_fields":["title"],"next_question":"What type of appointment?","spoken_response":"Got it.","ready_to_save":false}`,
		},
		{
			name: "fenced valid result",
			raw:  "```json\n" + `{"state":"confirming","data":{},"missing_fields":[],"spoken_response":"Save it?","ready_to_save":true}` + "\n```",
		},
		{name: "prose instead of json", raw: "Sure! I booked that for you.", wantErr: true},
		{name: "truncated json", raw: `{"state":"collecting`, wantErr: true},
		{name: "missing state", raw: `{"action":"create_invoice"}`, wantErr: true},
		{name: "empty reply", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := decodeTurnResult(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, intake.ErrMalformedReply) {
					t.Fatalf("decodeTurnResult error = %v, want ErrMalformedReply", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeTurnResult: %v", err)
			}
			if result.Data == nil || result.MissingFields == nil {
				t.Error("decoded result must have non-nil data and missing_fields")
			}
		})
	}
}
