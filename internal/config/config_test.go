package config_test

import (
	"testing"

	"github.com/solodesk/voice-api/internal/config"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENGINE_API_KEY", "test-key")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ServiceName != "voice-api" {
		t.Errorf("ServiceName = %q, want voice-api", cfg.ServiceName)
	}
	if cfg.Addr() != ":3000" {
		t.Errorf("Addr() = %q, want :3000", cfg.Addr())
	}
	if cfg.SessionWindow != 24 {
		t.Errorf("SessionWindow = %d, want 24", cfg.SessionWindow)
	}
	if cfg.DefaultSessionID != "default-session" {
		t.Errorf("DefaultSessionID = %q, want default-session", cfg.DefaultSessionID)
	}
	if !cfg.LanguageSelection {
		t.Error("LanguageSelection should default to true")
	}
}

func TestLoad_RequiresEngineKey(t *testing.T) {
	t.Setenv("ENGINE_API_KEY", "")

	if _, err := config.Load(); err == nil {
		t.Fatal("Load should fail without ENGINE_API_KEY")
	}
}

func TestLoad_RejectsTinySessionWindow(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SESSION_WINDOW", "1")

	if _, err := config.Load(); err == nil {
		t.Fatal("Load should reject SESSION_WINDOW below 2")
	}
}

func TestLoad_AuthValidation(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("AUTH_ISSUER", "https://issuer.example.com")
	// Audience and JWKS URL missing.

	if _, err := config.Load(); err == nil {
		t.Fatal("Load should fail with incomplete auth settings")
	}

	t.Setenv("AUTH_AUDIENCE", "voice-api")
	t.Setenv("AUTH_JWKS_URL", "https://issuer.example.com/jwks.json")
	if _, err := config.Load(); err != nil {
		t.Fatalf("Load with full auth settings: %v", err)
	}
}
