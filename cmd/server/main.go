package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/solodesk/voice-api/internal/config"
	"github.com/solodesk/voice-api/internal/domain/conversation"
	"github.com/solodesk/voice-api/internal/domain/intake"
	"github.com/solodesk/voice-api/internal/infrastructure/auth"
	"github.com/solodesk/voice-api/internal/infrastructure/engine"
	"github.com/solodesk/voice-api/internal/infrastructure/logger"
	"github.com/solodesk/voice-api/internal/infrastructure/observability"
	"github.com/solodesk/voice-api/internal/infrastructure/recorder"
	"github.com/solodesk/voice-api/internal/interfaces/httpserver"
	"github.com/solodesk/voice-api/internal/interfaces/httpserver/handlers"
)

// Application bundles the running service.
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

// NewApplication wires the top-level dependencies.
func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

// Start runs the HTTP listeners until the context is cancelled.
func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	store := conversation.NewMemoryStore(cfg.SessionWindow)
	engineClient := engine.NewClient(newEngineConfig(cfg), log)
	intakeService := intake.NewService(store, engineClient, newRecorder(cfg, log), log, newIntakeOptions(cfg))

	voiceHandler := handlers.NewVoiceHandler(intakeService, cfg.DefaultSessionID)
	handlerProvider := handlers.NewProvider(voiceHandler)
	httpServer := httpserver.New(cfg, log, handlerProvider, authValidator)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func newEngineConfig(cfg *config.Config) engine.Config {
	return engine.Config{
		APIKey:            cfg.EngineAPIKey,
		BaseURL:           cfg.EngineBaseURL,
		Model:             cfg.EngineModel,
		Temperature:       float32(cfg.EngineTemperature),
		Timeout:           cfg.EngineTimeout,
		LanguageSelection: cfg.LanguageSelection,
	}
}

func newIntakeOptions(cfg *config.Config) intake.Options {
	return intake.Options{
		LanguageSelection: cfg.LanguageSelection,
		MaxStalledTurns:   cfg.MaxStalledTurns,
	}
}

func newRecorder(cfg *config.Config, log zerolog.Logger) intake.Recorder {
	if cfg.RecordsBaseURL == "" {
		return recorder.NewNoopRecorder(log)
	}
	return recorder.NewHTTPRecorder(cfg.RecordsBaseURL, cfg.RecordsTimeout, log)
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
