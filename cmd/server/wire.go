//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/solodesk/voice-api/internal/config"
	"github.com/solodesk/voice-api/internal/domain/conversation"
	"github.com/solodesk/voice-api/internal/domain/intake"
	"github.com/solodesk/voice-api/internal/infrastructure/auth"
	"github.com/solodesk/voice-api/internal/infrastructure/engine"
	"github.com/solodesk/voice-api/internal/infrastructure/logger"
	"github.com/solodesk/voice-api/internal/interfaces/httpserver"
	"github.com/solodesk/voice-api/internal/interfaces/httpserver/handlers"
)

var intakeSet = wire.NewSet(
	newMemoryStore,
	wire.Bind(new(conversation.Store), new(*conversation.MemoryStore)),
	newEngineConfig,
	engine.NewClient,
	wire.Bind(new(intake.Engine), new(*engine.Client)),
	newRecorder,
	newIntakeOptions,
	intake.NewService,
	newVoiceHandler,
	handlers.NewProvider,
)

// BuildApplication assembles the voice service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newAuthValidator,
		intakeSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newMemoryStore(cfg *config.Config) *conversation.MemoryStore {
	return conversation.NewMemoryStore(cfg.SessionWindow)
}

func newVoiceHandler(cfg *config.Config, service *intake.Service) *handlers.VoiceHandler {
	return handlers.NewVoiceHandler(service, cfg.DefaultSessionID)
}

func newAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}
