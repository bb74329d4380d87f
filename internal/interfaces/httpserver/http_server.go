package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/solodesk/voice-api/internal/config"
	"github.com/solodesk/voice-api/internal/infrastructure/auth"
	"github.com/solodesk/voice-api/internal/infrastructure/metrics"
	"github.com/solodesk/voice-api/internal/interfaces/httpserver/handlers"
	"github.com/solodesk/voice-api/internal/interfaces/httpserver/middlewares"
	"github.com/solodesk/voice-api/internal/interfaces/httpserver/routes"
)

// HttpServer wraps the gin engine with graceful shutdown helpers.
type HttpServer struct {
	cfg         *config.Config
	engine      *gin.Engine
	log         zerolog.Logger
	handlerProv *handlers.Provider
	routeProv   *routes.Provider
}

// New constructs the HTTP server with default middleware and routes.
func New(cfg *config.Config, log zerolog.Logger, handlerProvider *handlers.Provider, authValidator *auth.Validator) *HttpServer {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())
	engine.Use(middlewares.RequestID(log))
	if authValidator != nil {
		engine.Use(authValidator.Middleware())
	}

	routeProvider := routes.NewProvider(handlerProvider)
	registerCoreRoutes(engine, cfg, routeProvider)

	return &HttpServer{
		cfg:         cfg,
		engine:      engine,
		log:         log,
		handlerProv: handlerProvider,
		routeProv:   routeProvider,
	}
}

// Engine exposes the router, mainly for tests.
func (s *HttpServer) Engine() *gin.Engine {
	return s.engine
}

// Run starts the API and metrics listeners and handles graceful shutdown via
// context cancellation.
func (s *HttpServer) Run(ctx context.Context) error {
	apiServer := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.engine,
	}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsServer := &http.Server{
		Addr:    s.cfg.MetricsAddr(),
		Handler: metricsMux,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		s.log.Info().Str("addr", s.cfg.Addr()).Msg("HTTP server listening")
		err := apiServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		s.log.Info().Str("addr", s.cfg.MetricsAddr()).Msg("metrics server listening")
		err := metricsServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		s.log.Info().Msg("Context cancelled, shutting down HTTP servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		apiErr := apiServer.Shutdown(shutdownCtx)
		metricsErr := metricsServer.Shutdown(shutdownCtx)
		if apiErr != nil {
			return apiErr
		}
		return metricsErr
	})

	return group.Wait()
}

func registerCoreRoutes(engine *gin.Engine, cfg *config.Config, routeProvider *routes.Provider) {
	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": cfg.ServiceName,
			"status":  "ok",
		})
	})

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	engine.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	routeProvider.Register(engine)
}
