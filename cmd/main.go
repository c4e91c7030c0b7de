package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/satriahrh/voiceover/adapters"
	"github.com/satriahrh/voiceover/internal/api"
	"github.com/satriahrh/voiceover/internal/auth"
	"github.com/satriahrh/voiceover/internal/config"
	"github.com/satriahrh/voiceover/internal/metrics"
	"github.com/satriahrh/voiceover/internal/websocket"
	"github.com/satriahrh/voiceover/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("Invalid configuration", zap.Error(err))
	}

	// Initialize logger
	logger, err := cfg.NewLogger()
	if err != nil {
		zap.NewExample().Fatal("Failed to create logger", zap.Error(err))
	}
	defer logger.Sync()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize adapters
	textToSpeech, err := adapters.NewTextToSpeech(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize text-to-speech", zap.Error(err))
	}
	runRepo := adapters.NewMemoryRunRepository()

	m := metrics.New(prometheus.DefaultRegisterer)

	// Initialize WebSocket hub
	hubCtx, stopHub := context.WithCancel(context.Background())
	hub := websocket.NewHub(m, logger)
	go hub.Run(hubCtx)

	// Initialize usecase services
	voiceoverService := usecase.NewVoiceoverService(textToSpeech, runRepo, logger,
		usecase.WithPublisher(hub),
		usecase.WithMetrics(m),
		usecase.WithRequestsPerMinute(cfg.RequestsPerMinute))

	var tokens *auth.TokenManager
	if cfg.AuthEnabled() {
		tokens, err = auth.NewTokenManager(cfg.JWTSecret)
		if err != nil {
			logger.Fatal("Failed to initialize authentication", zap.Error(err))
		}
		logger.Info("Operator authentication enabled")
	}

	// Initialize API routes
	api.InitRoutes(e, api.RouteConfig{
		Service:        voiceoverService,
		Hub:            hub,
		Tokens:         tokens,
		Gatherer:       prometheus.DefaultGatherer,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Provider:       textToSpeech.Name(),
		Logger:         logger,
	})

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("provider", textToSpeech.Name()))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Stops the current run; its pending slides are recorded as failed
	voiceoverService.Close()
	stopHub()

	logger.Info("Server exited")
}
