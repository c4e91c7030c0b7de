package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/satriahrh/voiceover/domain/entities"
	"github.com/satriahrh/voiceover/domain/repositories"
	"github.com/satriahrh/voiceover/internal/auth"
	"github.com/satriahrh/voiceover/internal/input"
	"github.com/satriahrh/voiceover/internal/websocket"
	"github.com/satriahrh/voiceover/usecase"
)

const serviceName = "voiceover-server"

// RouteConfig carries the dependencies of the HTTP routes
type RouteConfig struct {
	Service *usecase.VoiceoverService
	Hub     *websocket.Hub
	// Tokens enables operator authentication when set
	Tokens         *auth.TokenManager
	Gatherer       prometheus.Gatherer
	MaxUploadBytes int64
	Provider       string
	Logger         *zap.Logger
}

type handler struct {
	RouteConfig
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, cfg RouteConfig) {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = input.DefaultMaxFileSize
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	h := &handler{RouteConfig: cfg}

	// Health check
	e.GET("/health", h.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))

	// API v1 routes
	v1 := e.Group("/api/v1", h.requireOperator)

	v1.GET("/voices", h.listVoices)
	v1.POST("/slides/parse", h.parseSlides)
	v1.POST("/uploads", h.uploadTextFile)

	v1.POST("/runs", h.startRun)
	v1.GET("/runs/current", h.currentRun)
	v1.GET("/runs/:id", h.getRun)
	v1.GET("/runs/:id/slides/:index/audio", h.slideAudio)

	// WebSocket endpoint streaming run progress
	e.GET("/ws/runs/:id", h.runProgress, h.requireOperator)
}

func (h *handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:   "ok",
		Service:  serviceName,
		Provider: h.Provider,
		Running:  h.Service.IsRunning(),
	})
}

func (h *handler) listVoices(c echo.Context) error {
	return c.JSON(http.StatusOK, VoicesResponse{Voices: entities.AvailableVoices()})
}

func (h *handler) parseSlides(c echo.Context) error {
	var req ParseSlidesRequest
	if err := c.Bind(&req); err != nil {
		return invalidRequest(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, SlidesResponse{Slides: input.ParseSlides(req.Text)})
}

func (h *handler) uploadTextFile(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_file",
			Message: "A multipart field named file is required",
		})
	}

	if !input.IsTextFileName(fh.Filename) {
		return errorResponse(c, h.Logger, input.ErrNotTextFile)
	}

	f, err := fh.Open()
	if err != nil {
		return errorResponse(c, h.Logger, fmt.Errorf("%w: %v", input.ErrReadFailed, err))
	}
	defer f.Close()

	text, err := input.LoadTextFile(fh.Filename, f, h.MaxUploadBytes)
	if err != nil {
		return errorResponse(c, h.Logger, err)
	}

	h.Logger.Info("Text file uploaded",
		zap.String("fileName", fh.Filename),
		zap.Int("bytes", len(text)))

	return c.JSON(http.StatusOK, UploadResponse{
		FileName: fh.Filename,
		Text:     text,
		Slides:   input.ParseSlides(text),
	})
}

func (h *handler) startRun(c echo.Context) error {
	var req StartRunRequest
	if err := c.Bind(&req); err != nil {
		return invalidRequest(c, h.Logger, err)
	}

	run, err := h.Service.Start(c.Request().Context(), req.Text, req.Voice)
	if err != nil {
		return errorResponse(c, h.Logger, err)
	}

	c.Response().Header().Set(echo.HeaderLocation, "/api/v1/runs/"+run.ID)
	return c.JSON(http.StatusAccepted, run)
}

func (h *handler) currentRun(c echo.Context) error {
	run, err := h.Service.CurrentRun(c.Request().Context())
	if err != nil {
		return errorResponse(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, run)
}

func (h *handler) getRun(c echo.Context) error {
	run, err := h.Service.GetRun(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorResponse(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, run)
}

func (h *handler) slideAudio(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_index",
			Message: "Slide index must be a non-negative integer",
		})
	}

	clip, err := h.Service.GetClip(c.Request().Context(), c.Param("id"), index)
	if err != nil {
		return errorResponse(c, h.Logger, err)
	}

	disposition := "attachment"
	if c.QueryParam("inline") == "1" {
		disposition = "inline"
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("%s; filename=%q", disposition, entities.DownloadName(index)))

	return c.Blob(http.StatusOK, "audio/wav", clip.Data)
}

func (h *handler) runProgress(c echo.Context) error {
	run, err := h.Service.GetRun(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorResponse(c, h.Logger, err)
	}
	return websocket.HandleWebSocket(h.Hub, c, run, h.Logger)
}

// requireOperator checks the bearer token when authentication is enabled.
// Browsers cannot set headers on websocket requests, so a token query parameter is accepted too.
func (h *handler) requireOperator(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.Tokens == nil {
			return next(c)
		}

		var token string
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if token == "" {
			token = c.QueryParam("token")
		}

		if token == "" {
			h.Logger.Warn("Request rejected: missing token", zap.String("path", c.Path()))
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "missing_token",
				Message: "JWT token is required in Authorization header",
			})
		}

		claims, err := h.Tokens.ValidateToken(token)
		if errors.Is(err, auth.ErrInvalidRole) {
			h.Logger.Warn("Request rejected: invalid role", zap.Error(err))
			return c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "invalid_role",
				Message: "Only operator tokens are allowed",
			})
		}
		if err != nil {
			h.Logger.Warn("Request rejected: invalid token", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_token",
				Message: "Invalid or expired JWT token",
			})
		}

		c.Set("subject", claims.Subject)
		return next(c)
	}
}

func invalidRequest(c echo.Context, logger *zap.Logger, err error) error {
	logger.Warn("Failed to bind request", zap.Error(err))
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "invalid_request",
		Message: "Invalid request format",
	})
}

// errorResponse maps domain errors to HTTP status codes and error bodies
func errorResponse(c echo.Context, logger *zap.Logger, err error) error {
	status, body := http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "Internal server error",
	}

	switch {
	case errors.Is(err, input.ErrNoSlides):
		status, body = http.StatusBadRequest, ErrorResponse{"no_slides", "Please enter some text to generate voiceovers."}
	case errors.Is(err, entities.ErrInvalidVoice):
		status, body = http.StatusBadRequest, ErrorResponse{"invalid_voice", err.Error()}
	case errors.Is(err, input.ErrNotTextFile):
		status, body = http.StatusBadRequest, ErrorResponse{"not_text_file", "Please upload a .txt file."}
	case errors.Is(err, input.ErrFileTooLarge):
		status, body = http.StatusRequestEntityTooLarge, ErrorResponse{"file_too_large", err.Error()}
	case errors.Is(err, input.ErrReadFailed):
		status, body = http.StatusBadRequest, ErrorResponse{"read_failed", "Failed to read file."}
	case errors.Is(err, usecase.ErrRunInProgress):
		status, body = http.StatusConflict, ErrorResponse{"run_in_progress", "A generation run is already in progress."}
	case errors.Is(err, usecase.ErrServiceClosed):
		status, body = http.StatusServiceUnavailable, ErrorResponse{"service_unavailable", "The server is shutting down."}
	case errors.Is(err, repositories.ErrRunNotFound),
		errors.Is(err, repositories.ErrClipNotFound),
		errors.Is(err, entities.ErrSlideOutOfRange):
		status, body = http.StatusNotFound, ErrorResponse{"not_found", err.Error()}
	}

	if status == http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.JSON(status, body)
}
