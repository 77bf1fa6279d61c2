// Package api exposes personas and the interview workflows as a JSON API.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BerylCAtieno/clientlens/internal/models"
	"github.com/BerylCAtieno/clientlens/internal/persona"
	"github.com/BerylCAtieno/clientlens/internal/profiler"
	"github.com/BerylCAtieno/clientlens/internal/workflow"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	store    persona.Store
	registry *workflow.Registry
	logger   *slog.Logger
}

func NewHandler(store persona.Store, registry *workflow.Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, registry: registry, logger: logger}
}

// Register mounts the API under /api.
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/api")

	g.GET("/personas", h.listPersonas)
	g.GET("/personas/:id", h.getPersona)
	g.PATCH("/personas/:id", h.patchPersona)

	g.POST("/preparations", h.createPreparation)
	g.GET("/preparations/:id", h.getPreparation)
	g.POST("/preparations/:id/submit", h.submitPreparation)
	g.DELETE("/preparations/:id", h.deletePreparation)

	g.POST("/analyses", h.createAnalysis)
	g.GET("/analyses/:id", h.getAnalysis)
	g.POST("/analyses/:id/submit", h.submitAnalysis)
	g.POST("/analyses/:id/confirm", h.confirmAnalysis)
	g.POST("/analyses/:id/discard", h.discardAnalysis)
	g.DELETE("/analyses/:id", h.deleteAnalysis)
}

type errorResponse struct {
	Error    string `json:"error"`
	Workflow any    `json:"workflow,omitempty"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, persona.ErrNotFound), errors.Is(err, workflow.ErrUnknownWorkflow):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrBusy), errors.Is(err, workflow.ErrStale), errors.Is(err, workflow.ErrNoResult):
		return http.StatusConflict
	case errors.Is(err, profiler.ErrGenerationFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(c *gin.Context, err error, snapshot any) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.FullPath()),
			slog.Int("status", status),
			slog.Any("error", err))
	}
	c.JSON(status, errorResponse{Error: err.Error(), Workflow: snapshot})
}
