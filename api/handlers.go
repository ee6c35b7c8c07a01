package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alvinp540/edutrack/school"
	"github.com/alvinp540/edutrack/store"
)

// Handlers holds the HTTP handlers.
type Handlers struct {
	svc    *school.Service
	logger *slog.Logger
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}

// CreatedResponse is the body of a successful POST.
type CreatedResponse struct {
	ID string `json:"id"`
}

// DeletedResponse is the body of a successful DELETE.
type DeletedResponse struct {
	Deleted int64 `json:"deleted"`
}

// HandleHealth reports whether the store is reachable.
func (h *Handlers) HandleHealth(c *gin.Context) {
	b := h.svc.Backend()
	if err := b.Ping(c.Request.Context()); err != nil {
		h.logger.Warn("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Backend: b.Name()})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Backend: b.Name()})
}

// HandleStats returns the document count of every collection.
func (h *Handlers) HandleStats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func list[T any](h *Handlers, fn func(context.Context) ([]T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := fn(c.Request.Context())
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func get[T any](h *Handlers, fn func(context.Context, string) (T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, err := fn(c.Request.Context(), c.Param("ref"))
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func create[In any](h *Handlers, fn func(context.Context, In) (string, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in In
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
			return
		}
		id, err := fn(c.Request.Context(), in)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreatedResponse{ID: id})
	}
}

func update[P any](h *Handlers, fn func(context.Context, string, P) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch P
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
			return
		}
		if err := fn(c.Request.Context(), c.Param("ref"), patch); err != nil {
			h.writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func remove(h *Handlers, fn func(context.Context, string) (int64, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := fn(c.Request.Context(), c.Param("ref"))
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, DeletedResponse{Deleted: n})
	}
}

// statusOf maps a service error to an HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, school.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, school.ErrNotFound), errors.Is(err, school.ErrNoMatch):
		return http.StatusNotFound
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (h *Handlers) writeError(c *gin.Context, err error) {
	status := statusOf(err)
	resp := ErrorResponse{Error: err.Error()}

	var inputErr *school.InputError
	if errors.As(err, &inputErr) {
		resp.Fields = inputErr.Fields
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	}
	c.JSON(status, resp)
}
