// internal/handler/errors.go
package handler

import (
	"cashback-optimizer/internal/domain"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError maps the domain error taxonomy onto HTTP.
func respondError(c *gin.Context, err error) {
	status, body := errorBody(err)
	respondWith(c, status, body, err)
}

func respondWith(c *gin.Context, status int, body gin.H, err error) {
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed",
			"error", err, "method", c.Request.Method, "path", c.FullPath(), "request_id", c.GetString("request_id"))
	}
	c.JSON(status, body)
}

func errorBody(err error) (int, gin.H) {
	if ve, ok := domain.AsValidation(err); ok {
		return http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field}
	}
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, gin.H{"error": "invalid input"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, gin.H{"error": "not found"}
	case errors.Is(err, domain.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, gin.H{"error": "storage unavailable, retry later"}
	default:
		return http.StatusInternalServerError, gin.H{"error": "Internal error"}
	}
}
