// internal/logger/logger.go
package logger

import (
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Setup ставит текстовый slog-хендлер процессным логгером по умолчанию.
func Setup(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// Gin logs one line per request. 5xx go out as errors, 4xx as warnings.
func Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"request_id", c.GetString("request_id"),
		}
		if id, ok := c.Get("user_id"); ok {
			attrs = append(attrs, "user_id", id)
		}

		switch {
		case status >= 500:
			slog.Error("HTTP request", attrs...)
		case status >= 400:
			slog.Warn("HTTP request", attrs...)
		default:
			slog.Info("HTTP request", attrs...)
		}
	}
}
