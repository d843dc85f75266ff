// internal/handler/auth.go
package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type TokenIssuer interface {
	GenerateToken(userID int64) (string, error)
}

type loginRequest struct {
	UserID int64 `json:"user_id" binding:"required,min=1"`
}

// Login выдаёт dev-токен для user_id. Настоящая аутентификация живёт вне сервиса.
func Login(tokens TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required", "field": "user_id"})
			return
		}
		token, err := tokens.GenerateToken(req.UserID)
		if err != nil {
			slog.Error("Token generation failed", "error", err, "user_id", req.UserID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}
