// internal/handler/handler.go
package handler

import (
	"cashback-optimizer/internal/domain"
	"cashback-optimizer/internal/service"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type CashbackHandler struct {
	svc *service.Service
}

func NewCashbackHandler(svc *service.Service) *CashbackHandler {
	return &CashbackHandler{svc: svc}
}

// Register mounts the protected API on rg. rg is expected to already carry auth.
func (h *CashbackHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/banks", h.ListBanks)
	rg.POST("/banks", h.CreateBank)
	rg.GET("/banks/:bank_id", h.GetBank)
	rg.PUT("/banks/:bank_id", h.UpdateBank)
	rg.DELETE("/banks/:bank_id", h.DeleteBank)
	rg.GET("/banks/:bank_id/cards", h.ListCards)
	rg.POST("/banks/:bank_id/cards", h.CreateCard)

	rg.PUT("/cards/:card_id", h.UpdateCard)
	rg.DELETE("/cards/:card_id", h.DeleteCard)
	rg.POST("/cards/:card_id/categories", h.CreateCategory)
	rg.POST("/cards/:card_id/ingest", h.Ingest)

	rg.GET("/categories", h.ListCategories)
	rg.GET("/categories/names", h.CategoryNames)
	rg.PUT("/categories/:category_id", h.UpdateCategory)
	rg.DELETE("/categories/:category_id", h.DeleteCategory)

	rg.GET("/recommendations", h.Recommend)
}

// currentUser достаёт владельца, положенного в контекст auth-мидлварью.
func currentUser(c *gin.Context) (int64, bool) {
	userIDVal, ok := c.Get("user_id")
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "user_id missing"})
		return 0, false
	}
	id, ok := userIDVal.(int64)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "invalid user_id"})
		return 0, false
	}
	return id, true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer", "field": name})
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return false
	}
	return true
}

// queryPeriod reads month and year from the query string. Both must be present
// or both absent; required turns absence into an error.
func queryPeriod(c *gin.Context, required bool) (*domain.Period, error) {
	month, hasMonth := c.GetQuery("month")
	year, hasYear := c.GetQuery("year")
	if !hasMonth && !hasYear && !required {
		return nil, nil
	}

	m, err := strconv.Atoi(month)
	if err != nil {
		return nil, &domain.ValidationError{Field: "month", Reason: "must be an integer"}
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return nil, &domain.ValidationError{Field: "year", Reason: "must be an integer"}
	}
	p := domain.Period{Month: m, Year: y}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
