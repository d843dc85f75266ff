// internal/handler/recommendations.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Recommend godoc
// @Summary Rank cards by cashback for a category in a month
// @Param category query string true "Category name, matched ignoring case"
// @Param month query int true "Month 1-12"
// @Param year query int true "Year"
// @Success 200 {array} domain.Recommendation
// @Failure 400 {object} map[string]string
// @Router /api/v1/recommendations [get]
func (h *CashbackHandler) Recommend(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	period, err := queryPeriod(c, true)
	if err != nil {
		respondError(c, err)
		return
	}

	recs, err := h.svc.Recommend(c.Request.Context(), userID, c.Query("category"), *period)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}
