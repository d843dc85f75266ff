// internal/handler/categories.go
package handler

import (
	"cashback-optimizer/internal/domain"
	"cashback-optimizer/internal/service"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// === DTO ===

type CreateCategoryRequest struct {
	service.CategoryInput
	Month int `json:"month"`
	Year  int `json:"year"`
}

// CreateCategory godoc
// @Summary Record a cashback rate for a card in a month
// @Param request body CreateCategoryRequest true "Category"
// @Success 201 {object} domain.CashbackCategory
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/cards/{card_id}/categories [post]
func (h *CashbackHandler) CreateCategory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	cardID, ok := pathID(c, "card_id")
	if !ok {
		return
	}
	var req CreateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	period := domain.Period{Month: req.Month, Year: req.Year}
	cat, err := h.svc.CreateCategory(c.Request.Context(), userID, cardID, period, req.CategoryInput)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// UpdateCategory заменяет название, процент и иконку. Период не меняется.
func (h *CashbackHandler) UpdateCategory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	categoryID, ok := pathID(c, "category_id")
	if !ok {
		return
	}
	var req service.CategoryInput
	if !bindJSON(c, &req) {
		return
	}

	cat, err := h.svc.UpdateCategory(c.Request.Context(), userID, categoryID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *CashbackHandler) DeleteCategory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	categoryID, ok := pathID(c, "category_id")
	if !ok {
		return
	}

	if err := h.svc.DeleteCategory(c.Request.Context(), userID, categoryID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListCategories godoc
// @Summary List categories, optionally by card and month
// @Param card_id query int false "Card id"
// @Param month query int false "Month 1-12, together with year"
// @Param year query int false "Year, together with month"
// @Success 200 {array} domain.CashbackCategory
// @Router /api/v1/categories [get]
func (h *CashbackHandler) ListCategories(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var filter domain.CategoryFilter
	if raw, has := c.GetQuery("card_id"); has {
		cardID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || cardID <= 0 {
			respondError(c, &domain.ValidationError{Field: "card_id", Reason: "must be a positive integer"})
			return
		}
		filter.CardID = &cardID
	}
	period, err := queryPeriod(c, false)
	if err != nil {
		respondError(c, err)
		return
	}
	filter.Period = period

	cats, err := h.svc.ListCategories(c.Request.Context(), userID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (h *CashbackHandler) CategoryNames(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	period, err := queryPeriod(c, true)
	if err != nil {
		respondError(c, err)
		return
	}

	names, err := h.svc.CategoryNames(c.Request.Context(), userID, *period)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, names)
}
