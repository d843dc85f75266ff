// internal/handler/cards.go
package handler

import (
	"cashback-optimizer/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *CashbackHandler) ListCards(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	bankID, ok := pathID(c, "bank_id")
	if !ok {
		return
	}

	cards, err := h.svc.ListCards(c.Request.Context(), userID, bankID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cards)
}

// CreateCard godoc
// @Summary Add a card to a bank
// @Param request body service.CardInput true "Card"
// @Success 201 {object} domain.Card
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/banks/{bank_id}/cards [post]
func (h *CashbackHandler) CreateCard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	bankID, ok := pathID(c, "bank_id")
	if !ok {
		return
	}
	var req service.CardInput
	if !bindJSON(c, &req) {
		return
	}

	card, err := h.svc.CreateCard(c.Request.Context(), userID, bankID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, card)
}

func (h *CashbackHandler) UpdateCard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	cardID, ok := pathID(c, "card_id")
	if !ok {
		return
	}
	var req service.CardInput
	if !bindJSON(c, &req) {
		return
	}

	card, err := h.svc.UpdateCard(c.Request.Context(), userID, cardID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

func (h *CashbackHandler) DeleteCard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	cardID, ok := pathID(c, "card_id")
	if !ok {
		return
	}

	if err := h.svc.DeleteCard(c.Request.Context(), userID, cardID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
