// internal/handler/banks.go
package handler

import (
	"cashback-optimizer/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListBanks godoc
// @Summary List banks with cards and categories
// @Param month query int false "Month 1-12, together with year"
// @Param year query int false "Year, together with month"
// @Success 200 {array} domain.BankWithCards
// @Failure 400 {object} map[string]string
// @Router /api/v1/banks [get]
func (h *CashbackHandler) ListBanks(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	period, err := queryPeriod(c, false)
	if err != nil {
		respondError(c, err)
		return
	}

	banks, err := h.svc.ListBanks(c.Request.Context(), userID, period)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, banks)
}

// CreateBank godoc
// @Summary Create a bank
// @Param request body service.BankInput true "Bank"
// @Success 201 {object} domain.Bank
// @Failure 400 {object} map[string]string
// @Router /api/v1/banks [post]
func (h *CashbackHandler) CreateBank(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.BankInput
	if !bindJSON(c, &req) {
		return
	}

	bank, err := h.svc.CreateBank(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bank)
}

// GetBank godoc
// @Summary Get one bank with its cards and categories
// @Success 200 {object} domain.BankWithCards
// @Failure 404 {object} map[string]string
// @Router /api/v1/banks/{bank_id} [get]
func (h *CashbackHandler) GetBank(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	bankID, ok := pathID(c, "bank_id")
	if !ok {
		return
	}

	bank, err := h.svc.GetBank(c.Request.Context(), userID, bankID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bank)
}

func (h *CashbackHandler) UpdateBank(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	bankID, ok := pathID(c, "bank_id")
	if !ok {
		return
	}
	var req service.BankInput
	if !bindJSON(c, &req) {
		return
	}

	bank, err := h.svc.UpdateBank(c.Request.Context(), userID, bankID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bank)
}

// DeleteBank godoc
// @Summary Delete a bank with all its cards and categories
// @Success 200 {object} map[string]string{"status":"ok"}
// @Failure 404 {object} map[string]string
// @Router /api/v1/banks/{bank_id} [delete]
func (h *CashbackHandler) DeleteBank(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	bankID, ok := pathID(c, "bank_id")
	if !ok {
		return
	}

	if err := h.svc.DeleteBank(c.Request.Context(), userID, bankID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
