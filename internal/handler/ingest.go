// internal/handler/ingest.go
package handler

import (
	"cashback-optimizer/internal/domain"
	"net/http"

	"github.com/gin-gonic/gin"
)

type IngestRequest struct {
	Month      int                        `json:"month"`
	Year       int                        `json:"year"`
	Categories []domain.ExtractedCategory `json:"categories"`
}

// Ingest godoc
// @Summary Store categories recognized from a bank screenshot
// @Description 201 when every entry was stored, 207 when some were rejected, 422 when none were stored
// @Param request body IngestRequest true "Extracted categories"
// @Success 201 {object} domain.IngestReport
// @Success 207 {object} domain.IngestReport
// @Failure 422 {object} domain.IngestReport
// @Router /api/v1/cards/{card_id}/ingest [post]
func (h *CashbackHandler) Ingest(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	cardID, ok := pathID(c, "card_id")
	if !ok {
		return
	}
	var req IngestRequest
	if !bindJSON(c, &req) {
		return
	}

	period := domain.Period{Month: req.Month, Year: req.Year}
	report, err := h.svc.Ingest(c.Request.Context(), userID, cardID, period, req.Categories)
	if err != nil {
		if len(report.Created) == 0 {
			respondError(c, err)
			return
		}
		// часть строк уже сохранена: отдаём отчёт вместе с ошибкой
		status, body := errorBody(err)
		body["report"] = report
		respondWith(c, status, body, err)
		return
	}

	c.JSON(ingestStatus(report), report)
}

func ingestStatus(r domain.IngestReport) int {
	switch {
	case !r.Partial():
		return http.StatusCreated
	case len(r.Created) > 0:
		return http.StatusMultiStatus
	default:
		return http.StatusUnprocessableEntity
	}
}
