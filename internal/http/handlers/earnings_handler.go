// README: Earnings handlers: per-rider period summaries.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gasline/internal/http/middleware"
	"gasline/internal/modules/earnings"
	"gasline/internal/types"
)

type EarningsHandler struct {
	earnings *earnings.Service
}

func NewEarningsHandler(svc *earnings.Service) *EarningsHandler {
	return &EarningsHandler{earnings: svc}
}

// Summary serves GET /api/rider/earnings?period=today|week|month|all.
func (h *EarningsHandler) Summary(c *gin.Context) {
	period := earnings.Period(c.DefaultQuery("period", "today"))
	switch period {
	case earnings.PeriodToday, earnings.PeriodWeek, earnings.PeriodMonth, earnings.PeriodAll:
	default:
		writeError(c, http.StatusBadRequest, "invalid period")
		return
	}
	uid := types.ID(middleware.CallerUID(c))
	summary, records, err := h.earnings.SummaryByRider(c.Request.Context(), uid, period)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"summary": summary, "earnings": records})
}
