package http

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davicafu/latamtradex/internal/analytics/domain"
	"github.com/davicafu/latamtradex/pkg/utils"
)

const dateLayout = "2006-01-02"

type SalesQuery interface {
	DailySales(ctx context.Context, start, end time.Time) ([]domain.DailySales, error)
}

type dailySalesDTO struct {
	Day           string  `json:"day"`
	Orders        int64   `json:"orders"`
	Revenue       float64 `json:"revenue"`
	UnitsReserved int64   `json:"unitsReserved"`
}

// AnalyticsHandler expone las consultas del log analítico.
type AnalyticsHandler struct {
	query SalesQuery
	now   func() time.Time
}

func NewAnalyticsHandler(query SalesQuery) *AnalyticsHandler {
	return &AnalyticsHandler{query: query, now: time.Now}
}

// RegisterRoutes registra /api/analytics.
func RegisterRoutes(r gin.IRouter, h *AnalyticsHandler) {
	g := r.Group("/api/analytics")
	g.GET("/daily-sales", h.DailySales)
}

// DailySales endpoint GET /api/analytics/daily-sales?from=YYYY-MM-DD&to=YYYY-MM-DD
// Sin parámetros devuelve los últimos 7 días.
func (h *AnalyticsHandler) DailySales(c *gin.Context) {
	today := h.now().UTC().Truncate(24 * time.Hour)
	start, end := today.AddDate(0, 0, -6), today

	var err error
	if v := c.Query("from"); v != "" {
		if start, err = time.Parse(dateLayout, v); err != nil {
			utils.SendBadRequest(c, "invalid from date", err.Error())
			return
		}
	}
	if v := c.Query("to"); v != "" {
		if end, err = time.Parse(dateLayout, v); err != nil {
			utils.SendBadRequest(c, "invalid to date", err.Error())
			return
		}
	}
	if end.Before(start) {
		utils.SendBadRequest(c, "to must not be before from")
		return
	}

	sales, err := h.query.DailySales(c.Request.Context(), start, end.Add(24*time.Hour-time.Nanosecond))
	if err != nil {
		utils.SendInternalServerError(c, "could not query analytics store")
		return
	}

	out := make([]dailySalesDTO, 0, len(sales))
	for _, d := range sales {
		out = append(out, dailySalesDTO{
			Day:           d.Day.UTC().Format(dateLayout),
			Orders:        d.Orders,
			Revenue:       d.Revenue,
			UnitsReserved: d.UnitsReserved,
		})
	}
	utils.SendSuccess(c, 200, out)
}
