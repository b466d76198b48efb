package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupSync(base *echo.Group) {
	syncGroup := base.Group("/sync")
	syncGroup.POST("", h.runSync)
}

func (h *HttpAPIHandler) runSync(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.service.SyncService.SyncWatchlist(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to sync watchlist"})
	}

	intraday, err := h.service.SyncService.SyncIntraday(ctx, h.cfg.MarketData.Watchlist)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to sync intraday bars"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"daily":    result,
		"intraday": intraday,
	})
}
