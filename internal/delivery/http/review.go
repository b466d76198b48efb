package http

import (
	"context"
	"net/http"

	"equity-lab/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupReview(base *echo.Group) {
	reviewGroup := base.Group("/review")
	reviewGroup.POST("", h.runReview)
}

func (h *HttpAPIHandler) runReview(c echo.Context) error {
	req := new(dto.ReviewRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	// A review batch gets its own timeout, it may touch many symbols.
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.cfg.Review.BatchTimeout)
	defer cancel()

	report, err := h.service.ReviewService.RunReview(ctx, *req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to run trade review"})
	}

	return c.JSON(http.StatusOK, report)
}
