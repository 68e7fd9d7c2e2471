package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"blog-backend/internal/logutil"
)

func (h *Handler) hello(c echo.Context) error {
	return c.String(http.StatusOK, "Hello, World!")
}

// Health check
func (h *Handler) healthCheck(c echo.Context) error {
	if err := h.db.PingContext(c.Request().Context()); err != nil {
		log := logutil.GetOrDefault(c.Request().Context())
		log.Error().Err(err).Msg("Health check failed")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
