package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetNetworkStats returns the aggregate counters from the latest poll.
func (h *Handler) GetNetworkStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Poller.GetStats())
}
