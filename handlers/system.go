package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

var startTime = time.Now()

// GetHealth is the liveness probe.
func (h *Handler) GetHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(startTime).String(),
	})
}

// GetStatus reports poller and storage state, including the last fetch error
// if the most recent cycle failed.
func (h *Handler) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"poller":         h.Poller.Status(),
		"store_mode":     h.Store.Mode(),
		"history_points": h.History.Len(),
		"registry":       h.Mongo.Enabled(),
	})
}

// RefreshNodes triggers an immediate poll cycle.
func (h *Handler) RefreshNodes(c echo.Context) error {
	if !h.Poller.RefreshNow() {
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "a poll cycle is already in progress"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "refreshed"})
}
