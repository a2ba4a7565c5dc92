package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"pnodewatch/models"
)

// GetNetworkHistory returns the snapshot series, oldest first. With a
// ?hours=N query it returns only the points inside that window; otherwise
// the full retained series.
func (h *Handler) GetNetworkHistory(c echo.Context) error {
	var points []models.HistoryPoint

	if raw := c.QueryParam("hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "hours must be an integer"})
		}
		points = h.History.GetRecentHistory(hours)
	} else {
		points = h.History.GetHistory()
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"history": points,
		"count":   len(points),
	})
}

// ClearHistory drops the snapshot series and its persisted copy.
func (h *Handler) ClearHistory(c echo.Context) error {
	h.History.ClearHistory()
	h.Logger.Info("History cleared via API")
	return c.JSON(http.StatusOK, map[string]string{"status": "cleared"})
}
