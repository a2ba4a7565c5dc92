package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"pnodewatch/models"
	"pnodewatch/services"
	"pnodewatch/utils"
)

// nodeView is a PNode plus the derived per-node metrics. The derived fields
// are computed at request time from the cached node set, never stored.
type nodeView struct {
	models.PNode
	HealthScore     int     `json:"health_score"`
	EstimatedReward float64 `json:"estimated_reward"`
}

func toView(node models.PNode) nodeView {
	return nodeView{
		PNode:           node,
		HealthScore:     utils.HealthScore(&node),
		EstimatedReward: utils.EstimatedReward(&node),
	}
}

// GetNodes returns every node from the latest poll with derived metrics.
func (h *Handler) GetNodes(c echo.Context) error {
	nodes := h.Poller.GetNodes()

	views := make([]nodeView, 0, len(nodes))
	for _, node := range nodes {
		views = append(views, toView(node))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"nodes": views,
		"count": len(views),
	})
}

// GetNode returns a single node by ID, pubkey or address.
func (h *Handler) GetNode(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "node id is required"})
	}

	node, found := h.Poller.GetNode(id)
	if !found {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "node not found"})
	}

	return c.JSON(http.StatusOK, toView(node))
}

// GetRewardRate reports the advertised reward formula parameters.
func (h *Handler) GetRewardRate(c echo.Context) error {
	return c.JSON(http.StatusOK, utils.GetRewardRateInfo())
}

// GetRecentNodes lists nodes first seen in the last 7 days, from the
// registry. Returns an empty list when the registry is disabled.
func (h *Handler) GetRecentNodes(c echo.Context) error {
	records, err := h.Mongo.RecentlyJoined(c.Request().Context(), 7*24*time.Hour)
	if err != nil {
		h.Logger.WithError(err).Error("Failed to query node registry")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "registry query failed"})
	}
	if records == nil {
		records = []services.NodeRecord{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"nodes": records,
		"count": len(records),
	})
}
