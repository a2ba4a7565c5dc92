package utils

import (
	"math"

	"pnodewatch/models"
)

// HealthScore computes a node's composite health score (0-100, higher is
// better) from four bounded components:
//
//	status   max 40: online 40, syncing 20, offline/unknown 0
//	uptime   max 30: linear in uptime days, saturating at 30 days
//	storage  max 20: headroom ratio, lower usage is better
//	latency  max 10: banded, lower is better
//
// A component whose input is unknown contributes 0. The result is rounded
// to the nearest whole number and clamped to [0,100] so inconsistent source
// data (used > capacity) cannot push the score out of range.
func HealthScore(n *models.PNode) int {
	var score float64

	switch n.Status {
	case models.StatusOnline:
		score += 40
	case models.StatusSyncing:
		score += 20
	}

	if n.UptimeSeconds != nil {
		uptimeDays := float64(*n.UptimeSeconds) / 86400
		score += math.Min(30, (uptimeDays/30)*30)
	}

	if n.StorageCapacity != nil && *n.StorageCapacity > 0 {
		usagePercent := float64(n.UsedBytes()) / float64(*n.StorageCapacity)
		score += (1 - usagePercent) * 20
	}

	if n.LatencyMs != nil {
		switch latency := *n.LatencyMs; {
		case latency < 50:
			score += 10
		case latency < 100:
			score += 7
		case latency < 200:
			score += 4
		default:
			score += 1
		}
	}

	result := int(math.Round(score))
	if result > 100 {
		result = 100
	}
	if result < 0 {
		result = 0
	}
	return result
}
