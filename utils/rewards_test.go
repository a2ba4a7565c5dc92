package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pnodewatch/models"
)

const tib = int64(1) << 40

func TestEstimatedRewardOnlyOnlineNodesEarn(t *testing.T) {
	node := &models.PNode{
		Status:      models.StatusOffline,
		StorageUsed: int64p(10 * tib),
	}
	assert.Equal(t, 0.0, EstimatedReward(node))

	node.Status = models.StatusSyncing
	assert.Equal(t, 0.0, EstimatedReward(node))
}

func TestEstimatedRewardBaseRate(t *testing.T) {
	// 1 TiB served, no uptime or latency reported: base rate only.
	node := &models.PNode{
		Status:      models.StatusOnline,
		StorageUsed: int64p(tib),
	}
	assert.Equal(t, 100.0, EstimatedReward(node))
}

func TestEstimatedRewardUptimeMultiplier(t *testing.T) {
	node := &models.PNode{
		Status:      models.StatusOnline,
		StorageUsed: int64p(tib),
	}

	// Fresh node: 0.8x floor.
	node.UptimeSeconds = int64p(0)
	assert.Equal(t, 80.0, EstimatedReward(node))

	// 30 days reaches the 1.2x ceiling; more uptime does not exceed it.
	node.UptimeSeconds = int64p(30 * 86400)
	assert.Equal(t, 120.0, EstimatedReward(node))
	node.UptimeSeconds = int64p(300 * 86400)
	assert.Equal(t, 120.0, EstimatedReward(node))

	// 10 days interpolates linearly, rounded to cents.
	node.UptimeSeconds = int64p(10 * 86400)
	assert.Equal(t, 93.33, EstimatedReward(node))
}

func TestEstimatedRewardLatencyBonus(t *testing.T) {
	node := &models.PNode{
		Status:      models.StatusOnline,
		StorageUsed: int64p(tib),
		LatencyMs:   float64p(50),
	}
	assert.Equal(t, 110.0, EstimatedReward(node))

	// The bonus band is strictly below 100ms.
	node.LatencyMs = float64p(100)
	assert.Equal(t, 100.0, EstimatedReward(node))
}

func TestEstimatedRewardMultipliersCompose(t *testing.T) {
	node := &models.PNode{
		Status:        models.StatusOnline,
		StorageUsed:   int64p(tib),
		UptimeSeconds: int64p(30 * 86400),
		LatencyMs:     float64p(20),
	}
	// 100 * 1.2 * 1.1
	assert.Equal(t, 132.0, EstimatedReward(node))
}

func TestEstimatedRewardUnknownStorageEarnsNothing(t *testing.T) {
	node := &models.PNode{Status: models.StatusOnline}
	assert.Equal(t, 0.0, EstimatedReward(node))
}
