package utils

import (
	"math"

	"pnodewatch/models"
)

// RewardRatePerTiB is the approximate emission per TiB of served storage per
// month. Placeholder until the rate can be read from the network itself.
const RewardRatePerTiB = 100.0

const bytesPerTiB = 1 << 40

// EstimatedReward projects a node's monthly reward in network units.
// Only online nodes earn: the estimate reflects currently-serving capacity.
// Uptime scales the base linearly from 0.8x at 0 days to 1.2x at 30 days
// (clamped above); an unreported uptime leaves the multiplier at 1.0x.
// Latency below 100ms earns a 10% bonus; high latency is never penalized.
// The result is rounded to 2 decimal places.
func EstimatedReward(n *models.PNode) float64 {
	if n.Status != models.StatusOnline {
		return 0
	}

	storageUsedTiB := float64(n.UsedBytes()) / bytesPerTiB
	estimated := storageUsedTiB * RewardRatePerTiB

	if n.UptimeSeconds != nil {
		uptimeDays := float64(*n.UptimeSeconds) / 86400
		multiplier := math.Min(1.2, 0.8+(uptimeDays/30)*0.4)
		estimated *= multiplier
	}

	if n.LatencyMs != nil && *n.LatencyMs < 100 {
		estimated *= 1.1
	}

	return math.Round(estimated*100) / 100
}

// RewardRateInfo describes the assumptions behind EstimatedReward, served
// alongside per-node estimates so the UI can label them.
type RewardRateInfo struct {
	RatePerTiBPerMonth float64 `json:"rate_per_tib_per_month"`
	Note               string  `json:"note"`
}

func GetRewardRateInfo() RewardRateInfo {
	return RewardRateInfo{
		RatePerTiBPerMonth: RewardRatePerTiB,
		Note:               "Estimated from current network parameters. Actual rewards may vary.",
	}
}
