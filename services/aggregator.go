package services

import (
	"pnodewatch/models"
)

// ComputeNetworkStats reduces a normalized node batch into network-wide
// counters. It is a pure function: same batch in, same stats out, no clamping
// and no outlier rejection. Unknown storage figures count as zero in the
// sums. The status counts always partition the batch because the normalizer
// only emits the three known status values. LastUpdated is left zero; the
// caller stamps it, keeping the reduction deterministic.
func ComputeNetworkStats(nodes []models.PNode) models.NetworkStats {
	stats := models.NetworkStats{
		TotalNodes: len(nodes),
	}

	for i := range nodes {
		node := &nodes[i]

		switch node.Status {
		case models.StatusOnline:
			stats.OnlineNodes++
		case models.StatusSyncing:
			stats.SyncingNodes++
		case models.StatusOffline:
			stats.OfflineNodes++
		}

		stats.TotalStorage += node.CapacityBytes()
		stats.UsedStorage += node.UsedBytes()
	}

	return stats
}
