package models

import "time"

// NetworkStats is the aggregate view over one normalized node batch.
// OnlineNodes + OfflineNodes + SyncingNodes == TotalNodes by construction.
type NetworkStats struct {
	TotalNodes   int `json:"total_nodes"`
	OnlineNodes  int `json:"online_nodes"`
	OfflineNodes int `json:"offline_nodes"`
	SyncingNodes int `json:"syncing_nodes"`

	TotalStorage int64 `json:"total_storage_bytes"`
	UsedStorage  int64 `json:"used_storage_bytes"`

	LastUpdated time.Time `json:"last_updated"`
}
