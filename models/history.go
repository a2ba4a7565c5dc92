package models

// HistoryPoint is one aggregated observation of the whole node population.
// The JSON field names are also the persisted layout: the history series is
// stored as a JSON array of these objects under a single namespaced key.
// totalStorage is capacity; usedStorage may exceed it if the source data is
// inconsistent — the series records what it was given.
type HistoryPoint struct {
	Timestamp    int64 `json:"timestamp"` // epoch ms, assigned at append time
	TotalNodes   int   `json:"totalNodes"`
	OnlineNodes  int   `json:"onlineNodes"`
	OfflineNodes int   `json:"offlineNodes"`
	SyncingNodes int   `json:"syncingNodes"`
	TotalStorage int64 `json:"totalStorage"` // bytes
	UsedStorage  int64 `json:"usedStorage"`  // bytes
}
