package models

// Node status values. A node whose payload carries no usable status
// information is treated as online; see services.NormalizeNode.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusSyncing = "syncing"
)

// PNode is the canonical record for one storage-provider node, produced by
// the normalizer from a raw directory payload. Optional numeric fields are
// pointers so that "not reported" stays distinguishable from zero.
type PNode struct {
	// Identity
	ID      string `json:"id"`
	Address string `json:"address"`
	Pubkey  string `json:"pubkey,omitempty"`
	Version string `json:"version,omitempty"`

	// Status
	Status   string `json:"status"`
	LastSeen int64  `json:"last_seen,omitempty"` // epoch ms

	// Storage (bytes)
	StorageCapacity *int64 `json:"storage_capacity,omitempty"`
	StorageUsed     *int64 `json:"storage_used,omitempty"`

	UptimeSeconds *int64   `json:"uptime_seconds,omitempty"`
	LatencyMs     *float64 `json:"latency_ms,omitempty"`
	Location      string   `json:"location,omitempty"`
	IPAddress     string   `json:"ip_address,omitempty"`

	// Consensus
	LastVote        *int64 `json:"last_vote,omitempty"`         // epoch ms
	LastBlockStored *int64 `json:"last_block_stored,omitempty"` // epoch ms
	BlocksBehind    *int64 `json:"blocks_behind,omitempty"`

	// Geo enrichment (filled by the poller when a resolver is configured)
	Country string  `json:"country,omitempty"`
	City    string  `json:"city,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`

	// Version enrichment
	VersionStatus   string `json:"version_status,omitempty"`
	IsUpgradeNeeded bool   `json:"is_upgrade_needed,omitempty"`
	UpgradeMessage  string `json:"upgrade_message,omitempty"`
}

// CapacityBytes returns the reported capacity, treating unknown as 0.
func (n *PNode) CapacityBytes() int64 {
	if n.StorageCapacity == nil {
		return 0
	}
	return *n.StorageCapacity
}

// UsedBytes returns the reported used storage, treating unknown as 0.
func (n *PNode) UsedBytes() int64 {
	if n.StorageUsed == nil {
		return 0
	}
	return *n.StorageUsed
}
