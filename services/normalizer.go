package services

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"pnodewatch/models"
)

// NormalizeNode coerces one raw directory payload into a canonical PNode.
// It is a pure best-effort mapping: missing fields degrade the record, they
// never reject it, and unrecognized keys are dropped at this boundary.
func NormalizeNode(raw map[string]interface{}) models.PNode {
	id := firstString(raw, "id", "pubkey", "address")
	if id == "" {
		// No identifier at all is a data-quality failure in the source;
		// synthesize one so the record stays addressable.
		id = uuid.NewString()
	}

	address := firstString(raw, "address", "pubkey", "id")

	node := models.PNode{
		ID:      id,
		Address: address,
		Pubkey:  firstString(raw, "pubkey", "publicKey"),
		Version: firstString(raw, "version", "softwareVersion"),
		Status:  determineStatus(raw),

		StorageCapacity: intField(raw, "storageCapacity", "capacity"),
		StorageUsed:     intField(raw, "storageUsed", "used"),
		UptimeSeconds:   intField(raw, "uptime", "uptimeSeconds"),
		LatencyMs:       floatField(raw, "latency", "ping"),
		Location:        firstString(raw, "location", "region"),
		IPAddress:       firstString(raw, "ipAddress", "ip"),

		LastVote:        intField(raw, "lastVote", "lastVoteTimestamp"),
		LastBlockStored: intField(raw, "lastBlockStored", "lastBlockTimestamp"),
		BlocksBehind:    intField(raw, "blocksBehind", "blocksBehindCount"),
	}

	if lastSeen := intField(raw, "lastSeen"); lastSeen != nil {
		node.LastSeen = *lastSeen
	} else {
		node.LastSeen = time.Now().UnixMilli()
	}

	return node
}

// NormalizeNodes maps a raw batch in order. Every payload yields a record.
func NormalizeNodes(raw []map[string]interface{}) []models.PNode {
	nodes := make([]models.PNode, 0, len(raw))
	for _, payload := range raw {
		nodes = append(nodes, NormalizeNode(payload))
	}
	return nodes
}

// determineStatus resolves node status by priority: an explicit status string
// (case-insensitive, only the three known values count), then explicit
// offline/syncing flags, then the online default. The default is deliberate
// source behavior — a node with no status information counts as online — and
// is pinned by tests so it cannot change silently.
func determineStatus(raw map[string]interface{}) string {
	if s, ok := raw["status"].(string); ok {
		switch strings.ToLower(s) {
		case models.StatusOnline:
			return models.StatusOnline
		case models.StatusOffline:
			return models.StatusOffline
		case models.StatusSyncing:
			return models.StatusSyncing
		}
	}

	if boolField(raw, "isOnline") == boolFalse || boolField(raw, "offline") == boolTrue {
		return models.StatusOffline
	}
	if boolField(raw, "syncing") == boolTrue || boolField(raw, "isSyncing") == boolTrue {
		return models.StatusSyncing
	}

	return models.StatusOnline
}

// firstString returns the first non-empty string among the given keys.
func firstString(raw map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := raw[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// numericValue extracts a finite numeric value from a decoded JSON field.
// NaN and infinities are rejected the same as non-numeric values.
func numericValue(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// intField returns the first present finite numeric field as an int64
// pointer, or nil when no key carries one. A nil result means "unknown",
// which downstream aggregation treats differently from zero.
func intField(raw map[string]interface{}, keys ...string) *int64 {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if f, ok := numericValue(v); ok {
				n := int64(f)
				return &n
			}
		}
	}
	return nil
}

func floatField(raw map[string]interface{}, keys ...string) *float64 {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if f, ok := numericValue(v); ok {
				return &f
			}
		}
	}
	return nil
}

type triBool int

const (
	boolUnset triBool = iota
	boolTrue
	boolFalse
)

func boolField(raw map[string]interface{}, key string) triBool {
	if b, ok := raw[key].(bool); ok {
		if b {
			return boolTrue
		}
		return boolFalse
	}
	return boolUnset
}
