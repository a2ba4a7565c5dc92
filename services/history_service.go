package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"pnodewatch/models"
)

// MaxHistoryPoints bounds the snapshot series. Once full, the oldest point
// is evicted on every append.
const MaxHistoryPoints = 100

// historyKey is the single namespaced key holding the persisted series.
const historyKey = "pnodewatch:pnodes:history"

// HistoryTracker owns the bounded, ordered series of network snapshots and
// its persisted representation. The in-memory series is the source of truth;
// persistence is synchronous but best-effort, so a full or unreachable
// backend degrades durability, never availability. Construct one per
// process and inject it wherever the series is needed.
type HistoryTracker struct {
	store  *Store
	logger *logrus.Logger

	mutex  sync.RWMutex
	points []models.HistoryPoint

	now func() time.Time
}

// NewHistoryTracker restores any persisted series and returns the tracker.
// Corrupt or missing persisted data yields an empty series: losing history
// is acceptable, refusing to start is not.
func NewHistoryTracker(store *Store, logger *logrus.Logger) *HistoryTracker {
	ht := &HistoryTracker{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	ht.load()
	return ht
}

func (ht *HistoryTracker) load() {
	data, found, err := ht.store.Load(historyKey)
	if err != nil {
		ht.logger.WithError(err).Warn("Failed to load history, starting empty")
		return
	}
	if !found {
		return
	}

	var points []models.HistoryPoint
	if err := json.Unmarshal(data, &points); err != nil {
		ht.logger.WithError(err).Warn("Discarding corrupt history payload")
		return
	}

	ht.points = points
	ht.logger.WithField("points", len(points)).Info("History restored")
}

// SaveSnapshot aggregates the batch, stamps the capture time, appends the
// point, evicts from the front past MaxHistoryPoints, and persists the full
// series before returning. The whole append/evict/persist sequence holds the
// mutex so a concurrent clear can never interleave between the in-memory
// update and the write: the persisted key always reflects a state the series
// actually passed through. Persistence failures are logged and swallowed;
// the in-memory series remains authoritative for the rest of the process.
func (ht *HistoryTracker) SaveSnapshot(nodes []models.PNode) {
	stats := ComputeNetworkStats(nodes)

	point := models.HistoryPoint{
		Timestamp:    ht.now().UnixMilli(),
		TotalNodes:   stats.TotalNodes,
		OnlineNodes:  stats.OnlineNodes,
		OfflineNodes: stats.OfflineNodes,
		SyncingNodes: stats.SyncingNodes,
		TotalStorage: stats.TotalStorage,
		UsedStorage:  stats.UsedStorage,
	}

	ht.mutex.Lock()
	defer ht.mutex.Unlock()

	ht.points = append(ht.points, point)
	if len(ht.points) > MaxHistoryPoints {
		ht.points = ht.points[len(ht.points)-MaxHistoryPoints:]
	}

	data, err := json.Marshal(ht.points)
	if err != nil {
		ht.logger.WithError(err).Error("Failed to marshal history")
		return
	}

	if err := ht.store.Save(historyKey, data); err != nil {
		ht.logger.WithError(err).Warn("Failed to persist history, in-memory series remains authoritative")
	}
}

// GetHistory returns the full series, oldest first.
func (ht *HistoryTracker) GetHistory() []models.HistoryPoint {
	ht.mutex.RLock()
	defer ht.mutex.RUnlock()

	result := make([]models.HistoryPoint, len(ht.points))
	copy(result, ht.points)
	return result
}

// GetRecentHistory returns the points captured within the last `hours`
// hours, preserving order. This is a filter over the series, not an
// eviction. Non-positive hours defaults to 24.
func (ht *HistoryTracker) GetRecentHistory(hours int) []models.HistoryPoint {
	if hours <= 0 {
		hours = 24
	}

	cutoff := ht.now().Add(-time.Duration(hours) * time.Hour).UnixMilli()

	ht.mutex.RLock()
	defer ht.mutex.RUnlock()

	result := make([]models.HistoryPoint, 0, len(ht.points))
	for _, point := range ht.points {
		if point.Timestamp >= cutoff {
			result = append(result, point)
		}
	}
	return result
}

// ClearHistory empties the series and removes the persisted key, under the
// same mutex as SaveSnapshot so an in-flight append cannot re-persist a
// stale copy after the clear completes. Clearing an already-empty tracker is
// a no-op success.
func (ht *HistoryTracker) ClearHistory() {
	ht.mutex.Lock()
	defer ht.mutex.Unlock()

	ht.points = nil
	if err := ht.store.Delete(historyKey); err != nil {
		ht.logger.WithError(err).Warn("Failed to remove persisted history")
	}
}

// Len reports the current series length.
func (ht *HistoryTracker) Len() int {
	ht.mutex.RLock()
	defer ht.mutex.RUnlock()
	return len(ht.points)
}
