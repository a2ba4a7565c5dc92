package services

import (
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pnodewatch/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestTracker(t *testing.T) *HistoryTracker {
	t.Helper()
	return NewHistoryTracker(NewInMemoryStore(testLogger()), testLogger())
}

func onlineNode(id string, capacity, used int64) models.PNode {
	return models.PNode{
		ID:              id,
		Address:         id,
		Status:          models.StatusOnline,
		StorageCapacity: &capacity,
		StorageUsed:     &used,
	}
}

func TestSaveSnapshotAggregatesBatch(t *testing.T) {
	ht := newTestTracker(t)

	// 8 online, 1 offline, 1 syncing; 1000 capacity and 500 used each.
	nodes := make([]models.PNode, 0, 10)
	for i := 0; i < 8; i++ {
		nodes = append(nodes, onlineNode(fmt.Sprintf("node-%d", i), 1000, 500))
	}
	offline := onlineNode("node-off", 1000, 500)
	offline.Status = models.StatusOffline
	syncing := onlineNode("node-sync", 1000, 500)
	syncing.Status = models.StatusSyncing
	nodes = append(nodes, offline, syncing)

	ht.SaveSnapshot(nodes)

	points := ht.GetHistory()
	require.Len(t, points, 1)

	point := points[0]
	assert.Equal(t, 10, point.TotalNodes)
	assert.Equal(t, 8, point.OnlineNodes)
	assert.Equal(t, 1, point.OfflineNodes)
	assert.Equal(t, 1, point.SyncingNodes)
	assert.Equal(t, int64(10000), point.TotalStorage)
	assert.Equal(t, int64(5000), point.UsedStorage)

	// Status counts always partition the batch.
	assert.Equal(t, point.TotalNodes, point.OnlineNodes+point.OfflineNodes+point.SyncingNodes)
}

func TestSaveSnapshotStampsAppendTime(t *testing.T) {
	ht := newTestTracker(t)

	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ht.now = func() time.Time { return fixed }

	ht.SaveSnapshot([]models.PNode{onlineNode("a", 0, 0)})

	points := ht.GetHistory()
	require.Len(t, points, 1)
	assert.Equal(t, fixed.UnixMilli(), points[0].Timestamp)
}

func TestHistoryEvictsOldestAtCapacity(t *testing.T) {
	ht := newTestTracker(t)

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	ht.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for i := 0; i < MaxHistoryPoints+5; i++ {
		ht.SaveSnapshot([]models.PNode{onlineNode("a", 0, 0)})
	}

	points := ht.GetHistory()
	require.Len(t, points, MaxHistoryPoints)

	// The five oldest points were evicted from the front; order holds.
	assert.Equal(t, base.Add(6*time.Second).UnixMilli(), points[0].Timestamp)
	for i := 1; i < len(points); i++ {
		assert.Greater(t, points[i].Timestamp, points[i-1].Timestamp)
	}
}

func TestGetHistoryReturnsCopy(t *testing.T) {
	ht := newTestTracker(t)
	ht.SaveSnapshot([]models.PNode{onlineNode("a", 0, 0)})

	points := ht.GetHistory()
	points[0].TotalNodes = 999

	assert.Equal(t, 1, ht.GetHistory()[0].TotalNodes)
}

func TestGetRecentHistoryFiltersWindow(t *testing.T) {
	ht := newTestTracker(t)

	now := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	ages := []time.Duration{
		30 * time.Hour,
		25 * time.Hour,
		23 * time.Hour,
		2 * time.Hour,
		10 * time.Minute,
	}
	for _, age := range ages {
		captured := now.Add(-age)
		ht.now = func() time.Time { return captured }
		ht.SaveSnapshot([]models.PNode{onlineNode("a", 0, 0)})
	}
	ht.now = func() time.Time { return now }

	assert.Len(t, ht.GetRecentHistory(24), 3)
	assert.Len(t, ht.GetRecentHistory(3), 2)
	assert.Len(t, ht.GetRecentHistory(48), 5)

	// Non-positive window defaults to 24 hours.
	assert.Len(t, ht.GetRecentHistory(0), 3)
	assert.Len(t, ht.GetRecentHistory(-5), 3)

	// Filtering never mutates the retained series.
	assert.Equal(t, 5, ht.Len())
}

func TestClearHistoryIsIdempotent(t *testing.T) {
	ht := newTestTracker(t)
	ht.SaveSnapshot([]models.PNode{onlineNode("a", 0, 0)})
	require.Equal(t, 1, ht.Len())

	ht.ClearHistory()
	assert.Equal(t, 0, ht.Len())
	assert.Empty(t, ht.GetHistory())

	// Clearing an already-empty tracker succeeds quietly.
	ht.ClearHistory()
	assert.Equal(t, 0, ht.Len())
}

func TestHistoryRestoredFromStore(t *testing.T) {
	store := NewInMemoryStore(testLogger())

	persisted := []models.HistoryPoint{
		{Timestamp: 1000, TotalNodes: 3, OnlineNodes: 2, OfflineNodes: 1},
		{Timestamp: 2000, TotalNodes: 4, OnlineNodes: 4},
	}
	data, err := json.Marshal(persisted)
	require.NoError(t, err)
	require.NoError(t, store.Save(historyKey, data))

	ht := NewHistoryTracker(store, testLogger())
	points := ht.GetHistory()
	require.Len(t, points, 2)
	assert.Equal(t, int64(1000), points[0].Timestamp)
	assert.Equal(t, 4, points[1].TotalNodes)
}

func TestCorruptPersistedHistoryStartsEmpty(t *testing.T) {
	store := NewInMemoryStore(testLogger())
	require.NoError(t, store.Save(historyKey, []byte("{not json")))

	ht := NewHistoryTracker(store, testLogger())
	assert.Equal(t, 0, ht.Len())

	// The tracker stays fully usable after discarding the bad payload.
	ht.SaveSnapshot([]models.PNode{onlineNode("a", 0, 0)})
	assert.Equal(t, 1, ht.Len())
}

func TestClearRacingAppendNeverResurrectsHistory(t *testing.T) {
	store := NewInMemoryStore(testLogger())
	ht := NewHistoryTracker(store, testLogger())
	nodes := []models.PNode{onlineNode("a", 0, 0)}

	for i := 0; i < 500; i++ {
		done := make(chan struct{})
		go func() {
			ht.SaveSnapshot(nodes)
			close(done)
		}()
		ht.ClearHistory()
		<-done

		// Whenever the clear was the last writer in memory, the persisted
		// key must be gone too; otherwise a restart would restore points
		// that were already cleared.
		if ht.Len() == 0 {
			_, found, err := store.Load(historyKey)
			require.NoError(t, err)
			require.False(t, found, "iteration %d: persisted key survived a completed clear", i)
		}

		ht.ClearHistory()
	}
}

func TestHistoryPersistedFieldNames(t *testing.T) {
	store := NewInMemoryStore(testLogger())
	ht := NewHistoryTracker(store, testLogger())

	ht.SaveSnapshot([]models.PNode{onlineNode("a", 1000, 500)})

	data, found, err := store.Load(historyKey)
	require.NoError(t, err)
	require.True(t, found)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)

	for _, key := range []string{
		"timestamp", "totalNodes", "onlineNodes", "offlineNodes",
		"syncingNodes", "totalStorage", "usedStorage",
	} {
		assert.Contains(t, decoded[0], key)
	}
}
