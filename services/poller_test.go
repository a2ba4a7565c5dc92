package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pnodewatch/config"
)

type stubFetcher struct {
	batches [][]map[string]interface{}
	err     error
	calls   int
}

func (s *stubFetcher) FetchNodes(ctx context.Context) ([]map[string]interface{}, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	batch := s.batches[0]
	if len(s.batches) > 1 {
		s.batches = s.batches[1:]
	}
	return batch, nil
}

func newTestPoller(t *testing.T, fetcher NodeFetcher) (*Poller, *HistoryTracker) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Polling.Interval = 30
	cfg.Alerts.OfflineRatio = 0.25
	cfg.Alerts.CooldownMinutes = 15

	logger := testLogger()
	history := NewHistoryTracker(NewInMemoryStore(logger), logger)
	alerts := NewAlertService(cfg, &DiscordService{}, logger)

	return NewPoller(cfg, fetcher, history, nil, &MongoDBService{}, alerts, logger), history
}

func TestPollCycleSuccess(t *testing.T) {
	fetcher := &stubFetcher{batches: [][]map[string]interface{}{{
		{"id": "n1", "status": "online", "storageCapacity": float64(1000), "storageUsed": float64(400)},
		{"id": "n2", "status": "offline"},
	}}}

	poller, history := newTestPoller(t, fetcher)
	require.True(t, poller.runCycle())

	nodes := poller.GetNodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "n1", nodes[0].ID)

	stats := poller.GetStats()
	assert.Equal(t, 2, stats.TotalNodes)
	assert.Equal(t, 1, stats.OnlineNodes)
	assert.Equal(t, 1, stats.OfflineNodes)
	assert.Equal(t, int64(1000), stats.TotalStorage)
	assert.False(t, stats.LastUpdated.IsZero())

	// Exactly one snapshot per successful cycle.
	assert.Equal(t, 1, history.Len())

	status := poller.Status()
	assert.Empty(t, status.LastError)
	assert.Equal(t, int64(1), status.PollCount)
	assert.False(t, status.LastPoll.IsZero())
}

func TestPollCycleFetchFailureSkipsSnapshot(t *testing.T) {
	good := [][]map[string]interface{}{{{"id": "n1", "status": "online"}}}
	fetcher := &stubFetcher{batches: good}

	poller, history := newTestPoller(t, fetcher)
	require.True(t, poller.runCycle())
	require.Equal(t, 1, history.Len())

	// A failed fetch records no snapshot and keeps serving the previous set.
	fetcher.err = errors.New("all entrypoints unreachable")
	poller.runCycle()

	assert.Equal(t, 1, history.Len())
	assert.Len(t, poller.GetNodes(), 1)
	assert.Equal(t, "all entrypoints unreachable", poller.Status().LastError)
	assert.Equal(t, int64(1), poller.Status().PollCount)

	// The next success clears the error state.
	fetcher.err = nil
	poller.runCycle()
	assert.Empty(t, poller.Status().LastError)
	assert.Equal(t, 2, history.Len())
}

func TestPollCycleOverlapGuard(t *testing.T) {
	fetcher := &stubFetcher{batches: [][]map[string]interface{}{{{"id": "n1"}}}}
	poller, _ := newTestPoller(t, fetcher)

	poller.inFlight.Store(true)
	assert.False(t, poller.runCycle())
	assert.Equal(t, 0, fetcher.calls)

	poller.inFlight.Store(false)
	assert.True(t, poller.runCycle())
	assert.Equal(t, 1, fetcher.calls)
}

func TestGetNodeLookup(t *testing.T) {
	fetcher := &stubFetcher{batches: [][]map[string]interface{}{{
		{"id": "n1", "pubkey": "pk1", "address": "addr1"},
	}}}

	poller, _ := newTestPoller(t, fetcher)
	require.True(t, poller.runCycle())

	for _, key := range []string{"n1", "pk1", "addr1"} {
		node, found := poller.GetNode(key)
		assert.True(t, found, key)
		assert.Equal(t, "n1", node.ID)
	}

	_, found := poller.GetNode("missing")
	assert.False(t, found)
}

func TestVersionEnrichment(t *testing.T) {
	fetcher := &stubFetcher{batches: [][]map[string]interface{}{{
		{"id": "n1", "version": "1.0.0"},
		{"id": "n2", "version": "1.4.0"},
	}}}

	poller, _ := newTestPoller(t, fetcher)
	require.True(t, poller.runCycle())

	nodes := poller.GetNodes()
	require.Len(t, nodes, 2)

	assert.Equal(t, "deprecated", nodes[0].VersionStatus)
	assert.True(t, nodes[0].IsUpgradeNeeded)
	assert.NotEmpty(t, nodes[0].UpgradeMessage)

	assert.Equal(t, "current", nodes[1].VersionStatus)
	assert.False(t, nodes[1].IsUpgradeNeeded)
}

func TestVersionThresholdsComeFromConfig(t *testing.T) {
	fetcher := &stubFetcher{batches: [][]map[string]interface{}{{
		{"id": "n1", "version": "1.4.0"},
	}}}

	cfg := &config.Config{}
	cfg.Polling.Interval = 30
	cfg.Versions.CurrentStable = "2.0.0"
	cfg.Versions.MinSupported = "1.5.0"
	cfg.Versions.Deprecated = "1.0.0"

	logger := testLogger()
	history := NewHistoryTracker(NewInMemoryStore(logger), logger)
	alerts := NewAlertService(cfg, &DiscordService{}, logger)
	poller := NewPoller(cfg, fetcher, history, nil, &MongoDBService{}, alerts, logger)

	require.True(t, poller.runCycle())

	nodes := poller.GetNodes()
	require.Len(t, nodes, 1)

	// 1.4.0 is current against the defaults but below the configured
	// minimum supported version.
	assert.Equal(t, "outdated", nodes[0].VersionStatus)
	assert.True(t, nodes[0].IsUpgradeNeeded)
}
