package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"pnodewatch/config"
	"pnodewatch/metrics"
	"pnodewatch/models"
	"pnodewatch/utils"
)

// Poller drives the fetch -> normalize -> enrich -> snapshot cycle on a fixed
// interval. One cycle runs immediately on Start so the dashboard has data
// before the first tick. Cycles are guarded against overlap: if a slow fetch
// is still in flight when the next tick (or a manual refresh) arrives, the
// new cycle is skipped rather than queued.
//
// A failed fetch skips the cycle entirely: no snapshot is recorded, the
// previous node set stays served, and the error is retained for the status
// endpoint until a cycle succeeds.
type Poller struct {
	cfg      *config.Config
	fetcher  NodeFetcher
	history  *HistoryTracker
	geo      *utils.GeoResolver
	mongo    *MongoDBService
	alerts   *AlertService
	versions *utils.VersionConfig
	logger   *logrus.Logger

	mutex     sync.RWMutex
	nodes     []models.PNode
	stats     models.NetworkStats
	lastPoll  time.Time
	lastErr   error
	pollCount int64

	inFlight atomic.Bool
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewPoller(
	cfg *config.Config,
	fetcher NodeFetcher,
	history *HistoryTracker,
	geo *utils.GeoResolver,
	mongo *MongoDBService,
	alerts *AlertService,
	logger *logrus.Logger,
) *Poller {
	return &Poller{
		cfg:      cfg,
		fetcher:  fetcher,
		history:  history,
		geo:      geo,
		mongo:    mongo,
		alerts:   alerts,
		versions: versionThresholds(cfg),
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// versionThresholds maps the configured release line onto the checker's
// config, filling any missing threshold from the defaults. Nil when nothing
// is configured, which the checker treats as "use defaults".
func versionThresholds(cfg *config.Config) *utils.VersionConfig {
	v := cfg.Versions
	if v.CurrentStable == "" && v.MinSupported == "" && v.Deprecated == "" {
		return nil
	}

	out := utils.DefaultVersionConfig
	if v.CurrentStable != "" {
		out.CurrentStable = v.CurrentStable
	}
	if v.MinSupported != "" {
		out.MinSupported = v.MinSupported
	}
	if v.Deprecated != "" {
		out.Deprecated = v.Deprecated
	}
	return &out
}

// Start runs one immediate cycle, then polls on the configured interval until
// Stop is called.
func (p *Poller) Start() {
	interval := p.cfg.PollIntervalDuration()
	if interval <= 0 {
		interval = 30 * time.Second
	}

	p.logger.WithField("interval", interval).Info("Poller started")

	go func() {
		p.runCycle()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.runCycle()
			case <-p.stopChan:
				return
			}
		}
	}()
}

func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
	})
	p.logger.Info("Poller stopped")
}

// RefreshNow triggers a cycle outside the schedule. Returns false when a
// cycle was already in flight and the request was dropped.
func (p *Poller) RefreshNow() bool {
	return p.runCycle()
}

func (p *Poller) runCycle() bool {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.logger.Debug("Poll cycle already in flight, skipping")
		metrics.PollCyclesTotal.WithLabelValues("skipped").Inc()
		return false
	}
	defer p.inFlight.Store(false)

	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	raw, err := p.fetcher.FetchNodes(ctx)
	if err != nil {
		p.mutex.Lock()
		p.lastErr = err
		p.mutex.Unlock()

		p.logger.WithError(err).Warn("Node fetch failed, keeping previous data")
		metrics.PollCyclesTotal.WithLabelValues("failure").Inc()
		return true
	}

	nodes := NormalizeNodes(raw)
	p.enrich(nodes)

	stats := ComputeNetworkStats(nodes)
	stats.LastUpdated = time.Now()
	p.history.SaveSnapshot(nodes)

	p.mutex.Lock()
	p.nodes = nodes
	p.stats = stats
	p.lastPoll = time.Now()
	p.lastErr = nil
	p.pollCount++
	p.mutex.Unlock()

	p.mongo.RegisterNodes(ctx, nodes)
	p.alerts.Evaluate(stats)
	p.publishMetrics(stats)

	metrics.PollCyclesTotal.WithLabelValues("success").Inc()
	metrics.PollDuration.Observe(time.Since(start).Seconds())

	p.logger.WithFields(logrus.Fields{
		"nodes":    stats.TotalNodes,
		"online":   stats.OnlineNodes,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("Poll cycle complete")

	return true
}

// enrich fills geo and version fields in place. Both enrichments are
// optional: a missing resolver leaves the fields empty.
func (p *Poller) enrich(nodes []models.PNode) {
	for i := range nodes {
		node := &nodes[i]

		if p.geo != nil && node.IPAddress != "" {
			country, city, lat, lon := p.geo.Lookup(node.IPAddress)
			node.Country = country
			node.City = city
			node.Lat = lat
			node.Lon = lon
			if node.Location == "" && country != "Unknown" {
				node.Location = city + ", " + country
			}
		}

		if node.Version != "" {
			status, needsUpgrade, _ := utils.CheckVersionStatus(node.Version, p.versions)
			node.VersionStatus = status
			node.IsUpgradeNeeded = needsUpgrade
			node.UpgradeMessage = utils.GetUpgradeMessage(node.Version, p.versions)
		}
	}
}

func (p *Poller) publishMetrics(stats models.NetworkStats) {
	metrics.NodesByStatus.WithLabelValues(models.StatusOnline).Set(float64(stats.OnlineNodes))
	metrics.NodesByStatus.WithLabelValues(models.StatusOffline).Set(float64(stats.OfflineNodes))
	metrics.NodesByStatus.WithLabelValues(models.StatusSyncing).Set(float64(stats.SyncingNodes))
	metrics.StorageBytes.WithLabelValues("capacity").Set(float64(stats.TotalStorage))
	metrics.StorageBytes.WithLabelValues("used").Set(float64(stats.UsedStorage))
	metrics.HistoryPoints.Set(float64(p.history.Len()))
}

// GetNodes returns the latest normalized node set.
func (p *Poller) GetNodes() []models.PNode {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	result := make([]models.PNode, len(p.nodes))
	copy(result, p.nodes)
	return result
}

// GetNode looks a node up by ID, pubkey or address.
func (p *Poller) GetNode(id string) (models.PNode, bool) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	for i := range p.nodes {
		if p.nodes[i].ID == id || p.nodes[i].Pubkey == id || p.nodes[i].Address == id {
			return p.nodes[i], true
		}
	}
	return models.PNode{}, false
}

// GetStats returns the latest network stats.
func (p *Poller) GetStats() models.NetworkStats {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.stats
}

// Status describes the poller's health for the status endpoint.
type PollerStatus struct {
	LastPoll  time.Time `json:"last_poll"`
	PollCount int64     `json:"poll_count"`
	LastError string    `json:"last_error,omitempty"`
	NodeCount int       `json:"node_count"`
}

func (p *Poller) Status() PollerStatus {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	status := PollerStatus{
		LastPoll:  p.lastPoll,
		PollCount: p.pollCount,
		NodeCount: len(p.nodes),
	}
	if p.lastErr != nil {
		status.LastError = p.lastErr.Error()
	}
	return status
}
