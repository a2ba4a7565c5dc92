package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"pnodewatch/config"
	"pnodewatch/models"
)

const (
	colorRed   = 0xED4245
	colorGreen = 0x57F287
)

// AlertService watches the per-cycle network stats for offline spikes. An
// alert fires when the offline fraction of the network crosses the configured
// ratio; a recovery notice fires when it drops back below. Repeated alerts
// are suppressed for the cooldown window.
type AlertService struct {
	cfg     *config.Config
	discord *DiscordService
	logger  *logrus.Logger

	mutex     sync.Mutex
	alerting  bool
	lastAlert time.Time
	now       func() time.Time
}

func NewAlertService(cfg *config.Config, discord *DiscordService, logger *logrus.Logger) *AlertService {
	return &AlertService{
		cfg:     cfg,
		discord: discord,
		logger:  logger,
		now:     time.Now,
	}
}

// Evaluate inspects one cycle's stats and delivers any due notifications.
// It never returns an error: alerting is advisory and must not disturb the
// poll cycle.
func (a *AlertService) Evaluate(stats models.NetworkStats) {
	if stats.TotalNodes == 0 {
		return
	}

	ratio := float64(stats.OfflineNodes) / float64(stats.TotalNodes)
	breached := ratio >= a.cfg.Alerts.OfflineRatio

	a.mutex.Lock()
	defer a.mutex.Unlock()

	if breached {
		if a.alerting && a.now().Sub(a.lastAlert) < a.cfg.AlertCooldownDuration() {
			return
		}

		a.alerting = true
		a.lastAlert = a.now()

		a.logger.WithFields(logrus.Fields{
			"offline": stats.OfflineNodes,
			"total":   stats.TotalNodes,
			"ratio":   fmt.Sprintf("%.2f", ratio),
		}).Warn("Offline node ratio above threshold")

		msg := fmt.Sprintf("%d of %d nodes are offline (%.0f%%), threshold is %.0f%%.",
			stats.OfflineNodes, stats.TotalNodes, ratio*100, a.cfg.Alerts.OfflineRatio*100)
		if err := a.discord.SendEmbed("Offline spike detected", msg, colorRed); err != nil {
			a.logger.WithError(err).Warn("Failed to deliver offline alert")
		}
		return
	}

	if a.alerting {
		a.alerting = false

		a.logger.WithFields(logrus.Fields{
			"offline": stats.OfflineNodes,
			"total":   stats.TotalNodes,
		}).Info("Offline node ratio back below threshold")

		msg := fmt.Sprintf("Offline count is back to %d of %d nodes.", stats.OfflineNodes, stats.TotalNodes)
		if err := a.discord.SendEmbed("Network recovered", msg, colorGreen); err != nil {
			a.logger.WithError(err).Warn("Failed to deliver recovery notice")
		}
	}
}
