package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/servicemarket/missions/internal/store"
	"go.uber.org/zap"
)

const statsCollectTimeout = 10 * time.Second

// statsCollector exposes the persisted state of the lifecycle as gauges,
// read from the store on every scrape.
type statsCollector struct {
	store                 store.Store
	missionsByStatus      *prometheus.Desc
	pendingContactRelease *prometheus.Desc
	hiddenEvaluations     *prometheus.Desc
	remindersByStatus     *prometheus.Desc
	reclamationsByStatus  *prometheus.Desc
}

func newStatsCollector(s store.Store) prometheus.Collector {
	fqName := func(name string) string {
		return fmt.Sprintf("%s_%s", missions, name)
	}

	return &statsCollector{
		store: s,
		missionsByStatus: prometheus.NewDesc(
			fqName("missions_by_status"),
			"Number of missions per status.",
			[]string{statusLabel},
			prometheus.Labels{},
		),
		pendingContactRelease: prometheus.NewDesc(
			fqName("pending_contact_release"),
			"Accepted missions whose contacts have not been released yet.",
			nil,
			prometheus.Labels{},
		),
		hiddenEvaluations: prometheus.NewDesc(
			fqName("hidden_evaluations"),
			"Evaluations waiting for publication.",
			nil,
			prometheus.Labels{},
		),
		remindersByStatus: prometheus.NewDesc(
			fqName("reminders_by_status"),
			"Number of review reminders per status.",
			[]string{statusLabel},
			prometheus.Labels{},
		),
		reclamationsByStatus: prometheus.NewDesc(
			fqName("reclamations_by_status"),
			"Number of reclamations per status.",
			[]string{statusLabel},
			prometheus.Labels{},
		),
	}
}

// RegisterStatsCollector adds the store gauges to the default registry.
func RegisterStatsCollector(s store.Store) error {
	return prometheus.Register(newStatsCollector(s))
}

func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.missionsByStatus
	ch <- c.pendingContactRelease
	ch <- c.hiddenEvaluations
	ch <- c.remindersByStatus
	ch <- c.reclamationsByStatus
}

func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), statsCollectTimeout)
	defer cancel()

	stats, err := c.store.Statistics(ctx)
	if err != nil {
		zap.S().Named("stats_collector").Errorf("failed to collect statistics: %s", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.pendingContactRelease, prometheus.GaugeValue, float64(stats.PendingContactRelease))
	ch <- prometheus.MustNewConstMetric(c.hiddenEvaluations, prometheus.GaugeValue, float64(stats.HiddenEvaluations))

	for status, total := range stats.MissionsByStatus {
		ch <- prometheus.MustNewConstMetric(c.missionsByStatus, prometheus.GaugeValue, float64(total), string(status))
	}
	for status, total := range stats.RemindersByStatus {
		ch <- prometheus.MustNewConstMetric(c.remindersByStatus, prometheus.GaugeValue, float64(total), string(status))
	}
	for status, total := range stats.ReclamationsByStatus {
		ch <- prometheus.MustNewConstMetric(c.reclamationsByStatus, prometheus.GaugeValue, float64(total), string(status))
	}
}
