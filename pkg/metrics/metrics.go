package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	missions = "missions"

	// Sweep metrics
	sweepRowsTotal     = "sweep_rows_total"
	sweepRunsTotal     = "sweep_runs_total"
	sweepDurationMilli = "sweep_duration_milliseconds"

	// Request-driven metrics
	missionTransitionsTotal   = "mission_transitions_total"
	evaluationsSubmittedTotal = "evaluations_submitted_total"
	reclamationEventsTotal    = "reclamation_events_total"

	// Notification metrics
	notificationsTotal = "notifications_total"

	// Labels
	sweepLabel   = "sweep"
	outcomeLabel = "outcome"
	resultLabel  = "result"
	statusLabel  = "status"
	targetLabel  = "target"
	eventLabel   = "event"
	kindLabel    = "kind"
	stateLabel   = "state"
)

var sweepRowsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: missions,
		Name:      sweepRowsTotal,
		Help:      "number of rows handled by a sweep partitioned by outcome",
	},
	[]string{sweepLabel, outcomeLabel},
)

var sweepRunsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: missions,
		Name:      sweepRunsTotal,
		Help:      "number of sweep runs partitioned by result",
	},
	[]string{sweepLabel, resultLabel},
)

var sweepDurationMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: missions,
		Name:      sweepDurationMilli,
		Help:      "time spent running a sweep",
		Buckets:   []float64{10, 100, 500, 1000, 5000, 30000},
	},
	[]string{sweepLabel},
)

var missionTransitionsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: missions,
		Name:      missionTransitionsTotal,
		Help:      "number of mission status transitions partitioned by target status",
	},
	[]string{statusLabel},
)

var evaluationsSubmittedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: missions,
		Name:      evaluationsSubmittedTotal,
		Help:      "number of evaluations submitted partitioned by rated side",
	},
	[]string{targetLabel},
)

var reclamationEventsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: missions,
		Name:      reclamationEventsTotal,
		Help:      "number of reclamations created or answered",
	},
	[]string{eventLabel},
)

var notificationsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: missions,
		Name:      notificationsTotal,
		Help:      "number of notifications handed to the gateway partitioned by kind and delivery state",
	},
	[]string{kindLabel, stateLabel},
)

func IncreaseSweepRowsMetric(sweep, outcome string, count int) {
	if count == 0 {
		return
	}
	sweepRowsTotalMetric.With(prometheus.Labels{sweepLabel: sweep, outcomeLabel: outcome}).Add(float64(count))
}

func ObserveSweepRun(sweep string, durationMs float64, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	sweepRunsTotalMetric.With(prometheus.Labels{sweepLabel: sweep, resultLabel: result}).Inc()
	sweepDurationMetric.With(prometheus.Labels{sweepLabel: sweep}).Observe(durationMs)
}

func IncreaseMissionTransitionMetric(status string) {
	missionTransitionsTotalMetric.With(prometheus.Labels{statusLabel: status}).Inc()
}

func IncreaseEvaluationsSubmittedMetric(target string) {
	evaluationsSubmittedTotalMetric.With(prometheus.Labels{targetLabel: target}).Inc()
}

func IncreaseReclamationEventMetric(event string) {
	reclamationEventsTotalMetric.With(prometheus.Labels{eventLabel: event}).Inc()
}

func IncreaseNotificationsMetric(kind, state string) {
	notificationsTotalMetric.With(prometheus.Labels{kindLabel: kind, stateLabel: state}).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(sweepRowsTotalMetric)
	prometheus.MustRegister(sweepRunsTotalMetric)
	prometheus.MustRegister(sweepDurationMetric)
	prometheus.MustRegister(missionTransitionsTotalMetric)
	prometheus.MustRegister(evaluationsSubmittedTotalMetric)
	prometheus.MustRegister(reclamationEventsTotalMetric)
	prometheus.MustRegister(notificationsTotalMetric)
}
