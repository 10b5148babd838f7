// Package metrics exposes the run counters served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the engine updates. All collectors are
// registered on construction; a nil *Metrics is safe to use and records
// nothing, so the run controller works without a registry (run-once
// mode).
type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	RowsComputed    prometheus.Counter
	RowsSkipped     prometheus.Counter
	RowsDue         prometheus.Gauge
	HistoryAppended prometheus.Counter
	Notifications   *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	LastRun         prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "samplewatch_runs_total",
			Help: "Completed reconciliation runs by result.",
		}, []string{"result"}),
		RowsComputed: f.NewCounter(prometheus.CounterOpts{
			Name: "samplewatch_rows_computed_total",
			Help: "Schedule rows with a refreshed next-due date.",
		}),
		RowsSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "samplewatch_rows_skipped_total",
			Help: "Schedule rows skipped for data-quality reasons.",
		}),
		RowsDue: f.NewGauge(prometheus.GaugeOpts{
			Name: "samplewatch_rows_due",
			Help: "Due rows found by the most recent run.",
		}),
		HistoryAppended: f.NewCounter(prometheus.CounterOpts{
			Name: "samplewatch_history_appended_total",
			Help: "Sample history entries appended.",
		}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "samplewatch_notifications_total",
			Help: "Notification deliveries by channel and result.",
		}, []string{"channel", "result"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "samplewatch_run_duration_seconds",
			Help:    "Wall time of one reconciliation run.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		LastRun: f.NewGauge(prometheus.GaugeOpts{
			Name: "samplewatch_last_run_timestamp",
			Help: "Unix time of the last finished run.",
		}),
	}
}

// ObserveRun records the aggregate counters of one finished run.
func (m *Metrics) ObserveRun(result string, computed, skipped, due, appended int, seconds float64, finished float64) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(result).Inc()
	m.RowsComputed.Add(float64(computed))
	m.RowsSkipped.Add(float64(skipped))
	m.RowsDue.Set(float64(due))
	m.HistoryAppended.Add(float64(appended))
	m.RunDuration.Observe(seconds)
	m.LastRun.Set(finished)
}

// ObserveNotification records one channel outcome.
func (m *Metrics) ObserveNotification(channel string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.Notifications.WithLabelValues(channel, result).Inc()
}
