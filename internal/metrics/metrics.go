// Package metrics exposes monitor activity as prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vertextoedge/diskguard/internal/domain/event"
)

const (
	namespace = "diskguard"
	subsystem = "volume"
)

// Metrics holds the collectors fed by domain events.
type Metrics struct {
	UsedPercentage  *prometheus.GaugeVec
	UsageKnown      *prometheus.GaugeVec
	Reclaiming      prometheus.Gauge
	Running         prometheus.Gauge
	VictimsDeleted  *prometheus.CounterVec
	VictimsFailed   prometheus.Counter
	ReclaimPasses   *prometheus.CounterVec
	BytesReclaimed  prometheus.Counter
	ReclaimDuration prometheus.Histogram
}

// NewMetrics creates the collectors. They are not registered.
func NewMetrics() *Metrics {
	return &Metrics{
		UsedPercentage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "used_percentage",
			Help:      "Last known used percentage of the monitored volume root.",
		}, []string{"path"}),
		UsageKnown: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "usage_known",
			Help:      "1 if the last probe of the volume root succeeded, 0 otherwise.",
		}, []string{"path"}),
		Reclaiming: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reclaiming",
			Help:      "1 while a reclaim pass is running.",
		}),
		Running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "monitor_running",
			Help:      "1 while the monitor is running.",
		}),
		VictimsDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "victims_deleted_total",
			Help:      "Entries deleted by reclaim passes.",
		}, []string{"method"}),
		VictimsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "victims_failed_total",
			Help:      "Entries that could not be deleted.",
		}),
		ReclaimPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reclaim_passes_total",
			Help:      "Completed reclaim passes by outcome.",
		}, []string{"outcome"}),
		BytesReclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reclaimed_bytes_total",
			Help:      "Bytes of deleted entries as listed before deletion.",
		}),
		ReclaimDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reclaim_duration_seconds",
			Help:      "Duration of reclaim passes.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
}

// Register registers every collector with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.UsedPercentage,
		m.UsageKnown,
		m.Reclaiming,
		m.Running,
		m.VictimsDeleted,
		m.VictimsFailed,
		m.ReclaimPasses,
		m.BytesReclaimed,
		m.ReclaimDuration,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handle updates the collectors from a domain event.
func (m *Metrics) Handle(e event.DomainEvent) error {
	switch ev := e.(type) {
	case event.StatusReported:
		path := ev.Status.Path
		if ev.Status.Known {
			m.UsedPercentage.WithLabelValues(path).Set(ev.Status.UsedPercentage)
			m.UsageKnown.WithLabelValues(path).Set(1)
		} else {
			m.UsageKnown.WithLabelValues(path).Set(0)
		}
		m.Reclaiming.Set(boolGauge(ev.Reclaiming))
	case event.VictimDeleted:
		method := "unprivileged"
		if ev.Privileged {
			method = "privileged"
		}
		m.VictimsDeleted.WithLabelValues(method).Inc()
		if ev.Victim.Size > 0 {
			m.BytesReclaimed.Add(float64(ev.Victim.Size))
		}
	case event.VictimFailed:
		m.VictimsFailed.Inc()
	case event.ReclaimCompleted:
		r := ev.Report
		outcome := "satisfied"
		switch {
		case r.Indeterminate:
			outcome = "indeterminate"
		case !r.Satisfied():
			outcome = "exhausted"
		}
		m.ReclaimPasses.WithLabelValues(outcome).Inc()
		m.ReclaimDuration.Observe(r.Duration().Seconds())
		m.Reclaiming.Set(0)
	case event.MonitorStarted:
		m.Running.Set(1)
	case event.MonitorStopped:
		m.Running.Set(0)
	}
	return nil
}

// HandledEvents returns the events this handler handles
func (m *Metrics) HandledEvents() []string {
	return []string{"*"}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
