package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/vertextoedge/diskguard/internal/domain"
	"github.com/vertextoedge/diskguard/internal/domain/event"
)

func TestMetrics_Register(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := m.Register(reg); err == nil {
		t.Error("second Register() error = nil, want duplicate registration error")
	}
}

func TestMetrics_StatusReported(t *testing.T) {
	m := NewMetrics()

	_ = m.Handle(event.NewStatusReported(domain.KnownStatus("/storage/usb", 91.5), true))
	if got := testutil.ToFloat64(m.UsedPercentage.WithLabelValues("/storage/usb")); got != 91.5 {
		t.Errorf("used_percentage = %v, want 91.5", got)
	}
	if got := testutil.ToFloat64(m.UsageKnown.WithLabelValues("/storage/usb")); got != 1 {
		t.Errorf("usage_known = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Reclaiming); got != 1 {
		t.Errorf("reclaiming = %v, want 1", got)
	}

	_ = m.Handle(event.NewStatusReported(domain.UnknownStatus("/storage/usb"), false))
	if got := testutil.ToFloat64(m.UsageKnown.WithLabelValues("/storage/usb")); got != 0 {
		t.Errorf("usage_known = %v, want 0", got)
	}
	// last known percentage is kept
	if got := testutil.ToFloat64(m.UsedPercentage.WithLabelValues("/storage/usb")); got != 91.5 {
		t.Errorf("used_percentage = %v, want 91.5", got)
	}
}

func TestMetrics_Victims(t *testing.T) {
	m := NewMetrics()

	_ = m.Handle(event.NewVictimDeleted(domain.Victim{Path: "/a", Size: 100}, false))
	_ = m.Handle(event.NewVictimDeleted(domain.Victim{Path: "/b", Size: 50}, true))
	_ = m.Handle(event.NewVictimFailed(domain.Victim{Path: "/c"}))

	if got := testutil.ToFloat64(m.VictimsDeleted.WithLabelValues("unprivileged")); got != 1 {
		t.Errorf("unprivileged deletions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.VictimsDeleted.WithLabelValues("privileged")); got != 1 {
		t.Errorf("privileged deletions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.BytesReclaimed); got != 150 {
		t.Errorf("reclaimed bytes = %v, want 150", got)
	}
	if got := testutil.ToFloat64(m.VictimsFailed); got != 1 {
		t.Errorf("failed = %v, want 1", got)
	}
}

func TestMetrics_ReclaimOutcome(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		report  domain.ReclaimReport
		outcome string
	}{
		{"satisfied", domain.ReclaimReport{ThresholdPercent: 90, EndPercentage: 88}, "satisfied"},
		{"exhausted", domain.ReclaimReport{ThresholdPercent: 90, EndPercentage: 93}, "exhausted"},
		{"indeterminate", domain.ReclaimReport{ThresholdPercent: 90, Indeterminate: true}, "indeterminate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMetrics()
			tt.report.StartedAt = start
			tt.report.FinishedAt = start.Add(time.Second)
			_ = m.Handle(event.NewReclaimCompleted(tt.report))

			if got := testutil.ToFloat64(m.ReclaimPasses.WithLabelValues(tt.outcome)); got != 1 {
				t.Errorf("passes{outcome=%q} = %v, want 1", tt.outcome, got)
			}
			if got := testutil.CollectAndCount(m.ReclaimDuration); got != 1 {
				t.Errorf("duration series = %d, want 1", got)
			}
		})
	}
}

func TestMetrics_MonitorRunning(t *testing.T) {
	m := NewMetrics()

	_ = m.Handle(event.NewMonitorStarted(domain.ReclaimConfig{}, "/"))
	if got := testutil.ToFloat64(m.Running); got != 1 {
		t.Errorf("running = %v, want 1", got)
	}
	_ = m.Handle(event.NewMonitorStopped())
	if got := testutil.ToFloat64(m.Running); got != 0 {
		t.Errorf("running = %v, want 0", got)
	}
}
