package domain

import (
	"fmt"
	"time"
)

// Status is what the status sink shows for a volume root.
type Status struct {
	Path           string
	UsedPercentage float64
	Known          bool
	At             time.Time
}

// KnownStatus returns a status carrying a computed percentage.
func KnownStatus(path string, usedPct float64) Status {
	return Status{Path: path, UsedPercentage: usedPct, Known: true, At: time.Now()}
}

// UnknownStatus returns the explicit "cannot evaluate" status.
func UnknownStatus(path string) Status {
	return Status{Path: path, At: time.Now()}
}

// Text renders the notification line, e.g. "/storage/1234-ABCD: 91.5%".
func (s Status) Text() string {
	if !s.Known {
		return fmt.Sprintf("%s: unknown", s.Path)
	}
	return fmt.Sprintf("%s: %.1f%%", s.Path, s.UsedPercentage)
}

// MonitorPhase is the lifecycle phase of a monitor.
type MonitorPhase string

const (
	PhaseStopped  MonitorPhase = "stopped"
	PhaseStarting MonitorPhase = "starting"
	PhaseRunning  MonitorPhase = "running"
)

// MonitorRunState is a read-only snapshot of a monitor's run flags.
type MonitorRunState struct {
	Phase      MonitorPhase
	Running    bool
	Reclaiming bool
	StartedAt  time.Time
	Ticks      int64
	Skipped    int64
	LastStatus *Status
}
