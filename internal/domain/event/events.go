package event

import (
	"time"

	"github.com/vertextoedge/diskguard/internal/domain"
)

// Event names
const (
	NameStatusReported   = "status.reported"
	NameVictimDeleted    = "victim.deleted"
	NameVictimFailed     = "victim.failed"
	NameReclaimCompleted = "reclaim.completed"
	NameMonitorStarted   = "monitor.started"
	NameMonitorStopped   = "monitor.stopped"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	// EventName returns the name of the event
	EventName() string
	// OccurredAt returns when the event occurred
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// StatusReported carries one status update for a volume root. It is raised
// once per tick and once per deletion during a reclaim pass.
type StatusReported struct {
	BaseEvent
	Status domain.Status
	// Reclaiming is true for intermediate reports inside a reclaim pass.
	Reclaiming bool
}

// EventName returns the event name
func (e StatusReported) EventName() string {
	return NameStatusReported
}

// NewStatusReported creates a new StatusReported event
func NewStatusReported(status domain.Status, reclaiming bool) StatusReported {
	return StatusReported{
		BaseEvent:  BaseEvent{Timestamp: status.At},
		Status:     status,
		Reclaiming: reclaiming,
	}
}

// VictimDeleted is raised after a victim has been removed
type VictimDeleted struct {
	BaseEvent
	Victim     domain.Victim
	Privileged bool
}

// EventName returns the event name
func (e VictimDeleted) EventName() string {
	return NameVictimDeleted
}

// NewVictimDeleted creates a new VictimDeleted event
func NewVictimDeleted(victim domain.Victim, privileged bool) VictimDeleted {
	return VictimDeleted{
		BaseEvent:  BaseEvent{Timestamp: time.Now()},
		Victim:     victim,
		Privileged: privileged,
	}
}

// VictimFailed is raised when neither deletion path removed a victim
type VictimFailed struct {
	BaseEvent
	Victim domain.Victim
}

// EventName returns the event name
func (e VictimFailed) EventName() string {
	return NameVictimFailed
}

// NewVictimFailed creates a new VictimFailed event
func NewVictimFailed(victim domain.Victim) VictimFailed {
	return VictimFailed{
		BaseEvent: BaseEvent{Timestamp: time.Now()},
		Victim:    victim,
	}
}

// ReclaimCompleted is raised at the end of every reclaim pass
type ReclaimCompleted struct {
	BaseEvent
	Report domain.ReclaimReport
}

// EventName returns the event name
func (e ReclaimCompleted) EventName() string {
	return NameReclaimCompleted
}

// NewReclaimCompleted creates a new ReclaimCompleted event
func NewReclaimCompleted(report domain.ReclaimReport) ReclaimCompleted {
	return ReclaimCompleted{
		BaseEvent: BaseEvent{Timestamp: report.FinishedAt},
		Report:    report,
	}
}

// MonitorStarted is raised when a monitor enters the running phase
type MonitorStarted struct {
	BaseEvent
	Config     domain.ReclaimConfig
	VolumeRoot string
}

// EventName returns the event name
func (e MonitorStarted) EventName() string {
	return NameMonitorStarted
}

// NewMonitorStarted creates a new MonitorStarted event
func NewMonitorStarted(cfg domain.ReclaimConfig, volumeRoot string) MonitorStarted {
	return MonitorStarted{
		BaseEvent:  BaseEvent{Timestamp: time.Now()},
		Config:     cfg,
		VolumeRoot: volumeRoot,
	}
}

// MonitorStopped is raised when a monitor leaves the running phase
type MonitorStopped struct {
	BaseEvent
}

// EventName returns the event name
func (e MonitorStopped) EventName() string {
	return NameMonitorStopped
}

// NewMonitorStopped creates a new MonitorStopped event
func NewMonitorStopped() MonitorStopped {
	return MonitorStopped{BaseEvent: BaseEvent{Timestamp: time.Now()}}
}
