package event

import (
	"sync"

	"github.com/vertextoedge/diskguard/internal/domain"
	"go.uber.org/zap"
)

// LoggingHandler logs all events
type LoggingHandler struct {
	logger *zap.Logger
}

// NewLoggingHandler creates a new LoggingHandler
func NewLoggingHandler(logger *zap.Logger) *LoggingHandler {
	return &LoggingHandler{logger: logger}
}

// Handle logs the event
func (h *LoggingHandler) Handle(event DomainEvent) error {
	switch e := event.(type) {
	case StatusReported:
		if !e.Status.Known {
			h.logger.Warn("volume usage unknown",
				zap.String("path", e.Status.Path),
				zap.Bool("reclaiming", e.Reclaiming))
			return nil
		}
		h.logger.Info("volume status",
			zap.String("path", e.Status.Path),
			zap.Float64("used_pct", e.Status.UsedPercentage),
			zap.Bool("reclaiming", e.Reclaiming))
	case VictimDeleted:
		h.logger.Info("victim deleted",
			zap.String("path", e.Victim.Path),
			zap.Time("mod_time", e.Victim.ModTime),
			zap.Bool("dir", e.Victim.IsDir),
			zap.Bool("privileged", e.Privileged))
	case VictimFailed:
		h.logger.Warn("victim could not be deleted",
			zap.String("path", e.Victim.Path),
			zap.Time("mod_time", e.Victim.ModTime))
	case ReclaimCompleted:
		r := e.Report
		h.logger.Info("reclaim pass completed",
			zap.String("directory", r.Directory),
			zap.Int("candidates", r.Candidates),
			zap.Int("deleted", len(r.Deleted)),
			zap.Int("failed", len(r.Failed)),
			zap.Float64("start_pct", r.StartPercentage),
			zap.Float64("end_pct", r.EndPercentage),
			zap.Bool("satisfied", r.Satisfied()),
			zap.Duration("duration", r.Duration()))
	case MonitorStarted:
		h.logger.Info("monitor started",
			zap.String("directory", e.Config.WatchedDirectory),
			zap.String("volume_root", e.VolumeRoot),
			zap.Int("threshold_pct", e.Config.ThresholdPercent),
			zap.Duration("poll_interval", e.Config.PollInterval))
	case MonitorStopped:
		h.logger.Info("monitor stopped")
	default:
		h.logger.Debug("domain event",
			zap.String("event", event.EventName()),
			zap.Time("occurred_at", event.OccurredAt()),
		)
	}
	return nil
}

// HandledEvents returns the events this handler handles
func (h *LoggingHandler) HandledEvents() []string {
	return []string{"*"} // Handle all events
}

// StatusHolder keeps the most recent status report for on-demand queries.
// Until a status has been reported, Last returns nil.
type StatusHolder struct {
	mu   sync.RWMutex
	last *domain.Status
}

// NewStatusHolder creates a new StatusHolder
func NewStatusHolder() *StatusHolder {
	return &StatusHolder{}
}

// Handle records the status
func (h *StatusHolder) Handle(event DomainEvent) error {
	if e, ok := event.(StatusReported); ok {
		s := e.Status
		h.mu.Lock()
		h.last = &s
		h.mu.Unlock()
	}
	return nil
}

// HandledEvents returns the events this handler handles
func (h *StatusHolder) HandledEvents() []string {
	return []string{NameStatusReported}
}

// Last returns a copy of the last reported status
func (h *StatusHolder) Last() *domain.Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil {
		return nil
	}
	s := *h.last
	return &s
}
