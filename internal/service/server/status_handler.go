package server

import (
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/vertextoedge/diskguard/internal/domain"
	"github.com/vertextoedge/diskguard/internal/port"
	"go.uber.org/zap"
)

// StatusHandler serves run state and on-demand space probes
type StatusHandler struct {
	monitor      MonitorController
	probe        port.SpaceProbe
	externalRoot string
	logger       *zap.Logger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(monitor MonitorController, probe port.SpaceProbe, externalRoot string, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		monitor:      monitor,
		probe:        probe,
		externalRoot: externalRoot,
		logger:       logger,
	}
}

// StatusResponse is the body of GET /status
type StatusResponse struct {
	Phase            domain.MonitorPhase `json:"phase"`
	Running          bool                `json:"running"`
	Reclaiming       bool                `json:"reclaiming"`
	StartedAt        *time.Time          `json:"started_at,omitempty"`
	Ticks            int64               `json:"ticks"`
	SkippedTicks     int64               `json:"skipped_ticks"`
	WatchedDirectory string              `json:"watched_directory,omitempty"`
	ThresholdPercent int                 `json:"threshold_percent"`
	PollInterval     string              `json:"poll_interval,omitempty"`
	Status           *StatusBody         `json:"status"`
}

// StatusBody is the last status report
type StatusBody struct {
	Path           string    `json:"path"`
	Known          bool      `json:"known"`
	UsedPercentage *float64  `json:"used_percentage"`
	Text           string    `json:"text"`
	At             time.Time `json:"at"`
}

// SpaceResponse is the body of GET /space
type SpaceResponse struct {
	Path           string  `json:"path"`
	VolumeRoot     string  `json:"volume_root"`
	TotalBytes     int64   `json:"total_bytes"`
	FreeBytes      int64   `json:"free_bytes"`
	UsedBytes      int64   `json:"used_bytes"`
	UsedPercentage float64 `json:"used_percentage"`
	Total          string  `json:"total"`
	Free           string  `json:"free"`
	Used           string  `json:"used"`
}

// HandleStatus handles GET /status
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state := h.monitor.State()
	cfg := h.monitor.Config()

	resp := StatusResponse{
		Phase:            state.Phase,
		Running:          state.Running,
		Reclaiming:       state.Reclaiming,
		Ticks:            state.Ticks,
		SkippedTicks:     state.Skipped,
		WatchedDirectory: cfg.WatchedDirectory,
		ThresholdPercent: cfg.ThresholdPercent,
	}
	if cfg.PollInterval > 0 {
		resp.PollInterval = cfg.PollInterval.String()
	}
	if !state.StartedAt.IsZero() {
		t := state.StartedAt
		resp.StartedAt = &t
	}
	if s := state.LastStatus; s != nil {
		body := &StatusBody{Path: s.Path, Known: s.Known, Text: s.Text(), At: s.At}
		if s.Known {
			pct := s.UsedPercentage
			body.UsedPercentage = &pct
		}
		resp.Status = body
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleSpace handles GET /space?path=...
func (h *StatusHandler) HandleSpace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" || !filepath.IsAbs(path) {
		http.Error(w, "path must be an absolute path", http.StatusBadRequest)
		return
	}

	info, err := h.probe.Probe(r.Context(), path)
	if err != nil {
		h.logger.Warn("on-demand probe failed", zap.String("path", path), zap.Error(err))
		code := http.StatusInternalServerError
		if errors.Is(err, domain.ErrProbeIndeterminate) {
			code = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), code)
		return
	}

	writeJSON(w, http.StatusOK, SpaceResponse{
		Path:           path,
		VolumeRoot:     domain.ResolveVolumeRoot(path, h.externalRoot),
		TotalBytes:     info.TotalBytes,
		FreeBytes:      info.FreeBytes,
		UsedBytes:      info.UsedBytes,
		UsedPercentage: info.UsedPercentage,
		Total:          domain.FormatBytes(info.TotalBytes),
		Free:           domain.FormatBytes(info.FreeBytes),
		Used:           domain.FormatBytes(info.UsedBytes),
	})
}
