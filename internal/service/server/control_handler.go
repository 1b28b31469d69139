package server

import (
	"errors"
	"net/http"

	"github.com/vertextoedge/diskguard/internal/domain"
	"go.uber.org/zap"
)

// ControlHandler handles the opaque start and stop commands
type ControlHandler struct {
	monitor MonitorController
	config  func() domain.ReclaimConfig
	logger  *zap.Logger
}

// NewControlHandler creates a new ControlHandler
func NewControlHandler(monitor MonitorController, config func() domain.ReclaimConfig, logger *zap.Logger) *ControlHandler {
	return &ControlHandler{
		monitor: monitor,
		config:  config,
		logger:  logger,
	}
}

// HandleStart handles POST /control/start
func (h *ControlHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.config == nil {
		http.Error(w, "no monitor configuration", http.StatusInternalServerError)
		return
	}

	if err := h.monitor.Start(h.config()); err != nil {
		h.logger.Warn("start command rejected", zap.Error(err))
		code := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidConfig) {
			code = http.StatusBadRequest
		}
		http.Error(w, err.Error(), code)
		return
	}

	h.logger.Info("start command accepted", zap.String("remote_addr", r.RemoteAddr))
	writeJSON(w, http.StatusOK, map[string]interface{}{"running": h.monitor.State().Running})
}

// HandleStop handles POST /control/stop
func (h *ControlHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.monitor.Stop()
	h.logger.Info("stop command accepted", zap.String("remote_addr", r.RemoteAddr))
	writeJSON(w, http.StatusOK, map[string]interface{}{"running": h.monitor.State().Running})
}
