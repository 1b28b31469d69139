package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vertextoedge/diskguard/internal/domain"
	"github.com/vertextoedge/diskguard/internal/domain/event"
	"github.com/vertextoedge/diskguard/internal/port"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Reclaimer runs one reclaim pass.
type Reclaimer interface {
	Reclaim(ctx context.Context, directory, rootVolumePath string, thresholdPercent int) *domain.ReclaimReport
}

// Monitor periodically samples the volume holding the watched directory and
// starts a reclaim pass whenever usage is above the threshold.
//
// At most one tick's work is in flight at any time. A tick that fires while
// the previous one is still probing or reclaiming is dropped, not queued.
type Monitor struct {
	probe        port.SpaceProbe
	reclaimer    Reclaimer
	events       event.EventDispatcher
	status       *event.StatusHolder
	externalRoot string
	logger       *zap.Logger

	mu         sync.Mutex
	phase      domain.MonitorPhase
	cfg        domain.ReclaimConfig
	volumeRoot string
	startedAt  time.Time
	cancel     context.CancelFunc
	// wg tracks the goroutines of the current or last run.
	wg         *sync.WaitGroup

	inFlight   *atomic.Bool
	reclaiming *atomic.Bool
	ticks      *atomic.Int64
	skipped    *atomic.Int64
}

// New creates a new Monitor. externalRoot is the external-storage root used
// when resolving the volume of the watched directory.
func New(probe port.SpaceProbe, reclaimer Reclaimer, events event.EventDispatcher, externalRoot string, logger *zap.Logger) *Monitor {
	if events == nil {
		events = event.NewNullDispatcher()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	status := event.NewStatusHolder()
	events.Subscribe(status)

	return &Monitor{
		probe:        probe,
		reclaimer:    reclaimer,
		events:       events,
		status:       status,
		externalRoot: externalRoot,
		logger:       logger,
		phase:        domain.PhaseStopped,
		inFlight:     atomic.NewBool(false),
		reclaiming:   atomic.NewBool(false),
		ticks:        atomic.NewInt64(0),
		skipped:      atomic.NewInt64(0),
	}
}

// Start begins monitoring with cfg. Starting a monitor that is already
// starting or running does nothing. The first status update happens before
// Start returns; the first tick fires one poll interval later.
func (m *Monitor) Start(cfg domain.ReclaimConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	if m.phase != domain.PhaseStopped {
		m.mu.Unlock()
		m.logger.Debug("monitor already running, ignoring start")
		return nil
	}
	m.phase = domain.PhaseStarting
	m.cfg = cfg
	m.volumeRoot = domain.ResolveVolumeRoot(cfg.WatchedDirectory, m.externalRoot)
	m.startedAt = time.Now()
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	wg := &sync.WaitGroup{}
	m.wg = wg
	root := m.volumeRoot
	m.mu.Unlock()

	m.events.Dispatch(event.NewMonitorStarted(cfg, root))

	m.reportStatus(ctx, root)

	m.mu.Lock()
	defer m.mu.Unlock()
	if ctx.Err() != nil {
		// stopped while starting
		return nil
	}
	m.phase = domain.PhaseRunning
	wg.Add(1)
	go m.loop(ctx, wg, cfg, root)
	return nil
}

// Stop stops ticking. Stopping a stopped monitor does nothing. A tick that
// is already in flight runs to completion; use Wait to block on it.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.phase == domain.PhaseStopped {
		m.mu.Unlock()
		return
	}
	m.phase = domain.PhaseStopped
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.mu.Unlock()

	m.events.Dispatch(event.NewMonitorStopped())
}

// Wait blocks until the loop goroutine and any in-flight tick of the
// current or last run have finished. A restart while Wait is blocked does
// not extend the wait to the new run.
func (m *Monitor) Wait() {
	m.mu.Lock()
	wg := m.wg
	m.mu.Unlock()
	if wg != nil {
		wg.Wait()
	}
}

// Running reports whether the monitor is starting or running.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase != domain.PhaseStopped
}

// Config returns the configuration of the current or last run.
func (m *Monitor) Config() domain.ReclaimConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// State returns a snapshot of the run flags.
func (m *Monitor) State() domain.MonitorRunState {
	m.mu.Lock()
	phase, startedAt := m.phase, m.startedAt
	m.mu.Unlock()

	return domain.MonitorRunState{
		Phase:      phase,
		Running:    phase != domain.PhaseStopped,
		Reclaiming: m.reclaiming.Load(),
		StartedAt:  startedAt,
		Ticks:      m.ticks.Load(),
		Skipped:    m.skipped.Load(),
		LastStatus: m.status.Last(),
	}
}

func (m *Monitor) loop(ctx context.Context, wg *sync.WaitGroup, cfg domain.ReclaimConfig, root string) {
	defer wg.Done()

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	// Tick work must survive Stop.
	workCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(workCtx, wg, cfg, root)
		}
	}
}

func (m *Monitor) tick(ctx context.Context, wg *sync.WaitGroup, cfg domain.ReclaimConfig, root string) {
	if !m.inFlight.CompareAndSwap(false, true) {
		m.skipped.Inc()
		m.logger.Debug("previous tick still in flight, skipping",
			zap.Bool("reclaiming", m.reclaiming.Load()))
		return
	}
	m.ticks.Inc()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer m.inFlight.Store(false)
		m.runTick(ctx, cfg, root)
	}()
}

func (m *Monitor) runTick(ctx context.Context, cfg domain.ReclaimConfig, root string) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("monitor tick panicked",
				zap.String("volume_root", root),
				zap.Error(fmt.Errorf("panic: %v", r)))
		}
	}()

	info := m.reportStatus(ctx, root)
	if !info.OverThreshold(cfg.ThresholdPercent) {
		return
	}

	m.reclaiming.Store(true)
	defer m.reclaiming.Store(false)

	m.reclaimer.Reclaim(ctx, cfg.WatchedDirectory, root, cfg.ThresholdPercent)
}

// reportStatus probes root and publishes the result. It returns nil when
// usage could not be determined.
func (m *Monitor) reportStatus(ctx context.Context, root string) *domain.VolumeSpaceInfo {
	info, err := m.probe.Probe(ctx, root)
	if err != nil || !info.Determinate() {
		m.logger.Warn("cannot determine volume usage",
			zap.String("volume_root", root),
			zap.Error(err))
		m.events.Dispatch(event.NewStatusReported(domain.UnknownStatus(root), false))
		return nil
	}

	m.events.Dispatch(event.NewStatusReported(domain.KnownStatus(root, info.UsedPercentage), false))
	return info
}
