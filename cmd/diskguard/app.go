package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/vertextoedge/diskguard/internal/adapter/filesystem"
	"github.com/vertextoedge/diskguard/internal/adapter/privileged"
	"github.com/vertextoedge/diskguard/internal/config"
	"github.com/vertextoedge/diskguard/internal/domain/event"
	"github.com/vertextoedge/diskguard/internal/logger"
	"github.com/vertextoedge/diskguard/internal/metrics"
	"github.com/vertextoedge/diskguard/internal/port"
	"github.com/vertextoedge/diskguard/internal/service/deleter"
	"github.com/vertextoedge/diskguard/internal/service/monitor"
	"github.com/vertextoedge/diskguard/internal/service/probe"
	"github.com/vertextoedge/diskguard/internal/service/reclaim"
	"go.uber.org/zap"
)

// app holds the wired components shared by the subcommands
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	runner   port.CommandRunner
	prober   *probe.Prober
	events   *event.InMemoryDispatcher
	monitor  *monitor.Monitor
	registry *prometheus.Registry
}

func loadConfig(path string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger.L(), nil
}

// newProber builds the space probe, with the privileged fallback when
// privilege is enabled.
func newProber(cfg *config.Config, log *zap.Logger) (*probe.Prober, port.CommandRunner, error) {
	var runner port.CommandRunner
	if cfg.Privilege.Enabled {
		r, err := privileged.NewShellRunner(cfg.Privilege.Shell, cfg.Privilege.GetCommandTimeout(), log.Named("privileged"))
		if err != nil {
			return nil, nil, err
		}
		runner = r
	}
	return probe.New(filesystem.NewCapacityReader(), runner, log.Named("probe")), runner, nil
}

func newApp(cfg *config.Config, log *zap.Logger) (*app, error) {
	prober, runner, err := newProber(cfg, log)
	if err != nil {
		return nil, err
	}

	var lister filesystem.PrivilegedLister
	if runner != nil {
		lister = privileged.NewCommands(runner, log.Named("privileged"))
	}
	fsManager := filesystem.NewManager(lister, log.Named("filesystem"))
	safeDeleter := deleter.New(fsManager, runner, cfg.Privilege.ProtectedPrefixes, log.Named("deleter"))

	events := event.NewInMemoryDispatcher(log)
	events.Subscribe(event.NewLoggingHandler(log.Named("events")))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics()
	if err := m.Register(registry); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	events.Subscribe(m)

	policy := reclaim.New(fsManager, safeDeleter, prober, events, log.Named("reclaim"))
	mon := monitor.New(prober, policy, events, cfg.Watch.ExternalStorageRoot, log.Named("monitor"))

	return &app{
		cfg:      cfg,
		logger:   log,
		runner:   runner,
		prober:   prober,
		events:   events,
		monitor:  mon,
		registry: registry,
	}, nil
}
