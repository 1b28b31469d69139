package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vertextoedge/diskguard/internal/adapter/privileged"
	"github.com/vertextoedge/diskguard/internal/adapter/sqlite"
	"github.com/vertextoedge/diskguard/internal/logger"
	"github.com/vertextoedge/diskguard/internal/port"
	"github.com/vertextoedge/diskguard/internal/service/history"
	"github.com/vertextoedge/diskguard/internal/service/server"
	"go.uber.org/zap"
)

func newRunCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the monitor daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(*configPath)
		},
	}
}

func runDaemon(configPath string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	log.Info("starting diskguard",
		zap.String("version", version),
		zap.String("config", configPath))

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.runner != nil {
		checkPrivilegedAccess(ctx, privileged.NewCommands(a.runner, log.Named("privileged")), cfg.Watch.Directory, log)
	}

	var repo port.HistoryRepository
	var recorder *history.Recorder
	if cfg.History.Enabled {
		store, err := sqlite.Open(cfg.History.Path)
		if err != nil {
			log.Fatal("failed to open history database", zap.Error(err), zap.String("path", cfg.History.Path))
		}
		defer store.Close()
		repo = store

		recorder = history.New(&history.Config{
			SampleInterval: cfg.History.GetSampleInterval(),
			Retention:      cfg.History.GetRetention(),
			PurgeInterval:  time.Hour,
		}, store, log.Named("history"))
		a.events.Subscribe(recorder)
		recorder.Start(ctx)
	}

	var httpServer *server.Server
	if cfg.HTTP.Enabled {
		httpServer = server.New(&server.Config{
			BindAddr:        cfg.HTTP.BindAddr,
			ControlUsername: cfg.HTTP.ControlUsername,
			ControlPassword: cfg.HTTP.ControlPassword,
			ReadTimeout:     cfg.HTTP.GetReadTimeout(),
			WriteTimeout:    cfg.HTTP.GetWriteTimeout(),
			IdleTimeout:     cfg.HTTP.GetIdleTimeout(),
		}, server.Deps{
			Monitor:       a.monitor,
			ReclaimConfig: cfg.ReclaimConfig,
			Probe:         a.prober,
			ExternalRoot:  cfg.Watch.ExternalStorageRoot,
			History:       repo,
			Gatherer:      a.registry,
		}, log.Named("http"))

		go func() {
			if err := httpServer.Start(); err != nil {
				log.Fatal("HTTP server failed", zap.Error(err))
			}
		}()
	}

	if cfg.Watch.Autostart {
		if err := a.monitor.Start(cfg.ReclaimConfig()); err != nil {
			return err
		}
	} else {
		log.Info("autostart disabled, waiting for a start command")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Info("diskguard started",
		zap.String("directory", cfg.Watch.Directory),
		zap.String("http_addr", cfg.HTTP.BindAddr))
	<-sigChan

	log.Info("shutdown signal received, stopping services...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		if err := httpServer.Stop(shutdownCtx); err != nil {
			log.Error("failed to stop HTTP server gracefully", zap.Error(err))
		}
	}

	a.monitor.Stop()
	done := make(chan struct{})
	go func() {
		a.monitor.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warn("in-flight reclaim pass did not finish before shutdown")
	}

	if recorder != nil {
		recorder.Stop()
	}

	log.Info("diskguard stopped")
	return nil
}

// checkPrivilegedAccess logs what the elevated channel can see of the
// watched directory. It never fails the start.
func checkPrivilegedAccess(ctx context.Context, cmds *privileged.Commands, dir string, log *zap.Logger) {
	switch {
	case !cmds.Available(ctx):
		log.Warn("privileged shell not available, continuing with ordinary access only")
	case dir == "":
	case !cmds.PathExists(ctx, dir):
		log.Warn("watched directory does not exist yet", zap.String("directory", dir))
	case !cmds.IsReadableDirectory(ctx, dir):
		log.Warn("watched directory is not a readable directory", zap.String("directory", dir))
	}
}
