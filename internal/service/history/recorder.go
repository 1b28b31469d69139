package history

import (
	"context"
	"sync"
	"time"

	"github.com/vertextoedge/diskguard/internal/domain/event"
	"github.com/vertextoedge/diskguard/internal/port"
	"github.com/vertextoedge/diskguard/internal/util/throttle"
	"go.uber.org/zap"
)

// Config contains history recorder configuration
type Config struct {
	// SampleInterval is the minimum spacing of persisted status samples per
	// volume root. Changes of the known flag are always persisted.
	SampleInterval time.Duration

	// Retention is how long samples and reclaim records are kept. Zero keeps
	// everything.
	Retention time.Duration

	// PurgeInterval is how often expired rows are removed
	PurgeInterval time.Duration
}

// DefaultConfig returns default history configuration
func DefaultConfig() *Config {
	return &Config{
		SampleInterval: time.Minute,
		Retention:      7 * 24 * time.Hour,
		PurgeInterval:  time.Hour,
	}
}

// Recorder persists status reports and reclaim passes as they are dispatched.
type Recorder struct {
	config   *Config
	repo     port.HistoryRepository
	throttle *throttle.Throttle
	logger   *zap.Logger

	mu        sync.Mutex
	lastKnown map[string]bool

	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a new Recorder
func New(cfg *Config, repo port.HistoryRepository, logger *zap.Logger) *Recorder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.PurgeInterval <= 0 {
		cfg.PurgeInterval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		config:    cfg,
		repo:      repo,
		throttle:  throttle.New(cfg.SampleInterval),
		logger:    logger,
		lastKnown: make(map[string]bool),
	}
}

// Handle persists the event if it is one the recorder keeps
func (r *Recorder) Handle(e event.DomainEvent) error {
	switch ev := e.(type) {
	case event.StatusReported:
		if !r.shouldSample(ev.Status.Path, ev.Status.Known) {
			return nil
		}
		return r.repo.AddStatusSample(ev.Status)
	case event.ReclaimCompleted:
		return r.repo.AddReclaimRecord(ev.Report)
	}
	return nil
}

// HandledEvents returns the events this handler handles
func (r *Recorder) HandledEvents() []string {
	return []string{event.NameStatusReported, event.NameReclaimCompleted}
}

func (r *Recorder) shouldSample(path string, known bool) bool {
	r.mu.Lock()
	prev, seen := r.lastKnown[path]
	r.lastKnown[path] = known
	r.mu.Unlock()

	if seen && prev != known {
		r.throttle.Forget(path)
	}
	allowed, _ := r.throttle.Allow(path)
	return allowed
}

// Start runs the retention purge loop until ctx is cancelled or Stop is
// called. It purges once immediately.
func (r *Recorder) Start(ctx context.Context) {
	if r.config.Retention <= 0 {
		r.logger.Debug("history retention disabled")
		return
	}

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	ctx, r.cancel = context.WithCancel(ctx)
	r.mu.Unlock()

	r.wg.Add(1)
	go r.purgeLoop(ctx)
}

// Stop stops the purge loop and waits for it to exit
func (r *Recorder) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.running = false
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Recorder) purgeLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.PurgeInterval)
	defer ticker.Stop()

	r.purge()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.purge()
		}
	}
}

func (r *Recorder) purge() {
	cutoff := time.Now().Add(-r.config.Retention)
	n, err := r.repo.PurgeOlderThan(cutoff)
	if err != nil {
		r.logger.Error("failed to purge history", zap.Error(err))
		return
	}
	if n > 0 {
		r.logger.Info("purged history", zap.Int("rows", n), zap.Time("cutoff", cutoff))
	}
}
