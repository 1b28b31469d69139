package probe

import (
	"context"
	"fmt"

	"github.com/vertextoedge/diskguard/internal/adapter/privileged"
	"github.com/vertextoedge/diskguard/internal/domain"
	"github.com/vertextoedge/diskguard/internal/port"
	"go.uber.org/zap"
)

// Prober samples volume usage. The unprivileged query is always tried
// first and trusted whenever it reports a positive total; the privileged
// df query is only a fallback and is never cross-checked against it.
type Prober struct {
	capacity port.CapacityReader
	runner   port.CommandRunner
	logger   *zap.Logger
}

// Ensure Prober implements port.SpaceProbe
var _ port.SpaceProbe = (*Prober)(nil)

// New creates a new Prober. runner may be nil to disable the privileged
// fallback.
func New(capacity port.CapacityReader, runner port.CommandRunner, logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{
		capacity: capacity,
		runner:   runner,
		logger:   logger,
	}
}

// Probe returns a fresh sample for path.
func (p *Prober) Probe(ctx context.Context, path string) (*domain.VolumeSpaceInfo, error) {
	total, free, err := p.capacity.Capacity(path)
	if err == nil && total > 0 {
		info := domain.NewVolumeSpaceInfo(path, total, free)
		p.logger.Debug("got space info via standard query",
			zap.String("path", path),
			zap.Float64("used_pct", info.UsedPercentage))
		return info, nil
	}

	p.logger.Debug("standard query failed or returned invalid data, trying privileged query",
		zap.String("path", path),
		zap.Int64("total", total),
		zap.Error(err))

	if p.runner == nil {
		return nil, fmt.Errorf("%w: %s: privileged fallback disabled", domain.ErrProbeIndeterminate, path)
	}

	if !p.privilegeAvailable(ctx) {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrProbeIndeterminate, path, domain.ErrPrivilegeUnavailable)
	}

	result, err := p.runner.Run(ctx, privileged.DiskFreeCommand(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrProbeIndeterminate, path, err)
	}

	info, err := ParseDiskFree(path, result)
	if err != nil {
		p.logger.Debug("failed to parse df output",
			zap.String("path", path),
			zap.Strings("stdout", result.Stdout),
			zap.String("stderr", result.StderrText()),
			zap.Error(err))
		return nil, err
	}

	p.logger.Debug("got space info via privileged query",
		zap.String("path", path),
		zap.Float64("used_pct", info.UsedPercentage))
	return info, nil
}

func (p *Prober) privilegeAvailable(ctx context.Context) bool {
	result, err := p.runner.Run(ctx, privileged.AvailabilityProbeCommand)
	ok := err == nil && result.Succeeded()
	p.logger.Debug("privileged channel check", zap.Bool("available", ok))
	return ok
}
