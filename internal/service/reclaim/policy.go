package reclaim

import (
	"context"
	"sort"
	"time"

	"github.com/vertextoedge/diskguard/internal/domain"
	"github.com/vertextoedge/diskguard/internal/domain/event"
	"github.com/vertextoedge/diskguard/internal/port"
	"go.uber.org/zap"
)

// Policy deletes the oldest entries of a directory until the volume is back
// at or under the threshold. Callers must serialise passes.
type Policy struct {
	lister  port.EntryLister
	deleter port.Deleter
	probe   port.SpaceProbe
	events  event.EventDispatcher
	logger  *zap.Logger
}

// New creates a new Policy
func New(lister port.EntryLister, deleter port.Deleter, probe port.SpaceProbe, events event.EventDispatcher, logger *zap.Logger) *Policy {
	if events == nil {
		events = event.NewNullDispatcher()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{
		lister:  lister,
		deleter: deleter,
		probe:   probe,
		events:  events,
		logger:  logger,
	}
}

// Reclaim runs one pass over the immediate entries of directory, measuring
// usage on rootVolumePath. Running out of candidates while still over the
// threshold is a normal, reportable outcome.
func (p *Policy) Reclaim(ctx context.Context, directory, rootVolumePath string, thresholdPercent int) *domain.ReclaimReport {
	report := &domain.ReclaimReport{
		Directory:        directory,
		VolumeRoot:       rootVolumePath,
		ThresholdPercent: thresholdPercent,
		StartedAt:        time.Now(),
	}

	victims, err := p.lister.List(ctx, directory)
	if err != nil {
		p.logger.Warn("failed to list watched directory", zap.String("directory", directory), zap.Error(err))
	}
	if len(victims) == 0 {
		p.logger.Debug("nothing to reclaim", zap.String("directory", directory))
		report.FinishedAt = time.Now()
		return report
	}

	// Oldest first; entries with equal mtimes keep their listing order.
	sort.SliceStable(victims, func(i, j int) bool {
		return victims[i].ModTime.Before(victims[j].ModTime)
	})
	report.Candidates = len(victims)

	defer func() {
		report.FinishedAt = time.Now()
		p.events.Dispatch(event.NewReclaimCompleted(*report))
	}()

	info, err := p.probe.Probe(ctx, rootVolumePath)
	if err != nil {
		p.markIndeterminate(report, err)
		return report
	}
	report.StartPercentage = info.UsedPercentage
	report.EndPercentage = info.UsedPercentage

	p.logger.Info("starting reclaim pass",
		zap.String("directory", directory),
		zap.String("volume_root", rootVolumePath),
		zap.Int("candidates", len(victims)),
		zap.Float64("used_pct", info.UsedPercentage),
		zap.Int("threshold_pct", thresholdPercent))

	for i := 0; info.OverThreshold(thresholdPercent) && i < len(victims); i++ {
		if ctx.Err() != nil {
			p.logger.Warn("reclaim pass cancelled", zap.Error(ctx.Err()))
			return report
		}

		victim := victims[i]
		deleted, viaRoot := p.deleter.DeleteEntry(ctx, victim.Path)
		if deleted {
			report.Deleted = append(report.Deleted, victim)
			p.events.Dispatch(event.NewVictimDeleted(victim, viaRoot))
		} else {
			report.Failed = append(report.Failed, victim)
			p.logger.Warn("skipping victim",
				zap.Error(domain.NewSkippableError(domain.ErrDeletionFailed, victim.Path)))
			p.events.Dispatch(event.NewVictimFailed(victim))
		}

		info, err = p.probe.Probe(ctx, rootVolumePath)
		if err != nil {
			p.markIndeterminate(report, err)
			return report
		}
		report.EndPercentage = info.UsedPercentage
		p.events.Dispatch(event.NewStatusReported(domain.KnownStatus(rootVolumePath, info.UsedPercentage), true))
	}

	if info.OverThreshold(thresholdPercent) {
		p.logger.Warn("candidates exhausted while still over threshold",
			zap.String("directory", directory),
			zap.Float64("used_pct", info.UsedPercentage),
			zap.Int("threshold_pct", thresholdPercent))
	}

	return report
}

func (p *Policy) markIndeterminate(report *domain.ReclaimReport, err error) {
	report.Indeterminate = true
	p.logger.Warn("cannot evaluate usage, stopping reclaim pass",
		zap.String("volume_root", report.VolumeRoot),
		zap.Error(err))
	p.events.Dispatch(event.NewStatusReported(domain.UnknownStatus(report.VolumeRoot), true))
}
