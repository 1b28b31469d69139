package port

import (
	"context"

	"github.com/vertextoedge/diskguard/internal/domain"
)

// CapacityReader is the unprivileged, OS-level capacity query.
type CapacityReader interface {
	// Capacity returns total and free bytes of the filesystem holding dir.
	// dir must exist and be a directory.
	Capacity(dir string) (total, free int64, err error)
}

// SpaceProbe returns a fresh capacity sample for a path.
type SpaceProbe interface {
	// Probe returns domain.ErrProbeIndeterminate (wrapped) and a nil sample
	// when no usable data could be obtained.
	Probe(ctx context.Context, path string) (*domain.VolumeSpaceInfo, error)
}
