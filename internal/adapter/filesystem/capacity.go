package filesystem

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/vertextoedge/diskguard/internal/domain"
	"github.com/vertextoedge/diskguard/internal/port"
)

// UsageFunc is the signature of the OS capacity query.
// This is exposed for testing purposes to allow mocking.
type UsageFunc func(path string) (*disk.UsageStat, error)

// CapacityReader reads volume capacity without elevated privileges.
type CapacityReader struct {
	usage UsageFunc
}

// Ensure CapacityReader implements port.CapacityReader
var _ port.CapacityReader = (*CapacityReader)(nil)

// NewCapacityReader creates a reader backed by gopsutil.
func NewCapacityReader() *CapacityReader {
	return &CapacityReader{usage: disk.Usage}
}

// NewCapacityReaderWithUsage creates a reader with a custom usage function.
func NewCapacityReaderWithUsage(fn UsageFunc) *CapacityReader {
	return &CapacityReader{usage: fn}
}

// Capacity returns total and free bytes of the filesystem holding dir.
func (c *CapacityReader) Capacity(dir string) (int64, int64, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return 0, 0, fmt.Errorf("%s: %w", dir, domain.ErrNotDirectory)
	}

	stat, err := c.usage(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get disk stats: %w", err)
	}

	return clampInt64(stat.Total), clampInt64(stat.Free), nil
}

func clampInt64(v uint64) int64 {
	const maxInt64 = 1<<63 - 1
	if v > maxInt64 {
		return maxInt64
	}
	return int64(v)
}
