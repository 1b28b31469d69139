package probe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vertextoedge/diskguard/internal/domain"
)

const blockSize = 1024

// ParseDiskFree converts the output of `df -kP <path>` into a sample.
//
// The first line is the header; the second carries
// [filesystem, 1K-blocks, used, available, use%, mountpoint]. At least the
// first five fields must be present. Any malformed output yields
// domain.ErrProbeIndeterminate.
func ParseDiskFree(path string, result *domain.CommandResult) (*domain.VolumeSpaceInfo, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: no df result", domain.ErrProbeIndeterminate)
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("%w: df exited with %d", domain.ErrProbeIndeterminate, result.ExitCode)
	}
	if len(result.Stdout) < 2 {
		return nil, fmt.Errorf("%w: df printed %d lines, want at least 2", domain.ErrProbeIndeterminate, len(result.Stdout))
	}

	line := result.Stdout[1]
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return nil, fmt.Errorf("%w: df line %q has %d fields, want at least 5", domain.ErrProbeIndeterminate, line, len(fields))
	}

	total, err := parseBlocks(fields[1])
	if err != nil {
		return nil, err
	}
	used, err := parseBlocks(fields[2])
	if err != nil {
		return nil, err
	}
	avail, err := parseBlocks(fields[3])
	if err != nil {
		return nil, err
	}

	return &domain.VolumeSpaceInfo{
		Path:           path,
		TotalBytes:     total,
		FreeBytes:      avail,
		UsedBytes:      used,
		UsedPercentage: domain.UsedPercentage(used, total),
	}, nil
}

func parseBlocks(field string) (int64, error) {
	n, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid block count %q: %v", domain.ErrProbeIndeterminate, field, err)
	}
	if n < 0 || n > (1<<63-1)/blockSize {
		return 0, fmt.Errorf("%w: block count %d out of range", domain.ErrProbeIndeterminate, n)
	}
	return n * blockSize, nil
}
