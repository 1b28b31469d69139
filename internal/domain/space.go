package domain

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// VolumeSpaceInfo is one capacity sample of a volume.
// A sample with TotalBytes <= 0 means "could not determine" and is never
// treated as a full volume.
type VolumeSpaceInfo struct {
	Path           string
	TotalBytes     int64
	FreeBytes      int64
	UsedBytes      int64
	UsedPercentage float64
}

// NewVolumeSpaceInfo builds a sample from total and free capacity,
// deriving used bytes and the percentage.
func NewVolumeSpaceInfo(path string, total, free int64) *VolumeSpaceInfo {
	used := total - free
	return &VolumeSpaceInfo{
		Path:           path,
		TotalBytes:     total,
		FreeBytes:      free,
		UsedBytes:      used,
		UsedPercentage: UsedPercentage(used, total),
	}
}

// UsedPercentage returns used/total*100, or 0 when total is not positive.
func UsedPercentage(used, total int64) float64 {
	if total <= 0 {
		return 0
	}
	pct := float64(used) / float64(total) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Determinate reports whether the sample carries a usable total.
func (v *VolumeSpaceInfo) Determinate() bool {
	return v != nil && v.TotalBytes > 0
}

// OverThreshold reports whether usage is strictly above thresholdPercent.
// Usage exactly at the threshold is healthy.
func (v *VolumeSpaceInfo) OverThreshold(thresholdPercent int) bool {
	if !v.Determinate() {
		return false
	}
	return v.UsedPercentage > float64(thresholdPercent)
}

func (v *VolumeSpaceInfo) String() string {
	return fmt.Sprintf("VolumeSpaceInfo(path=%q total=%s free=%s used=%s used_pct=%.2f%%)",
		v.Path, FormatBytes(v.TotalBytes), FormatBytes(v.FreeBytes), FormatBytes(v.UsedBytes), v.UsedPercentage)
}

// FormatBytes renders a byte count in IEC units, "N/A" for negative values.
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "N/A"
	}
	return humanize.IBytes(uint64(bytes))
}
