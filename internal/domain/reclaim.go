package domain

import (
	"fmt"
	"path/filepath"
	"time"
)

// ReclaimConfig is supplied once per monitor start and never mutated while
// the monitor runs.
type ReclaimConfig struct {
	WatchedDirectory string
	ThresholdPercent int
	PollInterval     time.Duration
}

// Validate checks the ranges the core relies on. A minimum sensible poll
// interval is the caller's concern; any positive value is accepted here.
func (c ReclaimConfig) Validate() error {
	if c.WatchedDirectory == "" || !filepath.IsAbs(c.WatchedDirectory) {
		return fmt.Errorf("%w: watched directory must be an absolute path, got %q", ErrInvalidConfig, c.WatchedDirectory)
	}
	if c.ThresholdPercent < 0 || c.ThresholdPercent > 100 {
		return fmt.Errorf("%w: threshold must be between 0 and 100, got %d", ErrInvalidConfig, c.ThresholdPercent)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive, got %v", ErrInvalidConfig, c.PollInterval)
	}
	return nil
}

// Victim is one top-level entry of the watched directory.
type Victim struct {
	Path    string
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// ReclaimReport summarises one reclaim pass.
type ReclaimReport struct {
	Directory        string
	VolumeRoot       string
	ThresholdPercent int
	Candidates       int
	Deleted          []Victim
	Failed           []Victim
	StartPercentage  float64
	EndPercentage    float64
	Indeterminate    bool
	StartedAt        time.Time
	FinishedAt       time.Time
}

// Satisfied reports whether the pass ended at or under the threshold.
func (r *ReclaimReport) Satisfied() bool {
	return !r.Indeterminate && r.EndPercentage <= float64(r.ThresholdPercent)
}

// Duration returns how long the pass ran.
func (r *ReclaimReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
