package port

import (
	"time"

	"github.com/vertextoedge/diskguard/internal/domain"
)

// StatusSample is one persisted status report.
type StatusSample struct {
	ID             int64     `json:"id"`
	Path           string    `json:"path"`
	UsedPercentage float64   `json:"used_percentage"`
	Known          bool      `json:"known"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// ReclaimRecord is one persisted reclaim pass.
type ReclaimRecord struct {
	ID               int64     `json:"id"`
	Directory        string    `json:"directory"`
	VolumeRoot       string    `json:"volume_root"`
	ThresholdPercent int       `json:"threshold_percent"`
	Candidates       int       `json:"candidates"`
	DeletedCount     int       `json:"deleted_count"`
	FailedCount      int       `json:"failed_count"`
	DeletedPaths     []string  `json:"deleted_paths,omitempty"`
	StartPercentage  float64   `json:"start_percentage"`
	EndPercentage    float64   `json:"end_percentage"`
	Satisfied        bool      `json:"satisfied"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

// HistoryRepository persists status samples and reclaim passes.
type HistoryRepository interface {
	AddStatusSample(status domain.Status) error
	AddReclaimRecord(report domain.ReclaimReport) error
	RecentStatusSamples(limit int) ([]*StatusSample, error)
	RecentReclaimRecords(limit int) ([]*ReclaimRecord, error)
	// PurgeOlderThan deletes samples and records older than the cutoff and
	// returns how many rows were removed.
	PurgeOlderThan(cutoff time.Time) (int, error)
	Ping() error
	Close() error
}
