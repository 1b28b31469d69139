package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/vertextoedge/diskguard/internal/domain"
	"github.com/vertextoedge/diskguard/internal/port"
)

// AddStatusSample stores one status report
func (s *Store) AddStatusSample(status domain.Status) error {
	at := status.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO status_samples (path, used_percentage, known, recorded_at) VALUES (?, ?, ?, ?)`,
		status.Path, status.UsedPercentage, status.Known, at.UnixMilli())
	return err
}

// AddReclaimRecord stores the summary of one reclaim pass
func (s *Store) AddReclaimRecord(report domain.ReclaimReport) error {
	paths, err := encodePaths(report.Deleted)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO reclaim_events (
			directory, volume_root, threshold_percent, candidates,
			deleted_count, failed_count, deleted_paths,
			start_percentage, end_percentage, satisfied,
			started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.Exec(query,
		report.Directory, report.VolumeRoot, report.ThresholdPercent, report.Candidates,
		len(report.Deleted), len(report.Failed), paths,
		report.StartPercentage, report.EndPercentage, report.Satisfied(),
		report.StartedAt.UnixMilli(), report.FinishedAt.UnixMilli())
	return err
}

// RecentStatusSamples returns up to limit samples, newest first
func (s *Store) RecentStatusSamples(limit int) ([]*port.StatusSample, error) {
	rows, err := s.db.Query(`
		SELECT id, path, used_percentage, known, recorded_at
		FROM status_samples
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?
	`, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []*port.StatusSample
	for rows.Next() {
		sample := &port.StatusSample{}
		var recordedAt int64
		if err := rows.Scan(&sample.ID, &sample.Path, &sample.UsedPercentage, &sample.Known, &recordedAt); err != nil {
			return nil, err
		}
		sample.RecordedAt = time.UnixMilli(recordedAt)
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

// RecentReclaimRecords returns up to limit reclaim passes, newest first
func (s *Store) RecentReclaimRecords(limit int) ([]*port.ReclaimRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, directory, volume_root, threshold_percent, candidates,
			   deleted_count, failed_count, deleted_paths,
			   start_percentage, end_percentage, satisfied,
			   started_at, finished_at
		FROM reclaim_events
		ORDER BY finished_at DESC, id DESC
		LIMIT ?
	`, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*port.ReclaimRecord
	for rows.Next() {
		record, err := scanReclaimRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// PurgeOlderThan removes samples and reclaim records older than cutoff
func (s *Store) PurgeOlderThan(cutoff time.Time) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	ms := cutoff.UnixMilli()
	samples, err := tx.Exec(`DELETE FROM status_samples WHERE recorded_at < ?`, ms)
	if err != nil {
		return 0, err
	}
	records, err := tx.Exec(`DELETE FROM reclaim_events WHERE finished_at < ?`, ms)
	if err != nil {
		return 0, err
	}

	n1, err1 := samples.RowsAffected()
	n2, err2 := records.RowsAffected()
	if err := multierr.Combine(err1, err2); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(n1 + n2), nil
}

func scanReclaimRecord(rows *sql.Rows) (*port.ReclaimRecord, error) {
	r := &port.ReclaimRecord{}
	var paths string
	var startedAt, finishedAt int64
	err := rows.Scan(
		&r.ID, &r.Directory, &r.VolumeRoot, &r.ThresholdPercent, &r.Candidates,
		&r.DeletedCount, &r.FailedCount, &paths,
		&r.StartPercentage, &r.EndPercentage, &r.Satisfied,
		&startedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}
	if paths != "" {
		if err := json.Unmarshal([]byte(paths), &r.DeletedPaths); err != nil {
			return nil, fmt.Errorf("failed to decode deleted paths of record %d: %w", r.ID, err)
		}
	}
	r.StartedAt = time.UnixMilli(startedAt)
	r.FinishedAt = time.UnixMilli(finishedAt)
	return r, nil
}

// encodePaths stores deleted paths as a JSON array; an empty pass stores "".
func encodePaths(deleted []domain.Victim) (string, error) {
	if len(deleted) == 0 {
		return "", nil
	}
	paths := make([]string, 0, len(deleted))
	for _, v := range deleted {
		paths = append(paths, v.Path)
	}
	b, err := json.Marshal(paths)
	if err != nil {
		return "", fmt.Errorf("failed to encode deleted paths: %w", err)
	}
	return string(b), nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return 100
	}
	return limit
}
