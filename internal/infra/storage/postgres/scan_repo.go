package postgres

import (
	"context"
	"fmt"
	"time"
)

// Scan is one recorded aggregation run.
type Scan struct {
	ID             int64     `db:"id"              json:"id"`
	Endpoint       string    `db:"endpoint"        json:"endpoint"`
	Token          string    `db:"token"           json:"token"`
	RowCount       int       `db:"row_count"       json:"rowCount"`
	RecordsScanned int       `db:"records_scanned" json:"recordsScanned"`
	PagesFetched   int       `db:"pages_fetched"   json:"pagesFetched"`
	DurationMs     int64     `db:"duration_ms"     json:"durationMs"`
	ErrorText      string    `db:"error_text"      json:"errorText,omitempty"`
	CreatedAt      time.Time `db:"created_at"      json:"createdAt"`
}

// ScanRepo persists aggregation run history.
type ScanRepo struct {
	db *DB
}

// NewScanRepo creates a new PostgreSQL scan repository.
func NewScanRepo(db *DB) *ScanRepo {
	return &ScanRepo{db: db}
}

// Record saves one aggregation run.
func (r *ScanRepo) Record(ctx context.Context, scan *Scan) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO scans (endpoint, token, row_count, records_scanned, pages_fetched, duration_ms, error_text)
		VALUES (:endpoint, :token, :row_count, :records_scanned, :pages_fetched, :duration_ms, :error_text)`,
		scan,
	)
	if err != nil {
		return fmt.Errorf("failed to record scan: %w", err)
	}
	return nil
}

// RecentScans returns the most recent aggregation runs, newest first.
func (r *ScanRepo) RecentScans(ctx context.Context, limit int) ([]Scan, error) {
	if limit <= 0 {
		limit = 20
	}

	var scans []Scan
	err := r.db.SelectContext(ctx, &scans, `
		SELECT id, endpoint, token, row_count, records_scanned, pages_fetched, duration_ms, error_text, created_at
		FROM scans
		ORDER BY id DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	return scans, nil
}
