package repository

import (
	"database/sql"
	"fmt"
	"time"
)

// IngestRepo tracks ingested file hashes so re-uploading the same export
// is a no-op.
type IngestRepo struct {
	db *sql.DB
}

func NewIngestRepo(db *sql.DB) *IngestRepo {
	return &IngestRepo{db: db}
}

// AlreadyIngested reports whether a file with this content hash was
// ingested before.
func (r *IngestRepo) AlreadyIngested(hash string) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM ingested_files WHERE hash = ?", hash).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query hash: %w", err)
	}
	return count > 0, nil
}

// MarkIngested records a successfully ingested file.
func (r *IngestRepo) MarkIngested(hash, filename, kind string, recordCount int) error {
	_, err := r.db.Exec(
		"INSERT INTO ingested_files (hash, filename, kind, record_count, ingested_at) VALUES (?,?,?,?,?)",
		hash, filename, kind, recordCount, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("mark ingested: %w", err)
	}
	return nil
}
