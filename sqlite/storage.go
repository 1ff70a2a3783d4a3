package sqlite

import (
	"context"

	"github.com/chen893/radar"
)

// Compile-time interface verification.
var _ radar.StorageService = (*StorageService)(nil)

// StorageService implements radar.StorageService using SQLite.
type StorageService struct {
	db *DB
}

// NewStorageService creates a new StorageService.
func NewStorageService(db *DB) *StorageService {
	return &StorageService{db: db}
}

// UsedBytes returns the UTF-8 size of the stored text of every extraction
// and demand. Page and index overhead of the database file is not counted.
func (s *StorageService) UsedBytes(ctx context.Context) (int64, error) {
	var used int64
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COALESCE(SUM(
				length(CAST(url AS BLOB)) + length(CAST(title AS BLOB)) +
				length(CAST(original_text AS BLOB)) + length(CAST(summary AS BLOB))
			), 0) FROM extractions)
			+
			(SELECT COALESCE(SUM(
				length(CAST(solution AS BLOB)) + length(CAST(validation AS BLOB)) +
				length(CAST(notes AS BLOB)) + length(CAST(tags AS BLOB))
			), 0) FROM demands)
	`).Scan(&used)
	return used, err
}

// Clear removes every extraction and demand. Configuration is kept.
func (s *StorageService) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM demands"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM extractions"); err != nil {
		return err
	}
	return tx.Commit()
}
