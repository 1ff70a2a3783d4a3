package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chen893/radar"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ radar.ExtractionService = (*ExtractionService)(nil)

// ExtractionService implements radar.ExtractionService using SQLite.
type ExtractionService struct {
	db *DB
}

// NewExtractionService creates a new ExtractionService.
func NewExtractionService(db *DB) *ExtractionService {
	return &ExtractionService{db: db}
}

const extractionColumns = `id, url, title, platform, original_text, content_hash, summary,
	analysis_status, demand_count, saved_demand_count, truncated, truncated_fields,
	original_length, captured_at, created_at, updated_at`

// CreateExtraction creates a new extraction with a generated ID.
func (s *ExtractionService) CreateExtraction(ctx context.Context, ex *radar.Extraction) error {
	if err := ex.Validate(); err != nil {
		return err
	}

	ex.ID = uuid.New().String()
	now := time.Now().UTC()
	ex.CreatedAt = now
	ex.UpdatedAt = now
	if ex.CapturedAt.IsZero() {
		ex.CapturedAt = now
	}
	ex.ContentHash = hashContent(ex.OriginalText)

	fields, err := marshalJSON(nonNil(ex.TruncatedFields))
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO extractions (`+extractionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ex.ID, ex.URL, ex.Title, string(ex.Platform), ex.OriginalText, ex.ContentHash, ex.Summary,
		string(ex.AnalysisStatus), ex.DemandCount, ex.SavedDemandCount, boolToInt(ex.Truncated), fields,
		ex.OriginalLength, formatTime(ex.CapturedAt), formatTime(ex.CreatedAt), formatTime(ex.UpdatedAt))

	return err
}

// FindExtractionByID retrieves an extraction by ID.
func (s *ExtractionService) FindExtractionByID(ctx context.Context, id string) (*radar.Extraction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+extractionColumns+` FROM extractions WHERE id = ?`, id)
	ex, err := scanExtraction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, radar.Errorf(radar.ENOTFOUND, "extraction not found")
	}
	if err != nil {
		return nil, err
	}
	return ex, nil
}

// FindExtractions retrieves extractions matching the filter, newest first
// unless filter.Oldest is set.
func (s *ExtractionService) FindExtractions(ctx context.Context, filter radar.ExtractionFilter) ([]*radar.Extraction, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + extractionColumns + " FROM extractions WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.URL != nil {
		query.WriteString(" AND url = ?")
		args = append(args, *filter.URL)
	}
	if filter.AnalysisStatus != nil {
		query.WriteString(" AND analysis_status = ?")
		args = append(args, string(*filter.AnalysisStatus))
	}

	if filter.Oldest {
		query.WriteString(" ORDER BY created_at ASC, rowid ASC")
	} else {
		query.WriteString(" ORDER BY created_at DESC, rowid DESC")
	}
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*radar.Extraction
	for rows.Next() {
		ex, err := scanExtraction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

// UpdateExtraction updates an existing extraction.
func (s *ExtractionService) UpdateExtraction(ctx context.Context, id string, upd radar.ExtractionUpdate) (*radar.Extraction, error) {
	ex, err := s.FindExtractionByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Summary != nil {
		ex.Summary = *upd.Summary
	}
	if upd.AnalysisStatus != nil {
		ex.AnalysisStatus = *upd.AnalysisStatus
	}
	if upd.DemandCount != nil {
		ex.DemandCount = *upd.DemandCount
	}
	if upd.SavedDemandCount != nil {
		ex.SavedDemandCount = *upd.SavedDemandCount
	}
	ex.UpdatedAt = time.Now().UTC()

	if err := ex.Validate(); err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE extractions
		SET summary = ?, analysis_status = ?, demand_count = ?, saved_demand_count = ?, updated_at = ?
		WHERE id = ?
	`, ex.Summary, string(ex.AnalysisStatus), ex.DemandCount, ex.SavedDemandCount, formatTime(ex.UpdatedAt), id)
	if err != nil {
		return nil, err
	}

	return ex, nil
}

// DeleteExtraction permanently removes an extraction and its demands.
func (s *ExtractionService) DeleteExtraction(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM extractions WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return radar.Errorf(radar.ENOTFOUND, "extraction not found")
	}
	return nil
}

// DeleteExtractions removes all extractions with the given IDs. Unknown
// IDs are ignored.
func (s *ExtractionService) DeleteExtractions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM extractions WHERE id IN ("+placeholders(len(ids))+")", args...)
	return err
}

func scanExtraction(row scanner) (*radar.Extraction, error) {
	var ex radar.Extraction
	var platform, status, fields string
	var truncated int
	var capturedAt, createdAt, updatedAt string

	if err := row.Scan(&ex.ID, &ex.URL, &ex.Title, &platform, &ex.OriginalText, &ex.ContentHash, &ex.Summary,
		&status, &ex.DemandCount, &ex.SavedDemandCount, &truncated, &fields,
		&ex.OriginalLength, &capturedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	ex.Platform = radar.Platform(platform)
	ex.AnalysisStatus = radar.AnalysisStatus(status)
	ex.Truncated = truncated != 0
	if err := json.Unmarshal([]byte(fields), &ex.TruncatedFields); err != nil {
		return nil, fmt.Errorf("failed to parse truncated_fields: %w", err)
	}
	if len(ex.TruncatedFields) == 0 {
		ex.TruncatedFields = nil
	}

	var err error
	if ex.CapturedAt, err = parseRFC3339(capturedAt, "captured_at"); err != nil {
		return nil, err
	}
	if ex.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if ex.UpdatedAt, err = parseRFC3339(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &ex, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
