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
var _ radar.DemandService = (*DemandService)(nil)

// DemandService implements radar.DemandService using SQLite. Solution,
// validation and tags are stored as JSON.
type DemandService struct {
	db *DB
}

// NewDemandService creates a new DemandService.
func NewDemandService(db *DB) *DemandService {
	return &DemandService{db: db}
}

const demandColumns = `id, extraction_id, solution, validation, source_url, source_title,
	starred, archived, notes, tags, created_at, updated_at`

// CreateDemands creates demands in a single transaction. Demands without
// an ID get a generated one; an ID that already exists is a conflict and
// nothing is written.
func (s *DemandService) CreateDemands(ctx context.Context, demands []*radar.Demand) error {
	if len(demands) == 0 {
		return nil
	}
	for _, d := range demands {
		if err := d.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, d := range demands {
		if d.ID == "" {
			d.ID = uuid.New().String()
		} else {
			var exists int
			err := tx.QueryRowContext(ctx, "SELECT 1 FROM demands WHERE id = ?", d.ID).Scan(&exists)
			if err == nil {
				return radar.Errorf(radar.ECONFLICT, "demand %s already saved", d.ID)
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return err
			}
		}
		d.CreatedAt = now
		d.UpdatedAt = now

		args, err := demandArgs(d)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO demands (`+demandColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindDemandByID retrieves a demand by ID.
func (s *DemandService) FindDemandByID(ctx context.Context, id string) (*radar.Demand, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+demandColumns+` FROM demands WHERE id = ?`, id)
	d, err := scanDemand(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, radar.Errorf(radar.ENOTFOUND, "demand not found")
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// FindDemands retrieves demands matching the filter, newest first.
func (s *DemandService) FindDemands(ctx context.Context, filter radar.DemandFilter) ([]*radar.Demand, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + demandColumns + " FROM demands WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.ExtractionID != nil {
		query.WriteString(" AND extraction_id = ?")
		args = append(args, *filter.ExtractionID)
	}
	if filter.Starred != nil {
		query.WriteString(" AND starred = ?")
		args = append(args, boolToInt(*filter.Starred))
	}
	if filter.Archived != nil {
		query.WriteString(" AND archived = ?")
		args = append(args, boolToInt(*filter.Archived))
	} else if filter.Query != "" {
		query.WriteString(" AND archived = 0")
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		query.WriteString(` AND (
			instr(lower(json_extract(solution, '$.title')), lower(?)) > 0
			OR instr(lower(json_extract(solution, '$.description')), lower(?)) > 0
			OR instr(lower(json_extract(validation, '$.painPoints')), lower(?)) > 0
		)`)
		args = append(args, q, q, q)
	}

	query.WriteString(" ORDER BY created_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*radar.Demand
	for rows.Next() {
		d, err := scanDemand(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateDemand updates an existing demand.
func (s *DemandService) UpdateDemand(ctx context.Context, id string, upd radar.DemandUpdate) (*radar.Demand, error) {
	d, err := s.FindDemandByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Solution != nil {
		d.Solution = *upd.Solution
	}
	if upd.Validation != nil {
		d.Validation = *upd.Validation
	}
	if upd.Starred != nil {
		d.Starred = *upd.Starred
	}
	if upd.Archived != nil {
		d.Archived = *upd.Archived
	}
	if upd.Notes != nil {
		d.Notes = *upd.Notes
	}
	if upd.Tags != nil {
		d.Tags = upd.Tags
	}
	d.UpdatedAt = time.Now().UTC()

	if err := d.Validate(); err != nil {
		return nil, err
	}

	solution, err := marshalJSON(d.Solution)
	if err != nil {
		return nil, err
	}
	validation, err := marshalJSON(d.Validation)
	if err != nil {
		return nil, err
	}
	tags, err := marshalJSON(nonNil(d.Tags))
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE demands
		SET solution = ?, validation = ?, starred = ?, archived = ?, notes = ?, tags = ?, updated_at = ?
		WHERE id = ?
	`, solution, validation, boolToInt(d.Starred), boolToInt(d.Archived), d.Notes, tags, formatTime(d.UpdatedAt), id)
	if err != nil {
		return nil, err
	}

	return d, nil
}

// DeleteDemand permanently removes a demand.
func (s *DemandService) DeleteDemand(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM demands WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return radar.Errorf(radar.ENOTFOUND, "demand not found")
	}
	return nil
}

// DeleteDemands removes all demands with the given IDs. Unknown IDs are
// ignored.
func (s *DemandService) DeleteDemands(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM demands WHERE id IN ("+placeholders(len(ids))+")", args...)
	return err
}

func demandArgs(d *radar.Demand) ([]any, error) {
	solution, err := marshalJSON(d.Solution)
	if err != nil {
		return nil, err
	}
	validation, err := marshalJSON(d.Validation)
	if err != nil {
		return nil, err
	}
	tags, err := marshalJSON(nonNil(d.Tags))
	if err != nil {
		return nil, err
	}
	return []any{
		d.ID, d.ExtractionID, solution, validation, d.SourceURL, d.SourceTitle,
		boolToInt(d.Starred), boolToInt(d.Archived), d.Notes, tags,
		formatTime(d.CreatedAt), formatTime(d.UpdatedAt),
	}, nil
}

func scanDemand(row scanner) (*radar.Demand, error) {
	var d radar.Demand
	var solution, validation, tags string
	var starred, archived int
	var createdAt, updatedAt string

	if err := row.Scan(&d.ID, &d.ExtractionID, &solution, &validation, &d.SourceURL, &d.SourceTitle,
		&starred, &archived, &d.Notes, &tags, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(solution), &d.Solution); err != nil {
		return nil, fmt.Errorf("failed to parse solution: %w", err)
	}
	if err := json.Unmarshal([]byte(validation), &d.Validation); err != nil {
		return nil, fmt.Errorf("failed to parse validation: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &d.Tags); err != nil {
		return nil, fmt.Errorf("failed to parse tags: %w", err)
	}
	if len(d.Tags) == 0 {
		d.Tags = nil
	}
	d.Starred = starred != 0
	d.Archived = archived != 0

	var err error
	if d.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if d.UpdatedAt, err = parseRFC3339(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &d, nil
}
