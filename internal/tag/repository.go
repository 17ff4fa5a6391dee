package tag

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for tag record persistence.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// GetByID retrieves a record by identifier.
	// Returns ErrNotFound if no record exists.
	GetByID(ctx context.Context, id string) (*Record, error)

	// List retrieves all records ordered by identifier.
	List(ctx context.Context) ([]Record, error)

	// Create inserts a new record.
	// Returns ErrExists if the identifier is already persisted.
	Create(ctx context.Context, rec *Record) error

	// Delete removes a record. Deleting an absent identifier is a no-op.
	Delete(ctx context.Context, id string) error

	// LastUpdatedTime returns the most recent LastUpdated across all
	// records, or the zero time when the store is empty.
	LastUpdatedTime(ctx context.Context) (time.Time, error)

	// ReplaceAll atomically replaces the entire store with the given
	// records. Used by the bulk importer.
	ReplaceAll(ctx context.Context, recs []Record) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection with the nfc_tags
// table migrated.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const recordColumns = "id, name, description, type, attr, last_updated"

// GetByID retrieves a record by identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Record, error) {
	query := "SELECT " + recordColumns + " FROM nfc_tags WHERE id = ?"

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying tag by id: %w", err)
	}
	return rec, nil
}

// List retrieves all records ordered by identifier.
func (r *SQLiteRepository) List(ctx context.Context) ([]Record, error) {
	query := "SELECT " + recordColumns + " FROM nfc_tags ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only iteration

	var recs []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning tag row: %w", err)
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

// Create inserts a new record.
func (r *SQLiteRepository) Create(ctx context.Context, rec *Record) error {
	attrJSON, err := marshalAttr(rec.Attr)
	if err != nil {
		return err
	}

	if rec.LastUpdated.IsZero() {
		rec.LastUpdated = time.Now()
	}

	query := "INSERT INTO nfc_tags (" + recordColumns + ") VALUES (?, ?, ?, ?, ?, ?)"
	_, err = r.db.ExecContext(ctx, query,
		rec.ID, rec.Name, rec.Description, rec.Type, attrJSON, rec.LastUpdated.Unix(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrExists
		}
		return fmt.Errorf("inserting tag: %w", err)
	}
	return nil
}

// Delete removes a record. Absent identifiers delete zero rows without
// error.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM nfc_tags WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting tag: %w", err)
	}
	return nil
}

// LastUpdatedTime returns the most recent write time across all records.
func (r *SQLiteRepository) LastUpdatedTime(ctx context.Context) (time.Time, error) {
	var last sql.NullInt64
	err := r.db.QueryRowContext(ctx, "SELECT MAX(last_updated) FROM nfc_tags").Scan(&last)
	if err != nil {
		return time.Time{}, fmt.Errorf("querying last update time: %w", err)
	}
	if !last.Valid {
		return time.Time{}, nil
	}
	return time.Unix(last.Int64, 0), nil
}

// ReplaceAll atomically replaces the entire store with the given records.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, recs []Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is no-op

	if _, err := tx.ExecContext(ctx, "DELETE FROM nfc_tags"); err != nil {
		return fmt.Errorf("clearing tags: %w", err)
	}

	query := "INSERT INTO nfc_tags (" + recordColumns + ") VALUES (?, ?, ?, ?, ?, ?)"
	now := time.Now()
	for i := range recs {
		rec := &recs[i]

		attrJSON, err := marshalAttr(rec.Attr)
		if err != nil {
			return err
		}
		if rec.LastUpdated.IsZero() {
			rec.LastUpdated = now
		}

		if _, err := tx.ExecContext(ctx, query,
			rec.ID, rec.Name, rec.Description, rec.Type, attrJSON, rec.LastUpdated.Unix(),
		); err != nil {
			return fmt.Errorf("inserting tag %s: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord scans a row into a Record, decoding the attr JSON blob.
func scanRecord(s scanner) (*Record, error) {
	var (
		rec         Record
		attrJSON    string
		lastUpdated int64
	)

	if err := s.Scan(&rec.ID, &rec.Name, &rec.Description, &rec.Type, &attrJSON, &lastUpdated); err != nil {
		return nil, err
	}

	if attrJSON != "" {
		if err := json.Unmarshal([]byte(attrJSON), &rec.Attr); err != nil {
			return nil, fmt.Errorf("decoding tag attributes: %w", err)
		}
	}
	if rec.Attr == nil {
		rec.Attr = map[string]any{}
	}

	rec.LastUpdated = time.Unix(lastUpdated, 0)
	return &rec, nil
}

// marshalAttr serialises an attribute map to its persisted JSON form.
func marshalAttr(attr map[string]any) (string, error) {
	if attr == nil {
		return "{}", nil
	}
	data, err := json.Marshal(attr)
	if err != nil {
		return "", fmt.Errorf("encoding tag attributes: %w", err)
	}
	return string(data), nil
}

// isUniqueConstraintError detects SQLite primary-key violations without
// depending on driver-specific error types.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
