package sensor

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository defines the interface for reading persistence.
type Repository interface {
	Insert(ctx context.Context, reading *Reading) error
	ListAll(ctx context.Context) ([]Reading, error)
	ListBetween(ctx context.Context, start, end time.Time) ([]Reading, error)
	DeleteAll(ctx context.Context) error
}

// SQLiteRepository implements Repository on the dados_sensores table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a SQLite-backed reading repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Insert persists a reading and fills in the generated id.
// A zero Timestamp is replaced with the current time before insertion, so
// every stored reading carries one regardless of what the caller supplied.
func (r *SQLiteRepository) Insert(ctx context.Context, reading *Reading) error {
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now().UTC()
	}
	reading.Timestamp = reading.Timestamp.UTC().Truncate(time.Second)

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO dados_sensores (sensor_id, temperatura, timestamp) VALUES (?, ?, ?)",
		reading.SensorID, reading.Temperatura, reading.Timestamp.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting reading: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading generated reading id: %w", err)
	}
	reading.ID = id

	return nil
}

// ListAll returns every stored reading in insertion order (ascending id).
// No pagination; the caller gets the whole table.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]Reading, error) {
	return r.list(ctx,
		"SELECT id, sensor_id, temperatura, timestamp FROM dados_sensores ORDER BY id ASC")
}

// ListBetween returns readings whose timestamp falls within the inclusive
// range [start, end], in insertion order.
func (r *SQLiteRepository) ListBetween(ctx context.Context, start, end time.Time) ([]Reading, error) {
	return r.list(ctx,
		`SELECT id, sensor_id, temperatura, timestamp FROM dados_sensores
		 WHERE timestamp BETWEEN ? AND ? ORDER BY id ASC`,
		start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339),
	)
}

// DeleteAll removes every stored reading. Destructive and immediate; there
// is no soft delete or audit trail.
func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM dados_sensores"); err != nil {
		return fmt.Errorf("clearing readings: %w", err)
	}
	return nil
}

// list executes a query and scans the resulting readings.
func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]Reading, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close()

	readings := []Reading{}
	for rows.Next() {
		var reading Reading
		var timestamp string
		if err := rows.Scan(&reading.ID, &reading.SensorID, &reading.Temperatura, &timestamp); err != nil {
			return nil, fmt.Errorf("scanning reading: %w", err)
		}
		reading.Timestamp, _ = time.Parse(time.RFC3339, timestamp) //nolint:errcheck // format is controlled
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating readings: %w", err)
	}

	return readings, nil
}
