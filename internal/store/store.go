// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/wavescope/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a capture does not exist.
var ErrNotFound = errors.New("capture not found")

// Store wraps SQLite access for captures and saved views.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS captures (
			id INTEGER PRIMARY KEY,
			device_id TEXT NOT NULL,
			channel TEXT NOT NULL,
			fault_code TEXT NOT NULL,
			captured_at TEXT NOT NULL,
			sample_interval_ms REAL NOT NULL,
			samples TEXT NOT NULL,
			labels TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS view_states (
			capture_id INTEGER PRIMARY KEY REFERENCES captures(id) ON DELETE CASCADE,
			x_start REAL NOT NULL,
			x_end REAL NOT NULL,
			y_start REAL NOT NULL,
			y_end REAL NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_captures_captured_at ON captures(captured_at);`,
		`CREATE INDEX IF NOT EXISTS idx_captures_device ON captures(device_id, channel);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertCapture stores a capture and returns its id.
func (s *Store) InsertCapture(ctx context.Context, c model.Capture) (int64, error) {
	samples, err := json.Marshal(c.Samples)
	if err != nil {
		return 0, fmt.Errorf("encode samples: %w", err)
	}
	var labels sql.NullString
	if len(c.Labels) > 0 {
		raw, err := json.Marshal(c.Labels)
		if err != nil {
			return 0, fmt.Errorf("encode labels: %w", err)
		}
		labels = sql.NullString{String: string(raw), Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO captures (device_id, channel, fault_code, captured_at, sample_interval_ms, samples, labels)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.DeviceID,
		string(c.Channel),
		string(c.Fault),
		c.CapturedAt.UTC().Format(time.RFC3339Nano),
		c.SampleIntervalMs,
		string(samples),
		labels,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const captureColumns = `id, device_id, channel, fault_code, captured_at, sample_interval_ms, samples, labels`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCapture(row rowScanner) (model.Capture, error) {
	var (
		c          model.Capture
		channel    string
		fault      string
		capturedAt string
		samples    string
		labels     sql.NullString
	)
	if err := row.Scan(&c.ID, &c.DeviceID, &channel, &fault, &capturedAt, &c.SampleIntervalMs, &samples, &labels); err != nil {
		return model.Capture{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, capturedAt)
	if err != nil {
		return model.Capture{}, err
	}
	c.CapturedAt = parsed
	c.Channel = model.Channel(channel)
	c.Fault = model.FaultCode(fault)
	if err := json.Unmarshal([]byte(samples), &c.Samples); err != nil {
		return model.Capture{}, fmt.Errorf("decode samples of capture %d: %w", c.ID, err)
	}
	if labels.Valid {
		if err := json.Unmarshal([]byte(labels.String), &c.Labels); err != nil {
			return model.Capture{}, fmt.Errorf("decode labels of capture %d: %w", c.ID, err)
		}
	}
	return c, nil
}

// GetCapture loads one capture.
func (s *Store) GetCapture(ctx context.Context, id int64) (model.Capture, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+captureColumns+` FROM captures WHERE id = ?`, id)
	c, err := scanCapture(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Capture{}, fmt.Errorf("capture %d: %w", id, ErrNotFound)
	}
	return c, err
}

// LatestCapture returns the most recent capture matching the filter.
func (s *Store) LatestCapture(ctx context.Context, filter model.CaptureFilter) (model.Capture, error) {
	filter.Last = 1
	captures, err := s.ListCaptures(ctx, filter)
	if err != nil {
		return model.Capture{}, err
	}
	if len(captures) == 0 {
		return model.Capture{}, ErrNotFound
	}
	return captures[0], nil
}

// ListCaptures returns captures matching filter, oldest first. Last keeps
// only the newest N.
func (s *Store) ListCaptures(ctx context.Context, filter model.CaptureFilter) ([]model.Capture, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.DeviceID != "" {
		clauses = append(clauses, "device_id = ?")
		args = append(args, filter.DeviceID)
	}
	if filter.Channel != "" {
		clauses = append(clauses, "channel = ?")
		args = append(args, string(filter.Channel))
	}
	if filter.Fault != "" {
		clauses = append(clauses, "fault_code = ?")
		args = append(args, string(filter.Fault))
	}
	if filter.Since != nil {
		clauses = append(clauses, "captured_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.RFC3339Nano))
	}
	limit := ""
	if filter.Last > 0 {
		limit = "LIMIT ?"
		args = append(args, filter.Last)
	}
	query := fmt.Sprintf(`SELECT * FROM (
		SELECT %s FROM captures
		WHERE %s
		ORDER BY captured_at DESC, id DESC
		%s
	) ORDER BY captured_at ASC, id ASC`, captureColumns, strings.Join(clauses, " AND "), limit)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var captures []model.Capture
	for rows.Next() {
		c, err := scanCapture(rows)
		if err != nil {
			return nil, err
		}
		captures = append(captures, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return captures, nil
}

// SaveViewState stores the windows for a capture, replacing any earlier one.
func (s *Store) SaveViewState(ctx context.Context, v model.ViewState) error {
	if v.UpdatedAt.IsZero() {
		v.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO view_states (capture_id, x_start, x_end, y_start, y_end, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(capture_id) DO UPDATE SET
			x_start = excluded.x_start,
			x_end = excluded.x_end,
			y_start = excluded.y_start,
			y_end = excluded.y_end,
			updated_at = excluded.updated_at`,
		v.CaptureID, v.XStart, v.XEnd, v.YStart, v.YEnd,
		v.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// GetViewState loads the saved windows for a capture.
func (s *Store) GetViewState(ctx context.Context, captureID int64) (model.ViewState, bool, error) {
	var (
		v         model.ViewState
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT capture_id, x_start, x_end, y_start, y_end, updated_at FROM view_states WHERE capture_id = ?`,
		captureID,
	).Scan(&v.CaptureID, &v.XStart, &v.XEnd, &v.YStart, &v.YEnd, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ViewState{}, false, nil
	}
	if err != nil {
		return model.ViewState{}, false, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return model.ViewState{}, false, err
	}
	v.UpdatedAt = parsed
	return v, true, nil
}
