package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrCaptureNotFound is returned by Captures.Get for an unknown id.
var ErrCaptureNotFound = errors.New("capture not found")

// Capture is one delivery accepted by the local sink.
type Capture struct {
	ID             int64           `json:"id"`
	CaptureID      string          `json:"capture_id"`
	SubscriptionID int64           `json:"subscription_id"`
	EventType      string          `json:"event_type"`
	Payload        json.RawMessage `json:"payload"`
	Signature      string          `json:"signature"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Captures persists sink deliveries in captured_deliveries.
type Captures struct {
	db  *sql.DB
	now func() time.Time
}

// NewCaptures returns a repository over a bootstrapped database.
func NewCaptures(db *sql.DB) *Captures {
	return &Captures{db: db, now: time.Now}
}

// Record stores c, assigning ID, CaptureID and CreatedAt.
func (s *Captures) Record(ctx context.Context, c Capture) (Capture, error) {
	c.CaptureID = uuid.NewString()
	c.CreatedAt = s.now().UTC()

	res, err := s.db.ExecContext(ctx, `
INSERT INTO captured_deliveries(capture_id, subscription_id, event_type, payload, signature, created_at)
VALUES(?, ?, ?, ?, ?, ?);
`, c.CaptureID, c.SubscriptionID, c.EventType, string(c.Payload), c.Signature, c.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Capture{}, fmt.Errorf("insert capture: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Capture{}, fmt.Errorf("capture id: %w", err)
	}
	c.ID = id
	return c, nil
}

// List returns the newest captures first. A non-positive limit returns all.
func (s *Captures) List(ctx context.Context, limit int) ([]Capture, error) {
	query := `SELECT id, capture_id, subscription_id, event_type, payload, signature, created_at
FROM captured_deliveries ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	defer rows.Close()

	var out []Capture
	for rows.Next() {
		c, err := scanCapture(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	return out, nil
}

// Get returns one capture.
func (s *Captures) Get(ctx context.Context, id int64) (Capture, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, capture_id, subscription_id, event_type, payload, signature, created_at
FROM captured_deliveries WHERE id = ?;`, id)

	c, err := scanCapture(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Capture{}, ErrCaptureNotFound
	}
	return c, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCapture(row scanner) (Capture, error) {
	var (
		c         Capture
		payload   string
		signature sql.NullString
		createdAt string
	)
	if err := row.Scan(&c.ID, &c.CaptureID, &c.SubscriptionID, &c.EventType, &payload, &signature, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Capture{}, err
		}
		return Capture{}, fmt.Errorf("scan capture: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Capture{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	c.Payload = json.RawMessage(payload)
	c.Signature = signature.String
	c.CreatedAt = ts
	return c, nil
}
