package history

import (
	"context"
	"fmt"
	"time"
)

// DefaultListLimit bounds List when no limit is given.
const DefaultListLimit = 50

// Entry is one processed command.
type Entry struct {
	ID        string
	SessionID string
	Keyword   string
	Input     string
	TargetPID int // 0 for broadcast
	Success   bool
	Error     string
	Duration  time.Duration
	CreatedAt time.Time
}

// Record inserts e.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.conn.ExecContext(ctx, `
INSERT INTO commands (id, session_id, keyword, input, target_pid, success, error, duration_us, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Keyword, e.Input, e.TargetPID, e.Success, e.Error,
		e.Duration.Microseconds(), e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record command %s: %w", e.ID, err)
	}
	return nil
}

// List returns up to limit entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.conn.QueryContext(ctx, `
SELECT id, session_id, keyword, input, target_pid, success, error, duration_us, created_at
FROM commands
ORDER BY created_at DESC, rowid DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			durationUS int64
			createdMS  int64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Keyword, &e.Input, &e.TargetPID,
			&e.Success, &e.Error, &durationUS, &createdMS); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		e.Duration = time.Duration(durationUS) * time.Microsecond
		e.CreatedAt = time.UnixMilli(createdMS)
		out = append(out, e)
	}
	return out, rows.Err()
}
