package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/worklog/internal/domain"
)

// AddPoints appends a ledger row. The ledger is append-only.
func (s *Store) AddPoints(ctx context.Context, p domain.PointsLedgerEntry) (*domain.PointsLedgerEntry, error) {
	p.ID = uuid.NewString()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	p.CreatedAt = p.CreatedAt.UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO points_ledger (id, user_id, points, reason, task_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Points, p.Reason, p.TaskID, formatTime(p.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert points: %w", err)
	}
	return &p, nil
}

func (s *Store) ListPointsBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.PointsLedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, points, reason, task_id, created_at FROM points_ledger
		 WHERE user_id = ? AND created_at >= ? AND created_at <= ?
		 ORDER BY created_at`,
		userID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("list points: %w", err)
	}
	defer rows.Close()

	var out []domain.PointsLedgerEntry
	for rows.Next() {
		var p domain.PointsLedgerEntry
		var taskID sql.NullString
		var createdAt string
		if err := rows.Scan(&p.ID, &p.UserID, &p.Points, &p.Reason, &taskID, &createdAt); err != nil {
			return nil, err
		}
		p.TaskID = nullString(taskID)
		p.CreatedAt = parseTime(createdAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// HasPointsForTask reports whether the ledger already credits taskID.
func (s *Store) HasPointsForTask(ctx context.Context, taskID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM points_ledger WHERE task_id = ?`, taskID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count points: %w", err)
	}
	return n > 0, nil
}
