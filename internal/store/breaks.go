package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/worklog/internal/domain"
)

const breakColumns = `id, user_id, type, started_at, ended_at, duration_minutes, notes, created_at`

func (s *Store) CreateBreak(ctx context.Context, b domain.Break) (*domain.Break, error) {
	b.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO breaks (`+breakColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, string(b.Type), formatTime(b.StartedAt), formatTimePtr(b.EndedAt),
		b.DurationMinutes, b.Notes, formatTime(s.now()),
	)
	if err != nil {
		return nil, fmt.Errorf("start break: %w", err)
	}
	return s.GetBreak(ctx, b.ID)
}

func scanBreak(sc scanner) (*domain.Break, error) {
	b := &domain.Break{}
	var typ, startedAt, createdAt string
	var endedAt sql.NullString
	var duration sql.NullInt64
	if err := sc.Scan(&b.ID, &b.UserID, &typ, &startedAt, &endedAt, &duration, &b.Notes, &createdAt); err != nil {
		return nil, err
	}
	b.Type = domain.BreakType(typ)
	b.StartedAt = parseTime(startedAt)
	b.EndedAt = parseNullTime(endedAt)
	b.DurationMinutes = nullInt(duration)
	b.CreatedAt = parseTime(createdAt)
	return b, nil
}

func (s *Store) GetBreak(ctx context.Context, id string) (*domain.Break, error) {
	b, err := scanBreak(s.db.QueryRowContext(ctx,
		`SELECT `+breakColumns+` FROM breaks WHERE id = ? AND deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get break %s: %w", id, err)
	}
	return b, nil
}

func (s *Store) UpdateBreak(ctx context.Context, b domain.Break) (*domain.Break, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE breaks SET type = ?, ended_at = ?, duration_minutes = ?, notes = ? WHERE id = ? AND deleted_at IS NULL`,
		string(b.Type), formatTimePtr(b.EndedAt), b.DurationMinutes, b.Notes, b.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update break %s: %w", b.ID, err)
	}
	return s.GetBreak(ctx, b.ID)
}

func (s *Store) FindRunningBreak(ctx context.Context, userID string) (*domain.Break, error) {
	b, err := scanBreak(s.db.QueryRowContext(ctx,
		`SELECT `+breakColumns+` FROM breaks
		 WHERE user_id = ? AND ended_at IS NULL AND deleted_at IS NULL
		 ORDER BY started_at DESC LIMIT 1`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get running break: %w", err)
	}
	return b, nil
}

// ListBreaksBetween returns breaks that started within [from, to].
func (s *Store) ListBreaksBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.Break, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+breakColumns+` FROM breaks
		 WHERE user_id = ? AND deleted_at IS NULL AND started_at >= ? AND started_at <= ?
		 ORDER BY started_at`,
		userID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("list breaks: %w", err)
	}
	defer rows.Close()

	var breaks []domain.Break
	for rows.Next() {
		b, err := scanBreak(rows)
		if err != nil {
			return nil, err
		}
		breaks = append(breaks, *b)
	}
	return breaks, rows.Err()
}
