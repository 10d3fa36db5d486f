package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sadopc/worklog/internal/domain"
)

const sessionColumns = `id, user_id, workspace_id, status, clocked_in_at, clocked_out_at, date,
	paused_at, paused_minutes, created_at`

func (s *Store) CreateWorkSession(ctx context.Context, ws domain.WorkSession) (*domain.WorkSession, error) {
	ws.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO work_sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ws.ID, ws.UserID, ws.WorkspaceID, string(ws.Status), formatTime(ws.ClockedInAt),
		formatTimePtr(ws.ClockedOutAt), ws.Date, formatTimePtr(ws.PausedAt), ws.PausedMinutes, formatTime(s.now()),
	)
	if err != nil {
		return nil, fmt.Errorf("clock in: %w", err)
	}
	return s.GetWorkSession(ctx, ws.ID)
}

func scanSession(sc scanner) (*domain.WorkSession, error) {
	ws := &domain.WorkSession{}
	var status, clockedInAt, createdAt string
	var clockedOutAt, pausedAt sql.NullString
	err := sc.Scan(&ws.ID, &ws.UserID, &ws.WorkspaceID, &status, &clockedInAt, &clockedOutAt, &ws.Date,
		&pausedAt, &ws.PausedMinutes, &createdAt)
	if err != nil {
		return nil, err
	}
	ws.Status = domain.SessionStatus(status)
	ws.ClockedInAt = parseTime(clockedInAt)
	ws.ClockedOutAt = parseNullTime(clockedOutAt)
	ws.PausedAt = parseNullTime(pausedAt)
	ws.CreatedAt = parseTime(createdAt)
	return ws, nil
}

func (s *Store) GetWorkSession(ctx context.Context, id string) (*domain.WorkSession, error) {
	ws, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM work_sessions WHERE id = ? AND deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get work session %s: %w", id, err)
	}
	return ws, nil
}

func (s *Store) UpdateWorkSession(ctx context.Context, ws domain.WorkSession) (*domain.WorkSession, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE work_sessions SET status = ?, clocked_out_at = ?, paused_at = ?, paused_minutes = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		string(ws.Status), formatTimePtr(ws.ClockedOutAt), formatTimePtr(ws.PausedAt), ws.PausedMinutes, ws.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update work session %s: %w", ws.ID, err)
	}
	return s.GetWorkSession(ctx, ws.ID)
}

func (s *Store) listSessions(ctx context.Context, where string, args ...any) ([]domain.WorkSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM work_sessions WHERE deleted_at IS NULL AND `+where+` ORDER BY clocked_in_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("list work sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.WorkSession
	for rows.Next() {
		ws, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *ws)
	}
	return sessions, rows.Err()
}

func (s *Store) ListOpenWorkSessions(ctx context.Context, userID string) ([]domain.WorkSession, error) {
	return s.listSessions(ctx, `user_id = ? AND status IN (?, ?)`,
		userID, string(domain.SessionActive), string(domain.SessionPaused))
}

func (s *Store) ListWorkSessionsByDate(ctx context.Context, userID, date string) ([]domain.WorkSession, error) {
	return s.listSessions(ctx, `user_id = ? AND date = ?`, userID, date)
}

// ListWorkSessionsBetween returns sessions whose date falls in [from, to],
// both YYYY-MM-DD.
func (s *Store) ListWorkSessionsBetween(ctx context.Context, userID, from, to string) ([]domain.WorkSession, error) {
	return s.listSessions(ctx, `user_id = ? AND date >= ? AND date <= ?`, userID, from, to)
}
