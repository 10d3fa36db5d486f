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

const entryColumns = `id, user_id, task_id, started_at, ended_at, notes, created_at`

func (s *Store) CreateTimeEntry(ctx context.Context, e domain.TimeEntry) (*domain.TimeEntry, error) {
	e.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO time_entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.TaskID, formatTime(e.StartedAt), formatTimePtr(e.EndedAt), e.Notes, formatTime(s.now()),
	)
	if err != nil {
		return nil, fmt.Errorf("start entry: %w", err)
	}
	return s.GetTimeEntry(ctx, e.ID)
}

func scanEntry(sc scanner) (*domain.TimeEntry, error) {
	e := &domain.TimeEntry{}
	var startedAt, createdAt string
	var endedAt sql.NullString
	if err := sc.Scan(&e.ID, &e.UserID, &e.TaskID, &startedAt, &endedAt, &e.Notes, &createdAt); err != nil {
		return nil, err
	}
	e.StartedAt = parseTime(startedAt)
	e.EndedAt = parseNullTime(endedAt)
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}

func (s *Store) GetTimeEntry(ctx context.Context, id string) (*domain.TimeEntry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE id = ? AND deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", id, err)
	}
	return e, nil
}

func (s *Store) UpdateTimeEntry(ctx context.Context, e domain.TimeEntry) (*domain.TimeEntry, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE time_entries SET started_at = ?, ended_at = ?, notes = ? WHERE id = ? AND deleted_at IS NULL`,
		formatTime(e.StartedAt), formatTimePtr(e.EndedAt), e.Notes, e.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update entry %s: %w", e.ID, err)
	}
	return s.GetTimeEntry(ctx, e.ID)
}

func (s *Store) DeleteTimeEntry(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE time_entries SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, formatTime(s.now()), id)
	if err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	return nil
}

// FindRunningTimeEntry returns the user's most recent open entry, or nil.
func (s *Store) FindRunningTimeEntry(ctx context.Context, userID string) (*domain.TimeEntry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM time_entries
		 WHERE user_id = ? AND ended_at IS NULL AND deleted_at IS NULL
		 ORDER BY started_at DESC LIMIT 1`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get running entry: %w", err)
	}
	return e, nil
}

func (s *Store) listEntries(ctx context.Context, where string, args ...any) ([]domain.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE deleted_at IS NULL AND `+where+` ORDER BY started_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (s *Store) ListTimeEntriesByTask(ctx context.Context, taskID string) ([]domain.TimeEntry, error) {
	return s.listEntries(ctx, `task_id = ?`, taskID)
}

// ListTimeEntriesBetween returns entries that started within [from, to].
func (s *Store) ListTimeEntriesBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.TimeEntry, error) {
	return s.listEntries(ctx, `user_id = ? AND started_at >= ? AND started_at <= ?`,
		userID, formatTime(from), formatTime(to))
}

// GetDailySummary aggregates stopped entries per UTC day and project for
// entries started in [from, to).
func (s *Store) GetDailySummary(ctx context.Context, userID string, from, to time.Time) ([]DailySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date(e.started_at) AS day, p.id, p.name, p.color,
		       COALESCE(SUM(CAST(ROUND((julianday(e.ended_at) - julianday(e.started_at)) * 86400) AS INTEGER)), 0),
		       COUNT(*)
		FROM time_entries e
		JOIN tasks t    ON t.id = e.task_id
		JOIN projects p ON p.id = t.project_id
		WHERE e.user_id = ?
		  AND e.ended_at IS NOT NULL
		  AND e.deleted_at IS NULL
		  AND e.started_at >= ? AND e.started_at < ?
		GROUP BY day, p.id
		ORDER BY day, p.name`,
		userID, formatTime(from), formatTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	defer rows.Close()

	var summaries []DailySummary
	for rows.Next() {
		var ds DailySummary
		if err := rows.Scan(&ds.Date, &ds.ProjectID, &ds.ProjectName, &ds.ProjectColor, &ds.TotalSeconds, &ds.EntryCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, ds)
	}
	return summaries, rows.Err()
}

// GetDayTotal sums the seconds of the user's stopped entries started on
// the UTC day containing day.
func (s *Store) GetDayTotal(ctx context.Context, userID string, day time.Time) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CAST(ROUND((julianday(ended_at) - julianday(started_at)) * 86400) AS INTEGER)), 0)
		FROM time_entries
		WHERE user_id = ? AND date(started_at) = ? AND ended_at IS NOT NULL AND deleted_at IS NULL`,
		userID, day.UTC().Format(domain.DateLayout),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("day total: %w", err)
	}
	return total, nil
}
