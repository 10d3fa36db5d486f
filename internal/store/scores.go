package store

import (
	"context"
	"fmt"

	"github.com/sadopc/worklog/internal/domain"
)

func (s *Store) UpsertDailyScore(ctx context.Context, d domain.DailyScore) error {
	recordedAt := d.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_scores (user_id, date, total_points, task_count, recorded_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, date) DO UPDATE SET
		   total_points = excluded.total_points,
		   task_count   = excluded.task_count,
		   recorded_at  = excluded.recorded_at`,
		d.UserID, d.Date, d.TotalPoints, d.TaskCount, formatTime(recordedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert daily score %s: %w", d.Date, err)
	}
	return nil
}

func (s *Store) ListDailyScores(ctx context.Context, userID, from, to string) ([]domain.DailyScore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, date, total_points, task_count, recorded_at FROM daily_scores
		 WHERE user_id = ? AND date >= ? AND date <= ?
		 ORDER BY date`,
		userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list daily scores: %w", err)
	}
	defer rows.Close()

	var scores []domain.DailyScore
	for rows.Next() {
		var d domain.DailyScore
		var recordedAt string
		if err := rows.Scan(&d.UserID, &d.Date, &d.TotalPoints, &d.TaskCount, &recordedAt); err != nil {
			return nil, err
		}
		d.RecordedAt = parseTime(recordedAt)
		scores = append(scores, d)
	}
	return scores, rows.Err()
}
