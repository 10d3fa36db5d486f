package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sadopc/worklog/internal/domain"
)

// DefaultSnapshotSchedule fires at 23:55:00 UTC every day.
const DefaultSnapshotSchedule = "0 55 23 * * *"

const snapshotTimeout = 30 * time.Second

// Scheduler runs the daily score snapshot on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	scores *ScoreService
	log    *zap.Logger
}

func NewScheduler(scores *ScoreService, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC), cron.WithSeconds()),
		scores: scores,
		log:    log,
	}
}

// ScheduleDailySnapshot registers the snapshot job for userID. schedule uses
// the six-field cron format with seconds.
func (s *Scheduler) ScheduleDailySnapshot(schedule, userID string) (cron.EntryID, error) {
	return s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
		defer cancel()
		if _, err := s.Snapshot(ctx, userID); err != nil {
			s.log.Error("daily score snapshot failed", zap.String("user_id", userID), zap.Error(err))
		}
	})
}

// Snapshot records today's score for userID.
func (s *Scheduler) Snapshot(ctx context.Context, userID string) (*domain.DailyScore, error) {
	today := s.scores.clock().Format(domain.DateLayout)
	return s.scores.RecordDailyScore(ctx, userID, today)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Entries lists the registered jobs.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}
