package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sadopc/worklog/internal/domain"
	"github.com/sadopc/worklog/internal/engine"
)

type BreakService struct {
	core
	breaks BreakRepository
}

func NewBreakService(breaks BreakRepository, log *zap.Logger, opts ...Option) *BreakService {
	return &BreakService{core: newCore(log, opts), breaks: breaks}
}

type StartBreakInput struct {
	Type  domain.BreakType `json:"type"`
	Notes string           `json:"notes" validate:"max=1000"`
}

func (s *BreakService) Start(ctx context.Context, userID string, in StartBreakInput) (*domain.Break, error) {
	in.Notes = strings.TrimSpace(in.Notes)
	if err := domain.Struct(in); err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, s.rejected("start break", domain.InvalidBreakType(in.Type), zap.String("user_id", userID))
	}
	unlock := s.locker.Lock(userID)
	defer unlock()

	running, err := s.breaks.FindRunningBreak(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := engine.CheckBreakStart(running, in.Type); err != nil {
		return nil, s.rejected("start break", err, zap.String("user_id", userID))
	}
	b, err := s.breaks.CreateBreak(ctx, engine.NewBreak(userID, in.Type, in.Notes, s.clock()))
	if err != nil {
		return nil, err
	}
	s.log.Info("break started", zap.String("user_id", userID), zap.String("break_id", b.ID), zap.String("type", string(b.Type)))
	return b, nil
}

func (s *BreakService) Stop(ctx context.Context, userID, breakID string) (*domain.Break, error) {
	if strings.TrimSpace(breakID) == "" {
		return nil, domain.ValidationFailed("breakId", "is required")
	}
	unlock := s.locker.Lock(userID)
	defer unlock()

	b, err := s.breaks.GetBreak(ctx, breakID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.NotFound("break", breakID)
	}
	if b.UserID != userID {
		return nil, domain.Forbidden("break", breakID)
	}
	stopped, err := engine.StopBreak(*b, s.clock())
	if err != nil {
		return nil, s.rejected("stop break", err, zap.String("user_id", userID), zap.String("break_id", breakID))
	}
	updated, err := s.breaks.UpdateBreak(ctx, stopped)
	if err != nil {
		return nil, err
	}
	s.log.Info("break stopped", zap.String("user_id", userID), zap.String("break_id", updated.ID),
		zap.Intp("minutes", updated.DurationMinutes))
	return updated, nil
}

// Active returns the user's running break, or nil.
func (s *BreakService) Active(ctx context.Context, userID string) (*domain.Break, error) {
	return s.breaks.FindRunningBreak(ctx, userID)
}

// List returns the breaks started on the given YYYY-MM-DD day.
func (s *BreakService) List(ctx context.Context, userID, date string) ([]domain.Break, error) {
	day, err := domain.ParseDate("date", date)
	if err != nil {
		return nil, err
	}
	w := engine.DateRange(domain.PeriodDaily, day)
	return s.breaks.ListBreaksBetween(ctx, userID, w.Start, w.End)
}

func (s *BreakService) Stats(ctx context.Context, userID, date string) (engine.BreakStats, error) {
	day, err := domain.ParseDate("date", date)
	if err != nil {
		return engine.BreakStats{}, err
	}
	w := engine.DateRange(domain.PeriodDaily, day)
	breaks, err := s.breaks.ListBreaksBetween(ctx, userID, w.Start, w.End)
	if err != nil {
		return engine.BreakStats{}, err
	}
	return engine.CalculateBreakStats(breaks, day), nil
}
