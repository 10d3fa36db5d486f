package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sadopc/worklog/internal/domain"
	"github.com/sadopc/worklog/internal/engine"
)

type WorkSessionService struct {
	core
	sessions WorkSessionRepository
}

func NewWorkSessionService(sessions WorkSessionRepository, log *zap.Logger, opts ...Option) *WorkSessionService {
	return &WorkSessionService{core: newCore(log, opts), sessions: sessions}
}

type ClockInInput struct {
	WorkspaceID string `json:"workspaceId" validate:"required,max=64"`
}

func (s *WorkSessionService) ClockIn(ctx context.Context, userID string, in ClockInInput) (*domain.WorkSession, error) {
	in.WorkspaceID = strings.TrimSpace(in.WorkspaceID)
	if err := domain.Struct(in); err != nil {
		return nil, err
	}
	unlock := s.locker.Lock(userID)
	defer unlock()

	open, err := s.sessions.ListOpenWorkSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := engine.CheckClockIn(open); err != nil {
		return nil, s.rejected("clock in", err, zap.String("user_id", userID))
	}
	ws, err := s.sessions.CreateWorkSession(ctx, engine.NewWorkSession(userID, in.WorkspaceID, s.clock()))
	if err != nil {
		return nil, err
	}
	s.log.Info("clocked in", zap.String("user_id", userID), zap.String("session_id", ws.ID))
	return ws, nil
}

func (s *WorkSessionService) Pause(ctx context.Context, userID, sessionID string) (*domain.WorkSession, error) {
	return s.apply(ctx, userID, sessionID, engine.OpPause)
}

func (s *WorkSessionService) Resume(ctx context.Context, userID, sessionID string) (*domain.WorkSession, error) {
	return s.apply(ctx, userID, sessionID, engine.OpResume)
}

func (s *WorkSessionService) ClockOut(ctx context.Context, userID, sessionID string) (*domain.WorkSession, error) {
	return s.apply(ctx, userID, sessionID, engine.OpClockOut)
}

func (s *WorkSessionService) apply(ctx context.Context, userID, sessionID string, op engine.SessionOp) (*domain.WorkSession, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.ValidationFailed("sessionId", "is required")
	}
	unlock := s.locker.Lock(userID)
	defer unlock()

	ws, err := s.sessions.GetWorkSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, domain.NotFound("work session", sessionID)
	}
	if ws.UserID != userID {
		return nil, domain.Forbidden("work session", sessionID)
	}
	next, err := engine.ApplyWorkSessionOp(*ws, op, s.clock())
	if err != nil {
		return nil, s.rejected(string(op), err, zap.String("user_id", userID), zap.String("session_id", sessionID))
	}
	updated, err := s.sessions.UpdateWorkSession(ctx, next)
	if err != nil {
		return nil, err
	}
	s.log.Info("work session "+string(op), zap.String("user_id", userID), zap.String("session_id", sessionID),
		zap.String("from", string(ws.Status)), zap.String("to", string(updated.Status)))
	return updated, nil
}

// Active returns the user's open session, or nil.
func (s *WorkSessionService) Active(ctx context.Context, userID string) (*domain.WorkSession, error) {
	open, err := s.sessions.ListOpenWorkSessions(ctx, userID)
	if err != nil || len(open) == 0 {
		return nil, err
	}
	return &open[0], nil
}

// List returns the sessions clocked in on the given YYYY-MM-DD day.
func (s *WorkSessionService) List(ctx context.Context, userID, date string) ([]domain.WorkSession, error) {
	if _, err := domain.ParseDate("date", date); err != nil {
		return nil, err
	}
	return s.sessions.ListWorkSessionsByDate(ctx, userID, date)
}

// WorkedMinutes is the session's clocked time net of pauses, as of now.
func (s *WorkSessionService) WorkedMinutes(ws domain.WorkSession) int {
	return engine.WorkedMinutes(ws, s.clock())
}
