package service

import "go.uber.org/zap"

// Services is every façade wired against one set of repositories. They
// share a single Locker, so one user's timer, break and session mutations
// are serialized together.
type Services struct {
	Projects *ProjectService
	Tasks    *TaskService
	Timer    *TimerService
	Breaks   *BreakService
	Sessions *WorkSessionService
	Goals    *GoalService
	Scores   *ScoreService
}

func New(r Repositories, log *zap.Logger, opts ...Option) *Services {
	shared := newCore(log, opts)
	opts = append(opts[:len(opts):len(opts)], WithLocker(shared.locker))
	log = shared.log
	return &Services{
		Projects: NewProjectService(r.Projects, log.Named("projects"), opts...),
		Tasks:    NewTaskService(r.Tasks, r.Projects, log.Named("tasks"), opts...),
		Timer:    NewTimerService(r.TimeEntries, r.Tasks, log.Named("timer"), opts...),
		Breaks:   NewBreakService(r.Breaks, log.Named("breaks"), opts...),
		Sessions: NewWorkSessionService(r.Sessions, log.Named("sessions"), opts...),
		Goals:    NewGoalService(r.Goals, r.Tasks, r.TimeEntries, r.Points, log.Named("goals"), opts...),
		Scores:   NewScoreService(r.Tasks, r.TimeEntries, r.Scores, r.Settings, log.Named("scores"), opts...),
	}
}
