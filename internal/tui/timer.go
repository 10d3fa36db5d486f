package tui

import (
	"time"

	"github.com/sadopc/worklog/internal/domain"
	"github.com/sadopc/worklog/internal/service"
)

// timerModel mirrors the user's running time entry. The entry itself lives
// in the store; the model only caches it for display between refreshes.
type timerModel struct {
	b backend

	entry     *domain.TimeEntry
	taskTitle string
	elapsed   time.Duration
}

func newTimerModel(b backend) timerModel {
	return timerModel{b: b}
}

// sync adopts a running entry loaded from the store, or clears the model.
func (t *timerModel) sync(e *domain.TimeEntry, title string) {
	t.entry = e
	t.taskTitle = title
	t.tick()
}

func (t *timerModel) start(taskID, title string) error {
	e, err := t.b.svc.Timer.Start(t.b.ctx(), t.b.userID, service.StartTimerInput{TaskID: taskID})
	if err != nil {
		return err
	}
	t.sync(e, title)
	return nil
}

// stop ends the running entry. It returns nil, nil when nothing runs.
func (t *timerModel) stop() (*domain.TimeEntry, error) {
	if t.entry == nil {
		return nil, nil
	}
	e, err := t.b.svc.Timer.Stop(t.b.ctx(), t.b.userID, t.entry.ID)
	if err != nil {
		return nil, err
	}
	t.sync(nil, "")
	return e, nil
}

func (t *timerModel) tick() {
	if t.entry == nil {
		t.elapsed = 0
		return
	}
	t.elapsed = t.b.now().Sub(t.entry.StartedAt)
}

func (t timerModel) running() bool {
	return t.entry != nil
}

// currentElapsed is the running time as of the last tick.
func (t timerModel) currentElapsed() time.Duration {
	return t.elapsed
}

// clockModel mirrors the user's open work session.
type clockModel struct {
	b       backend
	session *domain.WorkSession
}

func newClockModel(b backend) clockModel {
	return clockModel{b: b}
}

func (c *clockModel) clockIn() error {
	ws, err := c.b.svc.Sessions.ClockIn(c.b.ctx(), c.b.userID, service.ClockInInput{WorkspaceID: c.b.workspaceID})
	if err != nil {
		return err
	}
	c.session = ws
	return nil
}

// toggle pauses an active session and resumes a paused one.
func (c *clockModel) toggle() error {
	if c.session == nil {
		return nil
	}
	op := c.b.svc.Sessions.Pause
	if c.session.Status == domain.SessionPaused {
		op = c.b.svc.Sessions.Resume
	}
	ws, err := op(c.b.ctx(), c.b.userID, c.session.ID)
	if err != nil {
		return err
	}
	c.session = ws
	return nil
}

func (c *clockModel) clockOut() (*domain.WorkSession, error) {
	if c.session == nil {
		return nil, nil
	}
	ws, err := c.b.svc.Sessions.ClockOut(c.b.ctx(), c.b.userID, c.session.ID)
	if err != nil {
		return nil, err
	}
	c.session = nil
	return ws, nil
}

func (c clockModel) active() bool { return c.session != nil }

func (c clockModel) paused() bool {
	return c.session != nil && c.session.Status == domain.SessionPaused
}

func (c clockModel) worked() int {
	if c.session == nil {
		return 0
	}
	return c.b.svc.Sessions.WorkedMinutes(*c.session)
}
