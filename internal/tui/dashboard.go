package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/worklog/internal/domain"
	"github.com/sadopc/worklog/internal/engine"
	"github.com/sadopc/worklog/internal/service"
	"github.com/sadopc/worklog/internal/store"
	"go.uber.org/zap"
)

type dashboardModel struct {
	b      backend
	timer  timerModel
	clock  clockModel
	width  int
	height int

	activeBreak *domain.Break
	report      *service.DailyReport
	dayTotal    int64
	summary     []store.DailySummary
	recent      []domain.TimeEntry
	openTasks   []domain.Task
	titles      map[string]string

	// Task picker state
	picking      bool
	pickerCursor int
}

func newDashboardModel(b backend) dashboardModel {
	return dashboardModel{
		b:     b,
		timer: newTimerModel(b),
		clock: newClockModel(b),
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d dashboardModel) isRunning() bool { return d.timer.running() }
func (d dashboardModel) isPaused() bool  { return d.clock.paused() }
func (d dashboardModel) elapsed() time.Duration {
	return d.timer.currentElapsed()
}

type dashboardDataMsg struct {
	entry       *domain.TimeEntry
	session     *domain.WorkSession
	activeBreak *domain.Break
	report      *service.DailyReport
	dayTotal    int64
	summary     []store.DailySummary
	recent      []domain.TimeEntry
	openTasks   []domain.Task
	titles      map[string]string
}

func (d dashboardModel) loadData() tea.Cmd {
	b := d.b
	return func() tea.Msg {
		ctx := b.ctx()
		warn := func(what string, err error) {
			if err != nil {
				b.log.Warn("dashboard load", zap.String("what", what), zap.Error(err))
			}
		}
		now := b.now()
		dayStart, dayEnd := dayBounds(now)

		var msg dashboardDataMsg
		var err error
		msg.entry, err = b.svc.Timer.Active(ctx, b.userID)
		warn("timer", err)
		msg.session, err = b.svc.Sessions.Active(ctx, b.userID)
		warn("session", err)
		msg.activeBreak, err = b.svc.Breaks.Active(ctx, b.userID)
		warn("break", err)
		msg.report, err = b.svc.Scores.DailyScore(ctx, b.userID, b.today())
		warn("score", err)
		msg.dayTotal, err = b.store.GetDayTotal(ctx, b.userID, now)
		warn("day total", err)
		msg.summary, err = b.store.GetDailySummary(ctx, b.userID, dayStart, dayEnd)
		warn("summary", err)

		entries, err := b.svc.Timer.List(ctx, b.userID, dayStart, dayEnd)
		warn("entries", err)
		if len(entries) > 5 {
			entries = entries[len(entries)-5:]
		}
		msg.recent = entries

		tasks, err := b.svc.Tasks.ListTasks(ctx, b.userID, "")
		warn("tasks", err)
		msg.titles = make(map[string]string, len(tasks))
		for _, t := range tasks {
			msg.titles[t.ID] = t.Title
			if t.Status != domain.StatusCompleted && t.Status != domain.StatusArchived {
				msg.openTasks = append(msg.openTasks, t)
			}
		}
		return msg
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		title := ""
		if msg.entry != nil {
			title = msg.titles[msg.entry.TaskID]
		}
		d.timer.sync(msg.entry, title)
		d.clock.session = msg.session
		d.activeBreak = msg.activeBreak
		d.report = msg.report
		d.dayTotal = msg.dayTotal
		d.summary = msg.summary
		d.recent = msg.recent
		d.openTasks = msg.openTasks
		d.titles = msg.titles
		if d.pickerCursor >= len(d.openTasks) {
			d.pickerCursor = max(0, len(d.openTasks)-1)
		}
		return d, nil

	case tickMsg:
		d.timer.tick()
		return d, nil

	case tea.KeyMsg:
		if d.picking {
			return d.updatePicker(msg)
		}

		switch {
		case key.Matches(msg, keys.Start):
			if d.timer.running() {
				return d, nil
			}
			if len(d.openTasks) == 0 {
				return d, func() tea.Msg {
					return statusMsg{text: "No open tasks. Press 2 to go to Tasks and create one.", isError: true}
				}
			}
			if len(d.openTasks) == 1 {
				return d.startTimer(d.openTasks[0].ID, d.openTasks[0].Title)
			}
			d.picking = true
			d.pickerCursor = 0
			return d, nil

		case key.Matches(msg, keys.Stop):
			return d.stopTimer()

		case key.Matches(msg, keys.ClockIn):
			if err := d.clock.clockIn(); err != nil {
				return d, errCmd(err)
			}
			return d, statusCmd("Clocked in")

		case key.Matches(msg, keys.Pause):
			if err := d.clock.toggle(); err != nil {
				return d, errCmd(err)
			}
			return d, nil

		case key.Matches(msg, keys.ClockOut):
			ws, err := d.clock.clockOut()
			if err != nil {
				return d, errCmd(err)
			}
			if ws == nil {
				return d, nil
			}
			return d, tea.Batch(d.loadData(), statusCmd("Clocked out"))
		}
	}
	return d, nil
}

func (d dashboardModel) updatePicker(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if d.pickerCursor > 0 {
			d.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if d.pickerCursor < len(d.openTasks)-1 {
			d.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		d.picking = false
		if d.pickerCursor < len(d.openTasks) {
			t := d.openTasks[d.pickerCursor]
			return d.startTimer(t.ID, t.Title)
		}
	case key.Matches(msg, keys.Back):
		d.picking = false
	}
	return d, nil
}

func (d dashboardModel) startTimer(taskID, title string) (dashboardModel, tea.Cmd) {
	if err := d.timer.start(taskID, title); err != nil {
		return d, errCmd(err)
	}
	entry := d.timer.entry
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return timerStartedMsg{entry: entry} },
	)
}

func (d dashboardModel) stopTimer() (dashboardModel, tea.Cmd) {
	entry, err := d.timer.stop()
	if err != nil {
		return d, errCmd(err)
	}
	if entry == nil {
		return d, nil
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return timerStoppedMsg{entry: entry} },
	)
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	top := lipgloss.JoinVertical(lipgloss.Left,
		d.renderTimerPanel(contentWidth),
		d.renderClockPanel(contentWidth),
	)

	var bottomPanel string
	if d.picking {
		bottomPanel = d.renderTaskPicker(contentWidth)
	} else {
		bottomPanel = d.renderRecentPanel(contentWidth)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		top,
		d.renderScorePanel(contentWidth),
		d.renderSummaryPanel(contentWidth),
		bottomPanel,
	)
}

func (d dashboardModel) renderTimerPanel(w int) string {
	if d.timer.running() {
		timeDisplay := timerRunningStyle.Width(w - 6).Render(formatDuration(d.timer.currentElapsed()))
		indicator := successStyle.Render("●  RUNNING")
		taskLine := highlightStyle.Render(d.timer.taskTitle)

		content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, taskLine)
		return activePanelStyle.Width(w).Render(content)
	}

	timeDisplay := timerStyle.Width(w - 6).Render("00:00:00")
	indicator := mutedStyle.Render("■  STOPPED")
	hint := mutedStyle.Render("Press s to start tracking a task")

	content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, hint)
	return panelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderClockPanel(w int) string {
	var line string
	switch {
	case d.clock.paused():
		line = warningStyle.Render("⏸  ON PAUSE") + mutedStyle.Render(fmt.Sprintf("  worked %s  space: resume  o: clock out", formatMinutes(d.clock.worked())))
	case d.clock.active():
		in := d.clock.session.ClockedInAt.Local().Format("15:04")
		line = successStyle.Render("●  CLOCKED IN") + mutedStyle.Render(fmt.Sprintf("  since %s  worked %s  space: pause  o: clock out", in, formatMinutes(d.clock.worked())))
	default:
		line = mutedStyle.Render("○  Not clocked in. Press i to clock in")
	}
	if d.activeBreak != nil {
		since := d.b.now().Sub(d.activeBreak.StartedAt)
		line += "\n" + accentStyle.Render(fmt.Sprintf("☕ %s break running %s", strings.ToLower(string(d.activeBreak.Type)), formatDuration(since)))
	}
	return panelStyle.Width(w).Render(titleStyle.Render("Work Session") + "\n" + line)
}

func (d dashboardModel) renderScorePanel(w int) string {
	title := titleStyle.Render("Today's Score")
	if d.report == nil {
		return panelStyle.Width(w).Render(title + "\n" + mutedStyle.Render("No score yet"))
	}
	r := d.report
	points := highlightStyle.Render(fmt.Sprintf("%d pts", r.TotalPoints))
	trend := trendStyle(r.Label.Direction).Render(fmt.Sprintf("%s  %s", r.Label.Direction, r.Label.Message))
	detail := mutedStyle.Render(fmt.Sprintf("%d tasks completed  average %.1f  focus types %d",
		len(r.Tasks), r.Average, r.Context.TaskTypesWorkedToday))
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("%s  %s", title, points), trend, detail))
}

func (d dashboardModel) renderSummaryPanel(w int) string {
	title := titleStyle.Render("Tracked Today")
	total := highlightStyle.Render(formatSeconds(d.dayTotal))
	header := fmt.Sprintf("%s  %s", title, total)

	if len(d.summary) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header,
			mutedStyle.Render("No entries today"),
		))
	}

	rows := []string{header}
	for _, s := range d.summary {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(s.ProjectColor)).Render("●")
		rows = append(rows, fmt.Sprintf("  %s %-20s %s  (%d entries)",
			colorDot, s.ProjectName, formatSeconds(s.TotalSeconds), s.EntryCount))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Entries")
	if len(d.recent) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No entries yet"),
		))
	}

	rows := []string{title}
	for _, e := range d.recent {
		name := d.titles[e.TaskID]
		if name == "" {
			name = "?"
		}
		dur := formatMinutes(engine.EntryMinutes(e))
		status := "✓"
		if e.Running() {
			status = "●"
			dur = "running"
		}
		rows = append(rows, fmt.Sprintf("  %s %s  %-24s %s", status, e.StartedAt.Local().Format("15:04"), name, dur))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderTaskPicker(w int) string {
	rows := []string{titleStyle.Render("Select Task")}
	for i, t := range d.openTasks {
		cursor := "  "
		style := normalItemStyle
		if i == d.pickerCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		indent := ""
		if t.IsSubtask() {
			indent = "  └ "
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s%s", cursor, indent, t.Title))+
			mutedStyle.Render(fmt.Sprintf("  %s %d%%", strings.ToLower(string(t.Difficulty)), t.Progress)))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: start  esc: cancel"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
