package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/worklog/internal/domain"
	"github.com/sadopc/worklog/internal/service"
	"github.com/sadopc/worklog/internal/store"
	"go.uber.org/zap"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewTasks
	viewGoals
	viewBreaks
	viewReports
	viewSettings
)

var viewNames = []string{"Dashboard", "Tasks", "Goals", "Breaks", "Reports", "Settings"}

// backend is what every view talks to: the services for mutations and the
// store for the read-only summaries the services do not expose.
type backend struct {
	store       *store.Store
	svc         *service.Services
	userID      string
	workspaceID string
	log         *zap.Logger
	now         func() time.Time
}

func (b backend) ctx() context.Context { return context.Background() }

func (b backend) today() string {
	return b.now().UTC().Format(domain.DateLayout)
}

// dayBounds returns the UTC midnight bounds of the day containing t.
func dayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

// --- Messages ---

type timerStartedMsg struct {
	entry *domain.TimeEntry
}

type timerStoppedMsg struct {
	entry *domain.TimeEntry
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
	}
}

func statusCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func formatMinutes(mins int) string {
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh%02dm", mins/60, mins%60)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
