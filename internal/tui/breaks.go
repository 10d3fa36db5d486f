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
)

const settingDefaultBreak = "default_break_type"

var breakIcons = map[domain.BreakType]string{
	domain.BreakCoffee:  "☕",
	domain.BreakWalk:    "🚶",
	domain.BreakLunch:   "🍽",
	domain.BreakStretch: "🤸",
	domain.BreakCustom:  "•",
}

type breaksModel struct {
	b      backend
	width  int
	height int

	cursor  int
	running *domain.Break
	since   time.Duration
	today   []domain.Break
	stats   engine.BreakStats
}

func newBreaksModel(b backend) breaksModel {
	return breaksModel{b: b}
}

func (m *breaksModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type breaksDataMsg struct {
	running     *domain.Break
	today       []domain.Break
	stats       engine.BreakStats
	defaultType domain.BreakType
}

func (m breaksModel) refresh() tea.Cmd {
	b := m.b
	return func() tea.Msg {
		ctx := b.ctx()
		running, err := b.svc.Breaks.Active(ctx, b.userID)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		today, err := b.svc.Breaks.List(ctx, b.userID, b.today())
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		stats, err := b.svc.Breaks.Stats(ctx, b.userID, b.today())
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		def, _ := b.store.GetSetting(ctx, settingDefaultBreak)
		return breaksDataMsg{running: running, today: today, stats: stats, defaultType: domain.BreakType(def)}
	}
}

func breakIndex(t domain.BreakType) int {
	for i, bt := range domain.BreakTypes {
		if bt == t {
			return i
		}
	}
	return 0
}

func (m breaksModel) update(msg tea.Msg) (breaksModel, tea.Cmd) {
	switch msg := msg.(type) {
	case breaksDataMsg:
		if m.running == nil && msg.defaultType.Valid() {
			m.cursor = breakIndex(msg.defaultType)
		}
		m.running = msg.running
		m.today = msg.today
		m.stats = msg.stats
		m.tick()
		return m, nil

	case tickMsg:
		m.tick()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up), key.Matches(msg, keys.Left):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down), key.Matches(msg, keys.Right):
			if m.cursor < len(domain.BreakTypes)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Start), key.Matches(msg, keys.Enter):
			return m.startBreak(domain.BreakTypes[m.cursor])
		case key.Matches(msg, keys.Stop):
			return m.stopBreak()
		}
	}
	return m, nil
}

func (m *breaksModel) tick() {
	if m.running == nil {
		m.since = 0
		return
	}
	m.since = m.b.now().Sub(m.running.StartedAt)
}

func (m breaksModel) startBreak(t domain.BreakType) (breaksModel, tea.Cmd) {
	br, err := m.b.svc.Breaks.Start(m.b.ctx(), m.b.userID, service.StartBreakInput{Type: t})
	if err != nil {
		return m, errCmd(err)
	}
	m.running = br
	m.tick()
	return m, tea.Batch(m.refresh(), statusCmd(fmt.Sprintf("%s break started", strings.ToLower(string(t)))))
}

func (m breaksModel) stopBreak() (breaksModel, tea.Cmd) {
	if m.running == nil {
		return m, nil
	}
	br, err := m.b.svc.Breaks.Stop(m.b.ctx(), m.b.userID, m.running.ID)
	if err != nil {
		return m, errCmd(err)
	}
	m.running = nil
	m.tick()
	text := "Break ended"
	if br.DurationMinutes != nil {
		text = fmt.Sprintf("Break ended after %s", formatMinutes(*br.DurationMinutes))
	}
	return m, tea.Batch(m.refresh(), statusCmd(text))
}

func (m breaksModel) view() string {
	w := m.width - 4

	title := titleStyle.Render("Breaks")

	var timeDisplay, label string
	if m.running != nil {
		timeDisplay = successStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render(formatDuration(m.since))
		label = successStyle.Bold(true).Render(fmt.Sprintf("%s %s BREAK", breakIcons[m.running.Type], m.running.Type))
	} else {
		timeDisplay = timerStyle.Width(w - 6).Render("00:00:00")
		label = mutedStyle.Render("Working")
	}

	var types []string
	for i, t := range domain.BreakTypes {
		name := fmt.Sprintf("%s %s", breakIcons[t], strings.ToLower(string(t)))
		if i == m.cursor {
			types = append(types, selectedItemStyle.Render("["+name+"]"))
		} else {
			types = append(types, normalItemStyle.Render(" "+name+" "))
		}
	}
	picker := strings.Join(types, " ")

	var controls string
	if m.running != nil {
		controls = mutedStyle.Render("x: end break")
	} else {
		controls = mutedStyle.Render("←/→: choose  s: start break")
	}

	top := lipgloss.JoinVertical(lipgloss.Center, title, "", timeDisplay, label, "", picker, "", controls)

	return lipgloss.JoinVertical(lipgloss.Left,
		panelStyle.Width(w).Render(top),
		panelStyle.Width(w).Render(m.renderStats()),
	)
}

func (m breaksModel) renderStats() string {
	s := m.stats
	header := titleStyle.Render("Today") + "  " +
		highlightStyle.Render(fmt.Sprintf("%d breaks, %s", s.BreakCount, formatMinutes(s.TotalBreakMinutes)))

	if len(m.today) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, mutedStyle.Render("No breaks today"))
	}

	rows := []string{header}
	for _, t := range domain.BreakTypes {
		if mins, ok := s.ByType[t]; ok {
			rows = append(rows, fmt.Sprintf("  %s %-8s %s", breakIcons[t], strings.ToLower(string(t)), formatMinutes(mins)))
		}
	}
	rows = append(rows, "")
	for _, br := range m.today {
		end := "running"
		if br.EndedAt != nil {
			end = br.EndedAt.Local().Format("15:04")
		}
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %s–%s  %s",
			br.StartedAt.Local().Format("15:04"), end, strings.ToLower(string(br.Type)))))
	}
	return strings.Join(rows, "\n")
}
