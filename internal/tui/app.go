package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/worklog/internal/config"
	"github.com/sadopc/worklog/internal/domain"
	"github.com/sadopc/worklog/internal/export"
	"github.com/sadopc/worklog/internal/service"
	"github.com/sadopc/worklog/internal/store"
	"go.uber.org/zap"
)

// App is the root Bubble Tea model.
type App struct {
	b      backend
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int
	exportDir     string

	dashboard dashboardModel
	tasks     tasksModel
	goals     goalsModel
	breaks    breaksModel
	reports   reportsModel
	settings  settingsModel

	help        help.Model
	status      string
	statusIsErr bool
}

// NewApp wires the views for the configured user. A nil logger is replaced
// by a no-op one.
func NewApp(s *store.Store, svc *service.Services, cfg *config.Config, log *zap.Logger) App {
	if log == nil {
		log = zap.NewNop()
	}
	home, _ := os.UserHomeDir()
	return newApp(backend{
		store:       s,
		svc:         svc,
		userID:      cfg.UserID,
		workspaceID: cfg.WorkspaceID,
		log:         log.Named("tui"),
		now:         time.Now,
	}, home)
}

func newApp(b backend, exportDir string) App {
	h := help.New()
	h.ShowAll = false

	return App{
		b:          b,
		activeView: viewDashboard,
		exportDir:  exportDir,
		dashboard:  newDashboardModel(b),
		tasks:      newTasksModel(b),
		goals:      newGoalsModel(b),
		breaks:     newBreaksModel(b),
		reports:    newReportsModel(b),
		settings:   newSettingsModel(b),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.dashboard.Init(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.goals.setSize(a.width, contentHeight)
		a.breaks.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}
		for i, b := range tabKeys() {
			if key.Matches(msg, b) {
				return a.switchTo(viewState(i))
			}
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())
		// Ticks drive the dashboard and break clocks whatever the view.
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		a.breaks, cmd = a.breaks.update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case statusMsg:
		a.status = msg.text
		a.statusIsErr = msg.isError
		if msg.isError {
			a.b.log.Debug("status error", zap.String("text", msg.text))
		}
		return a, nil

	case timerStoppedMsg:
		a.status = "Timer stopped"
		a.statusIsErr = false
		if msg.entry != nil && msg.entry.EndedAt != nil {
			a.status = "Timer stopped after " + formatDuration(msg.entry.EndedAt.Sub(msg.entry.StartedAt))
		}
		return a, nil

	case timerStartedMsg:
		a.status = "Timer started"
		a.statusIsErr = false
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusIsErr = false
		a.exportPicking = false
		return a, nil

	// Data messages go to their owner even when another view is active.
	case dashboardDataMsg:
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, cmd
	case breaksDataMsg:
		var cmd tea.Cmd
		a.breaks, cmd = a.breaks.update(msg)
		return a, cmd
	}

	return a.updateActiveView(msg)
}

// tabKeys returns the direct tab bindings in viewNames order.
func tabKeys() []key.Binding {
	return []key.Binding{keys.Tab1, keys.Tab2, keys.Tab3, keys.Tab4, keys.Tab5, keys.Tab6}
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewGoals:
		a.goals, cmd = a.goals.update(msg)
	case viewBreaks:
		a.breaks, cmd = a.breaks.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTasks:
		return a.tasks.formActive
	case viewGoals:
		return a.goals.formActive
	case viewSettings:
		return a.settings.formActive
	case viewDashboard:
		return a.dashboard.picking
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewTasks:
		if a.tasks.viewingTasks {
			return tea.Batch(a.tasks.refresh(), a.tasks.refreshTasks())
		}
		return a.tasks.refresh()
	case viewGoals:
		return a.goals.refresh()
	case viewBreaks:
		return a.breaks.refresh()
	case viewReports:
		return a.reports.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewTasks:
		content = a.tasks.view()
	case viewGoals:
		content = a.goals.view()
	case viewBreaks:
		content = a.breaks.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(a.height-headerHeight-footerHeight, 1)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("worklog")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusIsErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Timer and session indicators
	indicator := ""
	if a.dashboard.isRunning() {
		indicator = successStyle.Render(" ● " + formatDuration(a.dashboard.elapsed()))
	}
	if a.dashboard.isPaused() {
		indicator += warningStyle.Render(" ⏸ paused")
	}
	if a.breaks.running != nil {
		indicator += accentStyle.Render(" ☕ " + formatDuration(a.breaks.since))
	}

	left := footerStyle.Render(helpView)
	right := indicator + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportFormats = []string{"CSV", "JSON"}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export Format"), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "",
		mutedStyle.Render("  CSV: time entries  JSON: entries, breaks and work sessions"),
		mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// exportData collects everything the user has recorded.
func (b backend) exportData() (export.Data, error) {
	ctx := b.ctx()
	far := b.now().AddDate(100, 0, 0)

	entries, err := b.svc.Timer.List(ctx, b.userID, time.Time{}, far)
	if err != nil {
		return export.Data{}, err
	}
	tasks, err := b.svc.Tasks.ListTasks(ctx, b.userID, "")
	if err != nil {
		return export.Data{}, err
	}
	breaks, err := b.store.ListBreaksBetween(ctx, b.userID, time.Time{}, far)
	if err != nil {
		return export.Data{}, err
	}
	sessions, err := b.store.ListWorkSessionsBetween(ctx, b.userID, "0001-01-01", far.Format(domain.DateLayout))
	if err != nil {
		return export.Data{}, err
	}

	byID := make(map[string]domain.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	return export.Data{Entries: entries, Tasks: byID, Breaks: breaks, Sessions: sessions}, nil
}

func (a App) doExport(format int) tea.Cmd {
	b, dir := a.b, a.exportDir
	return func() tea.Msg {
		data, err := b.exportData()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		dateStr := b.now().Format(domain.DateLayout)

		var path string
		if format == 0 {
			path = filepath.Join(dir, fmt.Sprintf("worklog-export-%s.csv", dateStr))
			if err := export.ToCSV(data, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(dir, fmt.Sprintf("worklog-export-%s.json", dateStr))
			if err := export.ToJSON(data, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		b.log.Info("exported", zap.String("path", path), zap.Int("entries", len(data.Entries)))
		return exportDoneMsg{path: path}
	}
}
