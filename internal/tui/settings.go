package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/worklog/internal/domain"
	"github.com/sadopc/worklog/internal/service"
)

const settingDefaultDifficulty = "default_difficulty"

type settingsModel struct {
	b      backend
	width  int
	height int

	settings   []domain.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	trendWindow       *string
	defaultBreak      *domain.BreakType
	defaultDifficulty *domain.Difficulty
}

func newSettingsModel(b backend) settingsModel {
	tw := ""
	br := domain.BreakCoffee
	df := domain.DifficultyMedium
	return settingsModel{
		b:                 b,
		trendWindow:       &tw,
		defaultBreak:      &br,
		defaultDifficulty: &df,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []domain.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	b := s.b
	return func() tea.Msg {
		settings, err := b.store.GetAllSettings(b.ctx())
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.trendWindow = s.getVal(service.SettingTrendWindow, strconv.Itoa(service.DefaultTrendWindow))
	*s.defaultBreak = domain.BreakType(s.getVal(settingDefaultBreak, string(domain.BreakCoffee)))
	*s.defaultDifficulty = domain.Difficulty(s.getVal(settingDefaultDifficulty, string(domain.DifficultyMedium)))

	breakOptions := make([]huh.Option[domain.BreakType], len(domain.BreakTypes))
	for i, t := range domain.BreakTypes {
		breakOptions[i] = huh.NewOption(strings.ToLower(string(t)), t)
	}
	diffOptions := make([]huh.Option[domain.Difficulty], len(domain.Difficulties))
	for i, d := range domain.Difficulties {
		diffOptions[i] = huh.NewOption(strings.ToLower(string(d)), d)
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Trend window (days)").
				Description("Days of history today's score is compared against").
				Value(s.trendWindow).Validate(validTrendWindow),
		).Title("Scoring"),
		huh.NewGroup(
			huh.NewSelect[domain.BreakType]().Title("Default break").Options(breakOptions...).Value(s.defaultBreak),
			huh.NewSelect[domain.Difficulty]().Title("Default difficulty").Options(diffOptions...).Value(s.defaultDifficulty),
		).Title("Defaults"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func validTrendWindow(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 || n > 90 {
		return fmt.Errorf("enter a number of days between 1 and 90")
	}
	return nil
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if err := s.saveSettings(); err != nil {
			return s, errCmd(err)
		}
		return s, tea.Batch(s.refresh(), statusCmd("Settings saved"))
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	if err := validTrendWindow(*s.trendWindow); err != nil {
		return err
	}
	values := []domain.Setting{
		{Key: service.SettingTrendWindow, Value: strings.TrimSpace(*s.trendWindow)},
		{Key: settingDefaultBreak, Value: string(*s.defaultBreak)},
		{Key: settingDefaultDifficulty, Value: string(*s.defaultDifficulty)},
	}
	for _, v := range values {
		if err := s.b.store.SetSetting(s.b.ctx(), v.Key, v.Value); err != nil {
			return err
		}
	}
	return nil
}

func (s settingsModel) getVal(k, fallback string) string {
	v, err := s.b.store.GetSetting(s.b.ctx(), k)
	if err != nil || v == "" {
		return fallback
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	rows := []string{title, ""}
	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}
	rows = append(rows, "",
		mutedStyle.Render(fmt.Sprintf("  user %s  workspace %s", s.b.userID, s.b.workspaceID)),
		mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case service.SettingTrendWindow:
		if n, err := strconv.Atoi(v); err == nil {
			if n == 1 {
				return "1 day"
			}
			return fmt.Sprintf("%d days", n)
		}
	case settingDefaultBreak, settingDefaultDifficulty:
		return strings.ToLower(v)
	}
	return v
}
