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
	"github.com/sadopc/worklog/internal/engine"
	"github.com/sadopc/worklog/internal/service"
)

type goalsModel struct {
	b      backend
	width  int
	height int

	goals    []domain.Goal
	progress map[string]engine.GoalProgress
	cursor   int

	formActive bool
	form       *huh.Form

	formTitle  *string
	formType   *domain.GoalType
	formTarget *string
	formPeriod *domain.GoalPeriod
}

func newGoalsModel(b backend) goalsModel {
	title, target := "", ""
	gt, gp := domain.GoalTasksCompleted, domain.PeriodDaily
	return goalsModel{
		b:          b,
		formTitle:  &title,
		formType:   &gt,
		formTarget: &target,
		formPeriod: &gp,
	}
}

func (g *goalsModel) setSize(w, h int) {
	g.width = w
	g.height = h
}

type goalsDataMsg struct {
	goals    []domain.Goal
	progress map[string]engine.GoalProgress
}

func (g goalsModel) refresh() tea.Cmd {
	b := g.b
	return func() tea.Msg {
		ctx := b.ctx()
		goals, err := b.svc.Goals.ListGoals(ctx, b.userID)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		statuses, err := b.svc.Goals.GetAllGoalStatuses(ctx, b.userID, b.now())
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		progress := make(map[string]engine.GoalProgress, len(statuses))
		for _, s := range statuses {
			progress[s.Goal.ID] = s
		}
		return goalsDataMsg{goals: goals, progress: progress}
	}
}

func (g goalsModel) selected() (domain.Goal, bool) {
	if g.cursor >= len(g.goals) {
		return domain.Goal{}, false
	}
	return g.goals[g.cursor], true
}

func (g goalsModel) update(msg tea.Msg) (goalsModel, tea.Cmd) {
	if g.formActive && g.form != nil {
		return g.updateForm(msg)
	}

	switch msg := msg.(type) {
	case goalsDataMsg:
		g.goals = msg.goals
		g.progress = msg.progress
		if g.cursor >= len(g.goals) {
			g.cursor = max(0, len(g.goals)-1)
		}
		return g, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if g.cursor > 0 {
				g.cursor--
			}
		case key.Matches(msg, keys.Down):
			if g.cursor < len(g.goals)-1 {
				g.cursor++
			}
		case key.Matches(msg, keys.New):
			return g.showForm()
		case key.Matches(msg, keys.Toggle):
			if goal, ok := g.selected(); ok {
				active := !goal.IsActive
				if _, err := g.b.svc.Goals.UpdateGoal(g.b.ctx(), g.b.userID, goal.ID, service.UpdateGoalInput{IsActive: &active}); err != nil {
					return g, errCmd(err)
				}
				return g, g.refresh()
			}
		case key.Matches(msg, keys.Delete):
			if goal, ok := g.selected(); ok {
				if err := g.b.svc.Goals.DeleteGoal(g.b.ctx(), g.b.userID, goal.ID); err != nil {
					return g, errCmd(err)
				}
				return g, g.refresh()
			}
		}
	}
	return g, nil
}

func (g goalsModel) showForm() (goalsModel, tea.Cmd) {
	*g.formTitle = ""
	*g.formType = domain.GoalTasksCompleted
	*g.formTarget = ""
	*g.formPeriod = domain.PeriodDaily

	typeOptions := make([]huh.Option[domain.GoalType], len(domain.GoalTypes))
	for i, t := range domain.GoalTypes {
		typeOptions[i] = huh.NewOption(goalTypeLabel(t), t)
	}
	periodOptions := make([]huh.Option[domain.GoalPeriod], len(domain.GoalPeriods))
	for i, p := range domain.GoalPeriods {
		periodOptions[i] = huh.NewOption(strings.ToLower(string(p)), p)
	}

	g.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Goal").Value(g.formTitle).Validate(notBlank),
			huh.NewSelect[domain.GoalType]().Title("Measure").Options(typeOptions...).Value(g.formType),
			huh.NewInput().Title("Target").Value(g.formTarget).Validate(positiveInt),
			huh.NewSelect[domain.GoalPeriod]().Title("Period").Options(periodOptions...).Value(g.formPeriod),
		),
	).WithShowHelp(true).WithShowErrors(true)

	g.formActive = true
	return g, g.form.Init()
}

func positiveInt(s string) error {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err != nil || n < 1 {
		return fmt.Errorf("enter a whole number above zero")
	}
	return nil
}

func goalTypeLabel(t domain.GoalType) string {
	switch t {
	case domain.GoalTasksCompleted:
		return "tasks completed"
	case domain.GoalFocusMinutes:
		return "focus minutes"
	case domain.GoalPointsEarned:
		return "points earned"
	}
	return "custom"
}

func (g goalsModel) updateForm(msg tea.Msg) (goalsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			g.formActive = false
			g.form = nil
			return g, nil
		}
	}

	form, cmd := g.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		g.form = f
	}

	if g.form.State == huh.StateCompleted {
		g.formActive = false
		target, _ := strconv.Atoi(strings.TrimSpace(*g.formTarget))
		_, err := g.b.svc.Goals.CreateGoal(g.b.ctx(), g.b.userID, service.CreateGoalInput{
			WorkspaceID: g.b.workspaceID,
			Title:       *g.formTitle,
			Type:        *g.formType,
			TargetValue: target,
			Period:      *g.formPeriod,
		})
		if err != nil {
			return g, errCmd(err)
		}
		return g, g.refresh()
	}

	return g, cmd
}

func (g goalsModel) view() string {
	w := g.width - 4

	if g.formActive && g.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("New Goal"), "", g.form.View()),
		)
	}

	title := titleStyle.Render("Goals")
	if len(g.goals) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("No goals yet. Press n to set one."),
		))
	}

	rows := []string{title, ""}
	for i, goal := range g.goals {
		rows = append(rows, g.renderGoal(goal, i == g.cursor))
	}
	rows = append(rows, "", mutedStyle.Render("  n: new  t: pause/activate  d: delete"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (g goalsModel) renderGoal(goal domain.Goal, selected bool) string {
	cursor := "  "
	style := normalItemStyle
	if selected {
		cursor = "> "
		style = selectedItemStyle
	}
	head := style.Render(fmt.Sprintf("%s%-28s", cursor, goal.Title))
	period := mutedStyle.Render(fmt.Sprintf(" %s %s", strings.ToLower(string(goal.Period)), goalTypeLabel(goal.Type)))

	p, ok := g.progress[goal.ID]
	if !goal.IsActive || !ok {
		return head + period + mutedStyle.Render("  paused")
	}
	line := fmt.Sprintf(" %s %3d%%  %d/%d", progressBar(p.Percentage, 20), p.Percentage, p.Current, p.Target)
	if p.Achieved {
		line += successStyle.Render("  ✓ achieved")
	}
	return head + period + "\n" + "    " + line
}
