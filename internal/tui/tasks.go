package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/worklog/internal/domain"
	"github.com/sadopc/worklog/internal/service"
	"go.uber.org/zap"
)

var projectColors = []string{"#6C63FF", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71", "#E74C3C", "#9B59B6", "#3498DB"}

const (
	formProject = "project"
	formTask    = "task"
	formSubtask = "subtask"
)

// taskRow is one line of the task tree; sub-tasks follow their parent.
type taskRow struct {
	task  domain.Task
	depth int
}

// flattenTasks orders tasks as a tree: each root followed by its sub-tasks.
// Sub-tasks whose parent is not in the list are shown as roots.
func flattenTasks(tasks []domain.Task) []taskRow {
	present := make(map[string]bool, len(tasks))
	children := make(map[string][]domain.Task)
	for _, t := range tasks {
		present[t.ID] = true
	}
	for _, t := range tasks {
		if t.ParentTaskID != nil && present[*t.ParentTaskID] {
			children[*t.ParentTaskID] = append(children[*t.ParentTaskID], t)
		}
	}

	rows := make([]taskRow, 0, len(tasks))
	for _, t := range tasks {
		if t.ParentTaskID != nil && present[*t.ParentTaskID] {
			continue
		}
		rows = append(rows, taskRow{task: t})
		for _, c := range children[t.ID] {
			rows = append(rows, taskRow{task: c, depth: 1})
		}
	}
	return rows
}

type tasksModel struct {
	b      backend
	width  int
	height int

	projects     []domain.Project
	rows         []taskRow
	cursor       int
	taskCursor   int
	showArchived bool
	viewingTasks bool // true = viewing tasks of selected project

	formActive bool
	form       *huh.Form
	formType   string
	parentID   string

	// Form field pointers (survive value copies)
	formName       *string
	formColor      *string
	formKind       *string
	formDifficulty *domain.Difficulty
	formEstimate   *string
}

func newTasksModel(b backend) tasksModel {
	name, color, kind, est := "", projectColors[0], "", ""
	diff := domain.DifficultyMedium
	return tasksModel{
		b:              b,
		formName:       &name,
		formColor:      &color,
		formKind:       &kind,
		formDifficulty: &diff,
		formEstimate:   &est,
	}
}

func (p *tasksModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type projectsDataMsg struct {
	projects []domain.Project
}

type tasksDataMsg struct {
	tasks []domain.Task
}

func (p tasksModel) refresh() tea.Cmd {
	b, archived := p.b, p.showArchived
	return func() tea.Msg {
		projects, err := b.svc.Projects.ListProjects(b.ctx(), b.userID, archived)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return projectsDataMsg{projects: projects}
	}
}

func (p tasksModel) refreshTasks() tea.Cmd {
	proj, ok := p.selectedProject()
	if !ok {
		return nil
	}
	b := p.b
	return func() tea.Msg {
		tasks, err := b.svc.Tasks.ListTasks(b.ctx(), b.userID, proj.ID)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return tasksDataMsg{tasks: tasks}
	}
}

func (p tasksModel) selectedProject() (domain.Project, bool) {
	if p.cursor >= len(p.projects) {
		return domain.Project{}, false
	}
	return p.projects[p.cursor], true
}

func (p tasksModel) selectedTask() (domain.Task, bool) {
	if p.taskCursor >= len(p.rows) {
		return domain.Task{}, false
	}
	return p.rows[p.taskCursor].task, true
}

func (p tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case projectsDataMsg:
		p.projects = msg.projects
		if p.cursor >= len(p.projects) {
			p.cursor = max(0, len(p.projects)-1)
		}
		return p, nil

	case tasksDataMsg:
		p.rows = flattenTasks(msg.tasks)
		if p.taskCursor >= len(p.rows) {
			p.taskCursor = max(0, len(p.rows)-1)
		}
		return p, nil

	case tea.KeyMsg:
		if p.viewingTasks {
			return p.updateTaskView(msg)
		}
		return p.updateProjectList(msg)
	}
	return p, nil
}

func (p tasksModel) updateProjectList(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < len(p.projects)-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(p.projects) > 0 {
			p.viewingTasks = true
			p.taskCursor = 0
			return p, p.refreshTasks()
		}
	case key.Matches(msg, keys.New):
		return p.showProjectForm()
	case key.Matches(msg, keys.Delete):
		if proj, ok := p.selectedProject(); ok {
			if _, err := p.b.svc.Projects.SetArchived(p.b.ctx(), p.b.userID, proj.ID, !proj.Archived); err != nil {
				return p, errCmd(err)
			}
			return p, p.refresh()
		}
	case key.Matches(msg, keys.Toggle):
		p.showArchived = !p.showArchived
		return p, p.refresh()
	}
	return p, nil
}

func (p tasksModel) updateTaskView(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		p.viewingTasks = false
		return p, nil
	case key.Matches(msg, keys.Up):
		if p.taskCursor > 0 {
			p.taskCursor--
		}
	case key.Matches(msg, keys.Down):
		if p.taskCursor < len(p.rows)-1 {
			p.taskCursor++
		}
	case key.Matches(msg, keys.New):
		return p.showTaskForm(formTask, "")
	case key.Matches(msg, keys.Sub):
		if t, ok := p.selectedTask(); ok {
			return p.showTaskForm(formSubtask, t.ID)
		}
	case key.Matches(msg, keys.Inc):
		return p.bumpProgress(10)
	case key.Matches(msg, keys.Dec):
		return p.bumpProgress(-10)
	case key.Matches(msg, keys.Complete):
		if t, ok := p.selectedTask(); ok {
			text, err := p.completeTask(t.ID)
			if err != nil {
				return p, errCmd(err)
			}
			return p, tea.Batch(statusCmd(text), p.refreshTasks())
		}
	case key.Matches(msg, keys.Delete):
		if t, ok := p.selectedTask(); ok {
			if err := p.b.svc.Tasks.DeleteTask(p.b.ctx(), p.b.userID, t.ID); err != nil {
				return p, errCmd(err)
			}
			return p, p.refreshTasks()
		}
	}
	return p, nil
}

func (p tasksModel) bumpProgress(delta int) (tasksModel, tea.Cmd) {
	t, ok := p.selectedTask()
	if !ok {
		return p, nil
	}
	if p.hasSubtasks(t.ID) {
		return p, statusCmd("Progress of a parent follows its sub-tasks")
	}
	progress := clamp(t.Progress+delta, 0, 100)
	if progress == t.Progress {
		return p, nil
	}
	in := service.UpdateTaskInput{Progress: &progress}
	if t.Status == domain.StatusBacklog || t.Status == domain.StatusTodo {
		status := domain.StatusInProgress
		in.Status = &status
	}
	if _, err := p.b.svc.Tasks.UpdateTask(p.b.ctx(), p.b.userID, t.ID, in); err != nil {
		return p, errCmd(err)
	}
	return p, p.refreshTasks()
}

func (p tasksModel) hasSubtasks(id string) bool {
	for _, r := range p.rows {
		if r.task.ParentTaskID != nil && *r.task.ParentTaskID == id {
			return true
		}
	}
	return false
}

// completeTask completes a task and credits its score to the points
// ledger. A task is credited at most once even if it is reopened.
func (p tasksModel) completeTask(id string) (string, error) {
	b := p.b
	ctx := b.ctx()
	t, err := b.svc.Tasks.CompleteTask(ctx, b.userID, id)
	if err != nil {
		return "", err
	}
	credited, err := b.store.HasPointsForTask(ctx, t.ID)
	if err != nil {
		return "", err
	}
	if credited {
		return fmt.Sprintf("Completed %q", t.Title), nil
	}
	score, err := b.svc.Scores.TaskScore(ctx, b.userID, t.ID, b.now())
	if err != nil {
		return "", err
	}
	taskID := t.ID
	if _, err := b.store.AddPoints(ctx, domain.PointsLedgerEntry{
		UserID:    b.userID,
		Points:    score.TotalPoints,
		Reason:    "task completed: " + t.Title,
		TaskID:    &taskID,
		CreatedAt: b.now(),
	}); err != nil {
		return "", err
	}
	b.log.Info("points awarded", zap.String("user_id", b.userID), zap.String("task_id", t.ID),
		zap.Int("points", score.TotalPoints))
	return fmt.Sprintf("Completed %q  +%d pts", t.Title, score.TotalPoints), nil
}

func (p tasksModel) showProjectForm() (tasksModel, tea.Cmd) {
	*p.formName = ""
	*p.formColor = projectColors[0]
	p.formType = formProject

	colorOptions := make([]huh.Option[string], len(projectColors))
	for i, c := range projectColors {
		colorOptions[i] = huh.NewOption(fmt.Sprintf("● %s", c), c)
	}

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Project Name").Value(p.formName).Validate(notBlank),
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(p.formColor),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p tasksModel) showTaskForm(kind, parentID string) (tasksModel, tea.Cmd) {
	*p.formName = ""
	*p.formKind = ""
	*p.formDifficulty = domain.DifficultyMedium
	if v, err := p.b.store.GetSetting(p.b.ctx(), settingDefaultDifficulty); err == nil && domain.Difficulty(v).Valid() {
		*p.formDifficulty = domain.Difficulty(v)
	}
	*p.formEstimate = ""
	p.formType = kind
	p.parentID = parentID

	diffOptions := make([]huh.Option[domain.Difficulty], len(domain.Difficulties))
	for i, d := range domain.Difficulties {
		diffOptions[i] = huh.NewOption(strings.ToLower(string(d)), d)
	}

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(p.formName).Validate(notBlank),
			huh.NewInput().Title("Type (e.g. coding, writing)").Value(p.formKind),
			huh.NewSelect[domain.Difficulty]().Title("Difficulty").Options(diffOptions...).Value(p.formDifficulty),
			huh.NewInput().Title("Estimate (min, optional)").Value(p.formEstimate).Validate(optionalMinutes),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func notBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	return nil
}

func optionalMinutes(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err != nil || n < 1 {
		return errors.New("enter a positive number of minutes")
	}
	return nil
}

func (p tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		if p.formType == formProject {
			return p, tea.Batch(p.submitProject(), p.refresh())
		}
		return p, tea.Batch(p.submitTask(), p.refreshTasks())
	}

	return p, cmd
}

func (p tasksModel) submitProject() tea.Cmd {
	_, err := p.b.svc.Projects.CreateProject(p.b.ctx(), p.b.userID, service.CreateProjectInput{
		Name:  *p.formName,
		Color: *p.formColor,
	})
	if err != nil {
		return errCmd(err)
	}
	return nil
}

func (p tasksModel) submitTask() tea.Cmd {
	in := service.CreateTaskInput{
		Title:      *p.formName,
		Type:       *p.formKind,
		Difficulty: *p.formDifficulty,
	}
	if n, err := strconv.Atoi(strings.TrimSpace(*p.formEstimate)); err == nil {
		in.EstimatedMinutes = &n
	}
	if p.formType == formSubtask {
		parent := p.parentID
		in.ParentTaskID = &parent
	} else if proj, ok := p.selectedProject(); ok {
		in.ProjectID = proj.ID
	}
	if _, err := p.b.svc.Tasks.CreateTask(p.b.ctx(), p.b.userID, in); err != nil {
		return errCmd(err)
	}
	return nil
}

func (p tasksModel) view() string {
	if p.formActive && p.form != nil {
		var title string
		switch p.formType {
		case formProject:
			title = "New Project"
		case formSubtask:
			title = "New Sub-task"
		default:
			title = "New Task"
		}
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", p.form.View())
		return panelStyle.Width(p.width - 4).Render(content)
	}

	if p.viewingTasks {
		return p.renderTaskView()
	}
	return p.renderProjectList()
}

func (p tasksModel) renderProjectList() string {
	w := p.width - 4
	title := titleStyle.Render("Projects")
	if p.showArchived {
		title += mutedStyle.Render("  (including archived)")
	}

	if len(p.projects) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No projects yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title, ""}
	for i, proj := range p.projects {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(proj.Color)).Render("●")
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		row := style.Render(fmt.Sprintf("%s%s %-28s", cursor, colorDot, proj.Name))
		if proj.Archived {
			row += mutedStyle.Render(" archived")
		}
		rows = append(rows, row)
	}

	rows = append(rows, "", mutedStyle.Render("  n: new  d: archive/restore  t: show archived  enter: tasks"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (p tasksModel) renderTaskView() string {
	w := p.width - 4
	proj, _ := p.selectedProject()
	colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(proj.Color)).Render("●")
	title := titleStyle.Render(fmt.Sprintf("%s %s / Tasks", colorDot, proj.Name))

	if len(p.rows) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tasks. Press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title, ""}
	for i, r := range p.rows {
		rows = append(rows, p.renderTaskRow(r, i == p.taskCursor))
	}

	rows = append(rows, "", mutedStyle.Render("  n: new  a: sub-task  +/-: progress  c: complete  d: delete  esc: back"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (p tasksModel) renderTaskRow(r taskRow, selected bool) string {
	t := r.task
	cursor := "  "
	style := normalItemStyle
	if selected {
		cursor = "> "
		style = selectedItemStyle
	} else if t.Status == domain.StatusCompleted {
		style = doneItemStyle
	}
	name := t.Title
	if r.depth > 0 {
		name = "└ " + name
	}
	label := style.Render(fmt.Sprintf("%s%s%-30s", cursor, strings.Repeat("  ", r.depth), name))

	meta := fmt.Sprintf(" %3d%% %-8s %-11s", t.Progress, strings.ToLower(string(t.Difficulty)), strings.ToLower(string(t.Status)))
	if t.EstimatedMinutes != nil {
		meta += fmt.Sprintf(" %s/%s", formatMinutes(t.ActualMinutes), formatMinutes(*t.EstimatedMinutes))
	} else if t.ActualMinutes > 0 {
		meta += " " + formatMinutes(t.ActualMinutes)
	}
	return label + " " + progressBar(t.Progress, 10) + mutedStyle.Render(meta)
}
