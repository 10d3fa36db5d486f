package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/worklog/internal/domain"
	"github.com/sadopc/worklog/internal/engine"
	"github.com/sadopc/worklog/internal/service"
	"github.com/sadopc/worklog/internal/store"
)

const reportDays = 7

type reportsModel struct {
	b      backend
	width  int
	height int

	offset int // 7-day blocks back from today (0 = current)

	scores    map[string]int // date -> points
	report    *service.DailyReport
	summaries []store.DailySummary

	chart barchart.Model
}

func newReportsModel(b backend) reportsModel {
	return reportsModel{
		b:     b,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	scores    map[string]int
	report    *service.DailyReport
	summaries []store.DailySummary
}

// dateRange returns the first and last day shown, both inclusive.
func (r reportsModel) dateRange() (time.Time, time.Time) {
	today, _ := dayBounds(r.b.now())
	last := today.AddDate(0, 0, -reportDays*r.offset)
	return last.AddDate(0, 0, -(reportDays - 1)), last
}

func (r reportsModel) refresh() tea.Cmd {
	b := r.b
	first, last := r.dateRange()
	return func() tea.Msg {
		ctx := b.ctx()
		lastDate := last.Format(domain.DateLayout)

		history, err := b.svc.Scores.History(ctx, b.userID, lastDate, reportDays)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		scores := make(map[string]int, len(history))
		for _, h := range history {
			scores[h.Date] = h.TotalPoints
		}

		// The last day of the range is scored live; today has no snapshot
		// until the scheduler records one.
		report, err := b.svc.Scores.DailyScore(ctx, b.userID, lastDate)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		scores[report.Date] = report.TotalPoints

		summaries, err := b.store.GetDailySummary(ctx, b.userID, first, last.AddDate(0, 0, 1))
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return reportsDataMsg{scores: scores, report: report, summaries: summaries}
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.scores = msg.scores
		r.report = msg.report
		r.summaries = msg.summaries
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := max(r.width-8, 20)
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	first, last := r.dateRange()
	bar := lipgloss.NewStyle().Foreground(colorPrimary)
	empty := lipgloss.NewStyle().Foreground(colorSubtle)

	var bars []barchart.BarData
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		pts := r.scores[d.Format(domain.DateLayout)]
		style := bar
		if pts == 0 {
			style = empty
		}
		bars = append(bars, barchart.BarData{
			Label:  d.Format("Mon 02"),
			Values: []barchart.BarValue{{Name: "points", Value: float64(pts), Style: style}},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	first, last := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s", first.Format("Jan 02"), last.Format("Jan 02, 2006")))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom, titleStyle.Render("Daily Score"), "  ", dateLabel)

	nav := mutedStyle.Render("  ←/→: previous/next week")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "",
			r.renderTrend(), "",
			r.renderEfficiency(), "",
			r.renderSummaryTable(w), "",
			nav,
		),
	)
}

func (r reportsModel) renderTrend() string {
	if r.report == nil {
		return ""
	}
	rep := r.report
	return fmt.Sprintf("  %s %s  %s",
		highlightStyle.Render(rep.Date),
		highlightStyle.Render(fmt.Sprintf("%d pts", rep.TotalPoints)),
		trendStyle(rep.Label.Direction).Render(fmt.Sprintf("%+d%% vs %.1f avg  %s", rep.Label.Percent, rep.Average, rep.Label.Message)),
	)
}

func (r reportsModel) renderEfficiency() string {
	if r.report == nil || len(r.report.Tasks) == 0 {
		return mutedStyle.Render("  No tasks completed on " + r.dateLabel())
	}

	rows := []string{mutedStyle.Render(fmt.Sprintf("  %-28s %6s %6s %6s  %s", "Completed", "Est", "Actual", "Pts", "Efficiency"))}
	for i, t := range r.report.Tasks {
		est := "-"
		if t.EstimatedMinutes != nil {
			est = formatMinutes(*t.EstimatedMinutes)
		}
		ratio := engine.CalculateEfficiency(t)
		pts := 0
		if i < len(r.report.Lines) {
			pts = r.report.Lines[i].TotalPoints
		}
		rows = append(rows, fmt.Sprintf("  %-28s %6s %6s %6d  %.2f %s",
			t.Title, est, formatMinutes(t.ActualMinutes), pts, ratio, engine.EfficiencyLabel(ratio)))
	}
	return strings.Join(rows, "\n")
}

func (r reportsModel) dateLabel() string {
	_, last := r.dateRange()
	return last.Format("Jan 02")
}

func (r reportsModel) renderSummaryTable(w int) string {
	if len(r.summaries) == 0 {
		return mutedStyle.Render("  No time tracked in this period")
	}

	rows := []string{
		mutedStyle.Render(fmt.Sprintf("  %-12s %-20s %10s %8s", "Date", "Project", "Duration", "Entries")),
		mutedStyle.Render("  " + strings.Repeat("─", min(w-6, 54))),
	}
	for _, s := range r.summaries {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(s.ProjectColor)).Render("●")
		rows = append(rows, fmt.Sprintf("  %-12s %s %-18s %10s %8d",
			s.Date, colorDot, s.ProjectName, formatSeconds(s.TotalSeconds), s.EntryCount))
	}
	return strings.Join(rows, "\n")
}
