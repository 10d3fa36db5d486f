package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/worklog/internal/domain"
	"github.com/sadopc/worklog/internal/engine"
)

// Data is everything an export can contain. Tasks resolves entry task ids to
// titles; entries whose task is missing are written as "Unknown".
type Data struct {
	Entries  []domain.TimeEntry
	Tasks    map[string]domain.Task
	Breaks   []domain.Break
	Sessions []domain.WorkSession
}

func (d Data) taskTitle(id string) string {
	if t, ok := d.Tasks[id]; ok {
		return t.Title
	}
	return "Unknown"
}

// ToCSV writes the time entries of d to path. Breaks and sessions are JSON only.
func ToCSV(d Data, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write([]string{"ID", "Task", "Start", "End", "Minutes", "Duration", "Notes"}); err != nil {
		return err
	}

	for _, e := range d.Entries {
		endStr := ""
		if e.EndedAt != nil {
			endStr = e.EndedAt.UTC().Format(time.RFC3339)
		}
		row := []string{
			e.ID,
			d.taskTitle(e.TaskID),
			e.StartedAt.UTC().Format(time.RFC3339),
			endStr,
			strconv.Itoa(engine.EntryMinutes(e)),
			formatDuration(entrySeconds(e)),
			e.Notes,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func entrySeconds(e domain.TimeEntry) int64 {
	if e.EndedAt == nil {
		return 0
	}
	return int64(e.EndedAt.Sub(e.StartedAt) / time.Second)
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
