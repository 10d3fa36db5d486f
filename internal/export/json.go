package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/worklog/internal/engine"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	Count      int           `json:"count"`
	Entries    []jsonEntry   `json:"entries"`
	Breaks     []jsonBreak   `json:"breaks"`
	Sessions   []jsonSession `json:"sessions"`
}

type jsonEntry struct {
	ID          string `json:"id"`
	Task        string `json:"task"`
	TaskID      string `json:"task_id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	Minutes     int    `json:"minutes"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
	Notes       string `json:"notes,omitempty"`
}

type jsonBreak struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time,omitempty"`
	Minutes   *int   `json:"minutes,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type jsonSession struct {
	ID            string `json:"id"`
	WorkspaceID   string `json:"workspace_id"`
	Date          string `json:"date"`
	Status        string `json:"status"`
	ClockedIn     string `json:"clocked_in"`
	ClockedOut    string `json:"clocked_out,omitempty"`
	PausedMinutes int    `json:"paused_minutes"`
}

func rfc3339(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ToJSON writes d to path as indented JSON. Empty sections are written as [].
func ToJSON(d Data, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(d.Entries),
		Entries:    make([]jsonEntry, 0, len(d.Entries)),
		Breaks:     make([]jsonBreak, 0, len(d.Breaks)),
		Sessions:   make([]jsonSession, 0, len(d.Sessions)),
	}

	for _, e := range d.Entries {
		secs := entrySeconds(e)
		export.Entries = append(export.Entries, jsonEntry{
			ID:          e.ID,
			Task:        d.taskTitle(e.TaskID),
			TaskID:      e.TaskID,
			StartTime:   rfc3339(&e.StartedAt),
			EndTime:     rfc3339(e.EndedAt),
			Minutes:     engine.EntryMinutes(e),
			DurationSec: secs,
			Duration:    formatDuration(secs),
			Notes:       e.Notes,
		})
	}

	for _, b := range d.Breaks {
		export.Breaks = append(export.Breaks, jsonBreak{
			ID:        b.ID,
			Type:      string(b.Type),
			StartTime: rfc3339(&b.StartedAt),
			EndTime:   rfc3339(b.EndedAt),
			Minutes:   b.DurationMinutes,
			Notes:     b.Notes,
		})
	}

	for _, s := range d.Sessions {
		export.Sessions = append(export.Sessions, jsonSession{
			ID:            s.ID,
			WorkspaceID:   s.WorkspaceID,
			Date:          s.Date,
			Status:        string(s.Status),
			ClockedIn:     rfc3339(&s.ClockedInAt),
			ClockedOut:    rfc3339(s.ClockedOutAt),
			PausedMinutes: s.PausedMinutes,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
