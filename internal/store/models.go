package store

// DailySummary is the tracked time per project for one UTC day.
type DailySummary struct {
	Date         string
	ProjectID    string
	ProjectName  string
	ProjectColor string
	TotalSeconds int64
	EntryCount   int
}
