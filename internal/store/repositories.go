package store

import "github.com/sadopc/worklog/internal/service"

// Repositories exposes the store as every repository the services use.
func (s *Store) Repositories() service.Repositories {
	return service.Repositories{
		Projects:    s,
		Tasks:       s,
		TimeEntries: s,
		Breaks:      s,
		Sessions:    s,
		Goals:       s,
		Points:      s,
		Scores:      s,
		Settings:    s,
	}
}
