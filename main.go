package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sadopc/worklog/internal/config"
	"github.com/sadopc/worklog/internal/logging"
	"github.com/sadopc/worklog/internal/service"
	"github.com/sadopc/worklog/internal/store"
	"github.com/sadopc/worklog/internal/tui"
)

func main() {
	cfg, err := config.FromArgs(os.Args[1:], os.Getenv, os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	log, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer log.Sync()

	s, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	svc := service.New(s.Repositories(), log, service.WithTrendWindow(cfg.TrendWindowDays))

	sched := service.NewScheduler(svc.Scores, log.Named("scheduler"))
	if _, err := sched.ScheduleDailySnapshot(cfg.SnapshotSchedule, cfg.UserID); err != nil {
		return fmt.Errorf("schedule snapshot: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	log.Info("starting", zap.String("user_id", cfg.UserID), zap.String("db", cfg.DBPath))

	p := tea.NewProgram(tui.NewApp(s, svc, cfg, log), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
