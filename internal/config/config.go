// Package config loads worklog settings.
//
// Values are layered: built-in defaults, then the YAML file, then WORKLOG_*
// environment variables, then command-line flags. A later layer only
// overrides what it actually sets.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/worklog/internal/service"
)

const (
	DefaultTrendWindowDays = 7
	maxTrendWindowDays     = 90
)

type Config struct {
	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path"`

	// UserID and WorkspaceID identify whose records the client works on.
	UserID      string `yaml:"user_id"`
	WorkspaceID string `yaml:"workspace_id"`

	// LogLevel is a zap level name. LogFile empty disables logging, since
	// the terminal belongs to the TUI.
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// SnapshotSchedule is a six-field cron expression (with seconds) in UTC.
	SnapshotSchedule string `yaml:"snapshot_schedule"`

	// TrendWindowDays is used when no trend_window_days setting is stored.
	TrendWindowDays int `yaml:"trend_window_days"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		cfgDir = "."
	}
	user := os.Getenv("USER")
	if user == "" {
		user = "local"
	}
	return &Config{
		DBPath:           filepath.Join(cfgDir, "worklog", "worklog.db"),
		UserID:           user,
		WorkspaceID:      "default",
		LogLevel:         "info",
		SnapshotSchedule: service.DefaultSnapshotSchedule,
		TrendWindowDays:  DefaultTrendWindowDays,
	}
}

// DefaultPath returns ~/.config/worklog/config.yaml
func DefaultPath() (string, error) {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, "worklog", "config.yaml"), nil
}

// LoadFile merges the YAML file at path into c. A missing file is an error
// only when required is set.
func (c *Config) LoadFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

var envVars = map[string]func(*Config, string){
	"WORKLOG_DB":        func(c *Config, v string) { c.DBPath = v },
	"WORKLOG_USER":      func(c *Config, v string) { c.UserID = v },
	"WORKLOG_WORKSPACE": func(c *Config, v string) { c.WorkspaceID = v },
	"WORKLOG_LOG_LEVEL": func(c *Config, v string) { c.LogLevel = v },
	"WORKLOG_LOG_FILE":  func(c *Config, v string) { c.LogFile = v },
}

// ApplyEnv overrides fields from the WORKLOG_* variables that are set.
func (c *Config) ApplyEnv(getenv func(string) string) {
	for name, set := range envVars {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			set(c, v)
		}
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("db_path must not be empty")
	}
	if strings.TrimSpace(c.UserID) == "" {
		return errors.New("user_id must not be empty")
	}
	if strings.TrimSpace(c.WorkspaceID) == "" {
		return errors.New("workspace_id must not be empty")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if _, err := ParseSchedule(c.SnapshotSchedule); err != nil {
		return fmt.Errorf("snapshot_schedule %q: %w", c.SnapshotSchedule, err)
	}
	if c.TrendWindowDays < 1 || c.TrendWindowDays > maxTrendWindowDays {
		return fmt.Errorf("trend_window_days must be between 1 and %d", maxTrendWindowDays)
	}
	return nil
}

// ParseSchedule parses a cron expression the way the snapshot scheduler does.
func ParseSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return parser.Parse(expr)
}

// FromArgs builds the configuration for a command line. It returns
// pflag.ErrHelp when help was requested; usage has then been written to out.
func FromArgs(args []string, getenv func(string) string, out io.Writer) (*Config, error) {
	flags := pflag.NewFlagSet("worklog", pflag.ContinueOnError)
	flags.SetOutput(out)
	configPath := flags.String("config", "", "path to config.yaml (default ~/.config/worklog/config.yaml)")
	db := flags.String("db", "", "path to the SQLite database")
	user := flags.String("user", "", "user id to track for")
	workspace := flags.String("workspace", "", "workspace id for work sessions and goals")
	logLevel := flags.String("log-level", "", "log level (debug, info, warn, error)")
	logFile := flags.String("log-file", "", "write JSON logs to this file")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", flags.Arg(0))
	}

	cfg := Default()
	path, required := *configPath, true
	if path == "" {
		path, required = getenv("WORKLOG_CONFIG"), true
	}
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path, required = p, false
	}
	if err := cfg.LoadFile(path, required); err != nil {
		return nil, err
	}
	cfg.ApplyEnv(getenv)

	for _, f := range []struct {
		name     string
		src, dst *string
	}{
		{"db", db, &cfg.DBPath},
		{"user", user, &cfg.UserID},
		{"workspace", workspace, &cfg.WorkspaceID},
		{"log-level", logLevel, &cfg.LogLevel},
		{"log-file", logFile, &cfg.LogFile},
	} {
		if flags.Changed(f.name) {
			*f.dst = *f.src
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
