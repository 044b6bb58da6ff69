// Package config provides configuration types and defaults for scoutcon.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/scoutcon/internal/log"
	"github.com/zjrosen/scoutcon/internal/tracing"
)

// Config holds all configuration options for scoutcon.
type Config struct {
	Target  TargetConfig   `mapstructure:"target"`
	Launch  LaunchConfig   `mapstructure:"launch"`
	Console ConsoleConfig  `mapstructure:"console"`
	Scout   ScoutConfig    `mapstructure:"scout"`
	History HistoryConfig  `mapstructure:"history"`
	Tracing tracing.Config `mapstructure:"tracing"`
	Log     LogConfig      `mapstructure:"log"`
}

// TargetConfig identifies the game client.
type TargetConfig struct {
	WindowTitle    string `mapstructure:"window_title"`    // exact top-level window title
	LaunchArgument string `mapstructure:"launch_argument"` // single argument passed on launch
}

// LaunchConfig tunes how long a launch may take.
type LaunchConfig struct {
	InputIdleTimeout time.Duration `mapstructure:"input_idle_timeout"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	// WindowTimeout bounds the wait for the game window. Zero waits forever.
	WindowTimeout time.Duration `mapstructure:"window_timeout"`
}

// ConsoleConfig tunes the interactive loop.
type ConsoleConfig struct {
	TickInterval   time.Duration `mapstructure:"tick_interval"`
	LogBufferSize  int           `mapstructure:"log_buffer_size"`
	Prompt         string        `mapstructure:"prompt"`
	TranscriptPath string        `mapstructure:"transcript_path"` // empty disables the transcript
}

// ScoutConfig locates the inspection library.
type ScoutConfig struct {
	Library string `mapstructure:"library"`
	Version int    `mapstructure:"version"`
}

// HistoryConfig controls the command history database.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig controls the debug log.
type LogConfig struct {
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"`
}

// DefaultConfigDir returns ~/.config/scoutcon, or "" without a home directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "scoutcon")
}

// DefaultHistoryPath returns ~/.config/scoutcon/history.db.
func DefaultHistoryPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "history.db")
}

// DefaultTracesFilePath returns ~/.config/scoutcon/traces/traces.jsonl.
func DefaultTracesFilePath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// Defaults returns a Config with the stock values.
func Defaults() Config {
	tr := tracing.DefaultConfig()
	tr.FilePath = DefaultTracesFilePath()

	return Config{
		Target: TargetConfig{
			WindowTitle:    "World of Warcraft",
			LaunchArgument: "-console",
		},
		Launch: LaunchConfig{
			InputIdleTimeout: 10 * time.Second,
			PollInterval:     time.Second,
			WindowTimeout:    0,
		},
		Console: ConsoleConfig{
			TickInterval:  50 * time.Millisecond,
			LogBufferSize: 64 * 1024,
			Prompt:        "> ",
		},
		Scout: ScoutConfig{
			Library: "scout.dll",
			Version: 110,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    DefaultHistoryPath(),
		},
		Tracing: tr,
		Log: LogConfig{
			Path:  "scoutcon.log",
			Level: "debug",
		},
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Target.WindowTitle == "" {
		errs = append(errs, errors.New("target.window_title must not be empty"))
	}
	if c.Launch.InputIdleTimeout <= 0 {
		errs = append(errs, fmt.Errorf("launch.input_idle_timeout must be positive, got %s", c.Launch.InputIdleTimeout))
	}
	if c.Launch.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("launch.poll_interval must be positive, got %s", c.Launch.PollInterval))
	}
	if c.Launch.WindowTimeout < 0 {
		errs = append(errs, fmt.Errorf("launch.window_timeout must not be negative, got %s", c.Launch.WindowTimeout))
	}
	if c.Console.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("console.tick_interval must be positive, got %s", c.Console.TickInterval))
	}
	if c.Console.LogBufferSize <= 0 {
		errs = append(errs, fmt.Errorf("console.log_buffer_size must be positive, got %d", c.Console.LogBufferSize))
	}
	if c.Scout.Library == "" {
		errs = append(errs, errors.New("scout.library must not be empty"))
	}
	if c.Scout.Version <= 0 {
		errs = append(errs, fmt.Errorf("scout.version must be positive, got %d", c.Scout.Version))
	}
	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, errors.New("history.path is required when history is enabled"))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if err := c.Tracing.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
