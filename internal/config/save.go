package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/scoutcon/internal/log"
)

const configHeader = `# scoutcon configuration
#
# Durations use Go syntax (50ms, 10s, 2m). launch.window_timeout: 0 waits
# for the game window indefinitely.
`

// DefaultConfigYAML renders Defaults() as YAML.
func DefaultConfigYAML() ([]byte, error) {
	d := Defaults()
	doc := map[string]any{
		"target": map[string]any{
			"window_title":    d.Target.WindowTitle,
			"launch_argument": d.Target.LaunchArgument,
		},
		"launch": map[string]any{
			"input_idle_timeout": d.Launch.InputIdleTimeout.String(),
			"poll_interval":      d.Launch.PollInterval.String(),
			"window_timeout":     d.Launch.WindowTimeout.String(),
		},
		"console": map[string]any{
			"tick_interval":   d.Console.TickInterval.String(),
			"log_buffer_size": d.Console.LogBufferSize,
			"prompt":          d.Console.Prompt,
			"transcript_path": d.Console.TranscriptPath,
		},
		"scout": map[string]any{
			"library": d.Scout.Library,
			"version": d.Scout.Version,
		},
		"history": map[string]any{
			"enabled": d.History.Enabled,
			"path":    d.History.Path,
		},
		"tracing": d.Tracing,
		"log": map[string]any{
			"path":  d.Log.Path,
			"level": d.Log.Level,
		},
	}

	var buf bytes.Buffer
	buf.WriteString(configHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding default config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding default config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteDefaultConfig writes the default config to configPath, creating the
// parent directory. An existing file is left alone.
func WriteDefaultConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	data, err := DefaultConfigYAML()
	if err != nil {
		return err
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
