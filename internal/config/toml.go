// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Analyze AnalyzeConfig `toml:"analyze"`
	Queue   QueueConfig   `toml:"queue"`
	Report  ReportConfig  `toml:"report"`
	Sample  SampleConfig  `toml:"sample"`
}

// AnalyzeConfig maps corpus scoring settings.
type AnalyzeConfig struct {
	ChunkSize   *int    `toml:"chunk-size"`
	Strategy    *string `toml:"strategy"`
	Workers     *int    `toml:"workers"`
	Layouts     *string `toml:"layouts"`
	MaxAttempts *int    `toml:"max-attempts"`
	// Timeout is a Go duration string such as "30s".
	Timeout *string `toml:"timeout"`
}

// QueueConfig maps the Redis broker and partial store settings.
type QueueConfig struct {
	RedisAddr     *string `toml:"redis-addr"`
	RedisPassword *string `toml:"redis-password"`
	RedisDB       *int    `toml:"redis-db"`
	Prefix        *string `toml:"prefix"`
}

// ReportConfig maps report rendering settings.
type ReportConfig struct {
	CurveWindow *int `toml:"curve-window"`
}

// SampleConfig maps sample corpus generation settings.
type SampleConfig struct {
	Words    *int     `toml:"words"`
	CapsPct  *float64 `toml:"caps"`
	PunctPct *float64 `toml:"punct"`
	PunctSet *string  `toml:"punct-set"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
