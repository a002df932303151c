// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

// Package config provides layered configuration loading for Callograph.
//
// Configuration is resolved in three layers with clear precedence:
//
//	environment variables > config file > struct defaults
//
// The config file is YAML, searched at config.yaml, config.yml,
// /etc/callograph/config.yaml, or the path in CONFIG_PATH. Environment
// variables use the CALLOGRAPH_ prefix: CALLOGRAPH_SYNC_USER_DELAY maps to
// sync.user_delay, CALLOGRAPH_AGENTS_HOSPITAL to agents.hospital.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig      `koanf:"server"`
	Database DatabaseConfig    `koanf:"database"`
	Agents   map[string]string `koanf:"agents" validate:"dive,url"`
	Sync     SyncConfig        `koanf:"sync"`
	Logging  LoggingConfig     `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	Timeout         time.Duration `koanf:"timeout"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gte=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory"`
	// Threads is the DuckDB thread count; 0 means runtime.NumCPU().
	Threads int `koanf:"threads" validate:"gte=0"`
}

// SyncConfig holds ingestion pipeline settings.
//
// The agent URL table lives in Config.Agents rather than here: it is injected
// configuration loaded once at process start, never a package-level constant.
type SyncConfig struct {
	// Enabled controls whether the scheduled bulk sync runs at all. Manual
	// sync via the API works regardless.
	Enabled bool `koanf:"enabled"`

	// Schedule is a standard 5-field cron expression for bulk sync runs.
	Schedule string `koanf:"schedule" validate:"required"`

	// SyncOnStart triggers one bulk run immediately on startup.
	SyncOnStart bool `koanf:"sync_on_start"`

	// UserDelay paces bulk sync between users to bound the outbound request
	// rate against agent servers. This serialization is deliberate
	// backpressure, not an accident.
	UserDelay time.Duration `koanf:"user_delay" validate:"gte=0"`

	// HTTPTimeout bounds each agent request. The upstream this pipeline was
	// ported from had no timeout; a hung agent stalled the whole run.
	HTTPTimeout time.Duration `koanf:"http_timeout" validate:"gt=0"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied. These are layer
// one of the load; file and environment override them.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8480,
			Timeout:         30 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			Path:      "/data/callograph.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Agents: map[string]string{},
		Sync: SyncConfig{
			Enabled:     true,
			Schedule:    "0 * * * *",
			SyncOnStart: true,
			UserDelay:   time.Second,
			HTTPTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration for structural and semantic errors.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := cron.ParseStandard(c.Sync.Schedule); err != nil {
		return fmt.Errorf("invalid sync.schedule %q: %w", c.Sync.Schedule, err)
	}

	for name := range c.Agents {
		if name == "" {
			return fmt.Errorf("agent with empty name configured")
		}
	}

	return nil
}
