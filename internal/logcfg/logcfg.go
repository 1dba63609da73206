// Package logcfg builds the zerolog logger shared by cidnet binaries.
package logcfg

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

const envConfigPath = "CIDNET_LOG_CONFIG"

// Config is the file-backed logging configuration.
type Config struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"` // "console" or "json"
	Timestamps bool   `toml:"timestamps"`
}

func DefaultConfig() Config {
	return Config{Level: "info", Format: "console"}
}

// ConfigFromFile decodes a TOML file over the defaults.
func ConfigFromFile(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Level)); err != nil {
		return fmt.Errorf("logcfg: invalid level %q", c.Level)
	}
	switch c.Format {
	case "", "console", "json":
		return nil
	default:
		return fmt.Errorf("logcfg: invalid format %q", c.Format)
	}
}

// Load returns file-backed logging configuration when available, otherwise defaults.
func Load() Config {
	if path := os.Getenv(envConfigPath); path != "" {
		if cfg, err := ConfigFromFile(path); err == nil {
			return cfg
		}
	}

	candidates := []string{
		"./cidnet.log.toml",
		"./local/cidnet.log.toml",
	}

	for _, path := range candidates {
		if cfg, err := ConfigFromFile(path); err == nil {
			return cfg
		}
	}

	return DefaultConfig()
}

// New builds a logger writing to w. Invalid levels fall back to info.
func New(cfg Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	if cfg.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true, PartsExclude: timestampPart(cfg)}
	}
	ctx := zerolog.New(w).Level(level).With()
	if cfg.Timestamps {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

func timestampPart(cfg Config) []string {
	if cfg.Timestamps {
		return nil
	}
	return []string{zerolog.TimestampFieldName}
}
