// Package config loads the YAML configuration of the burstfire tools.
//
// The flow is Load -> Validate -> Normalize. Validate is declarative and never
// mutates; Normalize fills defaults and must run after Validate.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"burstfire-go/drivers/burstfire"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Normalize.
const (
	DefaultClockHz   = 100_000
	DefaultTimeoutMs = 100
	DefaultSDA       = 2 // Raspberry Pi header I2C1
	DefaultSCL       = 3
	DefaultLogLevel  = "info"
)

type Config struct {
	Bus      BusConfig `yaml:"bus"`
	Devices  []uint8   `yaml:"devices"` // empty => scan
	LogLevel string    `yaml:"log_level"`
}

// ---- BUS ----

type BusConfig struct {
	Port      int    `yaml:"port"`
	Name      string `yaml:"name"` // optional bus name override (Linux)
	SDA       int    `yaml:"sda"`
	SCL       int    `yaml:"scl"`
	ClockHz   uint32 `yaml:"clock_hz"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// Driver returns the driver-side bus configuration.
func (b BusConfig) Driver() burstfire.BusConfig {
	return burstfire.BusConfig{Port: b.Port, SDA: b.SDA, SCL: b.SCL, ClockHz: b.ClockHz}
}

// Timeout returns the per-transaction bound.
func (b BusConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

// Default returns a normalized configuration for bus 1 with no file.
func Default() *Config {
	cfg := &Config{Bus: BusConfig{Port: 1}}
	Normalize(cfg)
	return cfg
}

// Load reads and decodes path. It does not validate.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML document. Unknown keys are rejected; an empty
// document yields the zero Config.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// SlogLevel maps LogLevel to a slog level; unknown values map to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
