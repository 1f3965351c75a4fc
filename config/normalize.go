package config

import "slices"

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	b := &cfg.Bus
	if b.ClockHz == 0 {
		b.ClockHz = DefaultClockHz
	}
	if b.TimeoutMs == 0 {
		b.TimeoutMs = DefaultTimeoutMs
	}
	if b.SDA == 0 && b.SCL == 0 {
		b.SDA, b.SCL = DefaultSDA, DefaultSCL
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	slices.Sort(cfg.Devices)
}
