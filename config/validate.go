package config

import (
	"fmt"

	"burstfire-go/drivers/burstfire"
)

// maxClockHz is the I2C high-speed mode ceiling.
const maxClockHz = 3_400_000

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	b := cfg.Bus
	if b.Port < 0 {
		return fmt.Errorf("bus.port %d: must be >= 0", b.Port)
	}
	if b.SDA < 0 || b.SCL < 0 {
		return fmt.Errorf("bus.sda/bus.scl must be >= 0")
	}
	// Both zero means "use defaults".
	if b.SDA == b.SCL && b.SDA != 0 {
		return fmt.Errorf("bus.sda and bus.scl are both %d", b.SDA)
	}
	if b.ClockHz > maxClockHz {
		return fmt.Errorf("bus.clock_hz %d exceeds %d", b.ClockHz, maxClockHz)
	}
	if b.TimeoutMs < 0 {
		return fmt.Errorf("bus.timeout_ms %d: must be >= 0", b.TimeoutMs)
	}

	seen := make(map[uint8]bool, len(cfg.Devices))
	for _, a := range cfg.Devices {
		if !burstfire.InRange(a) {
			return fmt.Errorf("device %s outside %s..%s",
				burstfire.FormatAddress(a),
				burstfire.FormatAddress(burstfire.AddressFirst),
				burstfire.FormatAddress(burstfire.AddressLast))
		}
		if seen[a] {
			return fmt.Errorf("device %s listed twice", burstfire.FormatAddress(a))
		}
		seen[a] = true
	}

	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q: want debug, info, warn or error", cfg.LogLevel)
	}
	return nil
}
