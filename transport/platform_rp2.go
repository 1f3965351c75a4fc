//go:build rp2040 || rp2350

package transport

import (
	"machine"

	"burstfire-go/drivers/burstfire"
	"burstfire-go/errcode"

	"tinygo.org/x/drivers"
)

// Platform returns the RP2 backend: machine.I2C0 (port 0) or machine.I2C1
// (port 1) on the configured SDA/SCL pins and clock.
func Platform(opts ...Option) *Tx {
	return New(openRP2, opts...)
}

func openRP2(cfg burstfire.BusConfig) (drivers.I2C, func() error, error) {
	var hw *machine.I2C
	switch cfg.Port {
	case 0:
		hw = machine.I2C0
	case 1:
		hw = machine.I2C1
	default:
		return nil, nil, errcode.UnknownBus
	}
	sda := machine.Pin(cfg.SDA)
	scl := machine.Pin(cfg.SCL)
	sda.Configure(machine.PinConfig{Mode: machine.PinI2C})
	scl.Configure(machine.PinConfig{Mode: machine.PinI2C})
	if err := hw.Configure(machine.I2CConfig{
		SDA:       sda,
		SCL:       scl,
		Frequency: cfg.ClockHz,
	}); err != nil {
		return nil, nil, err
	}
	release := func() error {
		// Hand the pins back as plain inputs.
		sda.Configure(machine.PinConfig{Mode: machine.PinInput})
		scl.Configure(machine.PinConfig{Mode: machine.PinInput})
		return nil
	}
	return hw, release, nil
}
