//go:build !rp2040 && !rp2350

package transport

import (
	"fmt"
	"strconv"

	"burstfire-go/drivers/burstfire"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"
)

// Platform returns the host backend: a Linux i2c-dev bus opened through
// periph.io. Port N selects bus "N" (/dev/i2c-N) unless WithBusName is given.
// SDA and SCL are fixed by the board on Linux and are not reconfigured.
func Platform(opts ...Option) *Tx {
	t := New(nil, opts...)
	t.open = openPeriph(t.busName)
	return t
}

func openPeriph(name string) Opener {
	return func(cfg burstfire.BusConfig) (drivers.I2C, func() error, error) {
		if _, err := host.Init(); err != nil {
			return nil, nil, fmt.Errorf("periph host init: %w", err)
		}
		busName := name
		if busName == "" {
			busName = strconv.Itoa(cfg.Port)
		}
		bus, err := i2creg.Open(busName)
		if err != nil {
			return nil, nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
		}
		// sysfs buses reject SetSpeed unless a platform hook is registered;
		// the device-tree clock applies then.
		_ = bus.SetSpeed(physic.Frequency(cfg.ClockHz) * physic.Hertz)
		return bus, bus.Close, nil
	}
}
