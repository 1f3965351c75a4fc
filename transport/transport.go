// Package transport provides burstfire.Transport implementations on top of
// tinygo drivers.I2C buses. The platform backend (machine.I2C on RP2 boards,
// periph.io on Linux hosts) is picked by build tags; see Platform.
//
// Every transaction goes through a per-bus worker and is bounded by a fixed
// per-call timeout (DefaultTimeout). A transaction that cannot be queued in
// time fails with errcode.Busy; one that does not complete in time fails with
// errcode.Timeout.
package transport

import (
	"sync"
	"time"

	"burstfire-go/drivers/burstfire"
	"burstfire-go/errcode"

	"tinygo.org/x/drivers"
)

// DefaultTimeout bounds each transaction phase.
const DefaultTimeout = 100 * time.Millisecond

const defaultQueue = 4

// Opener configures the platform bus described by cfg and returns it with an
// optional release function.
type Opener func(cfg burstfire.BusConfig) (bus drivers.I2C, release func() error, err error)

// Option customises a Tx.
type Option func(*Tx)

// WithTimeout overrides DefaultTimeout. Zero or negative disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(t *Tx) { t.timeout = d }
}

// WithBusName selects a named bus instead of the one derived from the
// configured port. Only the Linux backend uses it.
func WithBusName(name string) Option {
	return func(t *Tx) { t.busName = name }
}

// Tx adapts a drivers.I2C bus to burstfire.Transport.
type Tx struct {
	mu      sync.Mutex
	open    Opener
	timeout time.Duration
	busName string

	o       *owner
	release func() error
}

var _ burstfire.Transport = (*Tx)(nil)

// New returns a Tx that opens its bus with open on Configure.
func New(open Opener, opts ...Option) *Tx {
	t := &Tx{open: open, timeout: DefaultTimeout}
	for _, o := range opts {
		o(t)
	}
	return t
}

// FromI2C wraps a bus that is already configured. Configure only starts the
// worker; Stop leaves the bus itself untouched.
func FromI2C(bus drivers.I2C, opts ...Option) *Tx {
	return New(func(burstfire.BusConfig) (drivers.I2C, func() error, error) {
		return bus, nil, nil
	}, opts...)
}

// Timeout returns the per-phase transaction bound.
func (t *Tx) Timeout() time.Duration { return t.timeout }

// Configure opens the bus and starts its worker. A second Configure without
// Stop fails with errcode.BusInUse.
func (t *Tx) Configure(cfg burstfire.BusConfig) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.o != nil {
		return errcode.BusInUse
	}
	if t.open == nil {
		return errcode.UnknownBus
	}
	bus, release, err := t.open(cfg)
	if err != nil {
		return err
	}
	if bus == nil {
		return errcode.UnknownBus
	}
	t.o = newOwner(bus, defaultQueue)
	t.release = release
	return nil
}

// Write sends w to addr. An empty w addresses the device without payload.
func (t *Tx) Write(addr uint8, w []byte) error {
	return t.tx(addr, w, nil)
}

// WriteRead sends w then reads len(r) bytes with a repeated start.
func (t *Tx) WriteRead(addr uint8, w, r []byte) error {
	return t.tx(addr, w, r)
}

func (t *Tx) tx(addr uint8, w, r []byte) error {
	t.mu.Lock()
	o := t.o
	t.mu.Unlock()
	if o == nil {
		return errcode.InvalidState
	}
	return o.tx(uint16(addr), w, r, t.timeout)
}

// Stop halts the worker and releases the bus. The bus is released only once
// the worker has left any transaction in progress; if that takes longer than
// the timeout, Stop fails with errcode.Timeout. On any failure, including a
// failed release, the Tx stays configured and Stop may be retried.
func (t *Tx) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.o == nil {
		return errcode.InvalidState
	}
	if err := t.o.stop(t.timeout); err != nil {
		return err
	}
	if t.release != nil {
		if err := t.release(); err != nil {
			return err
		}
	}
	t.o = nil
	t.release = nil
	return nil
}
