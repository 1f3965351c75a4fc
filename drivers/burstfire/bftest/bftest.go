// Package bftest simulates BurstFire controllers behind a tinygo
// drivers.I2C bus so the driver, the transports and the tools can be tested
// without hardware.
package bftest

import (
	"sync"

	"burstfire-go/drivers/burstfire"
	"burstfire-go/errcode"

	"tinygo.org/x/drivers"
)

// ErrProtocol is returned for transactions no firmware would accept
// (e.g. a read without the read-any flag).
var ErrProtocol = errcode.Code("protocol")

// Compile-time check.
var _ drivers.I2C = (*Bus)(nil)

// Controller is the register file of one simulated device.
type Controller struct {
	addr    uint8
	duty    uint8
	grid60  bool
	running bool
	version burstfire.Version
}

// Bus is a set of simulated controllers sharing one I2C bus.
type Bus struct {
	mu     sync.Mutex
	devs   map[uint8]*Controller
	faults map[fault]error
	txs    int
	log    []Tx
}

type fault struct {
	addr uint8
	reg  burstfire.Register
}

// Tx records one transaction as seen on the wire.
type Tx struct {
	Addr uint8
	W    []byte
	Rn   int
}

// NewBus returns a bus with controllers at the given addresses. Each one
// reports firmware 1.0.0 and is running at duty 0, 50 Hz.
func NewBus(addrs ...uint8) *Bus {
	b := &Bus{
		devs:   make(map[uint8]*Controller),
		faults: make(map[fault]error),
	}
	for _, a := range addrs {
		b.Add(a)
	}
	return b
}

// Add attaches a controller at addr, replacing any existing one.
func (b *Bus) Add(addr uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devs[addr] = &Controller{
		addr:    addr,
		running: true,
		version: burstfire.Version{Major: 1},
	}
}

// Remove detaches the controller at addr; it stops acknowledging.
func (b *Bus) Remove(addr uint8) {
	b.mu.Lock()
	delete(b.devs, addr)
	b.mu.Unlock()
}

// SetVersion sets the firmware version reported by addr.
func (b *Bus) SetVersion(addr uint8, v burstfire.Version) {
	b.with(addr, func(c *Controller) { c.version = v })
}

// SetRunning sets the running bit reported by addr.
func (b *Bus) SetRunning(addr uint8, on bool) {
	b.with(addr, func(c *Controller) { c.running = on })
}

// FailRead makes every read of reg on addr fail with err. A nil err clears it.
func (b *Bus) FailRead(addr uint8, reg burstfire.Register, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := fault{addr: addr, reg: reg}
	if err == nil {
		delete(b.faults, k)
		return
	}
	b.faults[k] = err
}

// Duty returns the duty register of addr (0 if absent).
func (b *Bus) Duty(addr uint8) uint8 {
	var d uint8
	b.with(addr, func(c *Controller) { d = c.duty })
	return d
}

// Transactions returns the number of Tx calls seen, including NACKed ones.
func (b *Bus) Transactions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.txs
}

// Log returns a copy of the recorded transactions.
func (b *Bus) Log() []Tx {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Tx(nil), b.log...)
}

func (b *Bus) with(addr uint8, fn func(*Controller)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.devs[addr]; ok {
		fn(c)
	}
}

// Tx implements drivers.I2C.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.txs++
	b.log = append(b.log, Tx{Addr: uint8(addr), W: append([]byte(nil), w...), Rn: len(r)})

	c, ok := b.devs[uint8(addr)]
	if !ok {
		return errcode.NACK
	}

	switch {
	// Address probe.
	case len(w) == 0 && len(r) == 0:
		return nil

	// Register write.
	case len(w) == 2 && len(r) == 0:
		reg := burstfire.Register(w[0])
		if !reg.Access().Has(burstfire.AccessWrite) {
			return errcode.NACK
		}
		c.write(reg, w[1])
		return nil

	// Read-any: flagged register id, then one byte back.
	case len(w) == 1 && w[0]&burstfire.ReadAny != 0 && len(r) == 1:
		reg := burstfire.Register(w[0] &^ burstfire.ReadAny)
		if err, bad := b.faults[fault{addr: c.addr, reg: reg}]; bad {
			return err
		}
		if !reg.Access().Has(burstfire.AccessRead) {
			return errcode.NACK
		}
		r[0] = c.read(reg)
		return nil
	}
	return ErrProtocol
}

func (c *Controller) write(reg burstfire.Register, v uint8) {
	switch reg {
	case burstfire.RegDuty:
		c.duty = min(v, burstfire.MaxDutyValue)
	case burstfire.RegGridHz:
		c.grid60 = v != 0
	}
}

func (c *Controller) read(reg burstfire.Register) uint8 {
	switch reg {
	case burstfire.RegDuty:
		return c.duty
	case burstfire.RegMaxDuty:
		return burstfire.MaxDutyValue
	case burstfire.RegGridHz:
		if c.grid60 {
			return 1
		}
		return 0
	case burstfire.RegFWMajor:
		return c.version.Major
	case burstfire.RegFWMinor:
		return c.version.Minor
	case burstfire.RegFWPatch:
		return c.version.Patch
	case burstfire.RegStatus:
		var s burstfire.Status
		if c.running {
			s |= burstfire.StatusRunning
		}
		if c.grid60 {
			s |= burstfire.StatusGrid60Hz
		}
		return uint8(s)
	case burstfire.RegI2CAddr:
		return c.addr
	}
	return 0
}

// Transport adapts a Bus to burstfire.Transport directly, with no worker or
// timeout in between.
type Transport struct {
	Bus *Bus

	// ConfigureErr and StopErr, when set, are returned by Configure and Stop.
	ConfigureErr error
	StopErr      error

	Configured []burstfire.BusConfig
	Stops      int
}

var _ burstfire.Transport = (*Transport)(nil)

func (t *Transport) Configure(cfg burstfire.BusConfig) error {
	if t.ConfigureErr != nil {
		return t.ConfigureErr
	}
	t.Configured = append(t.Configured, cfg)
	return nil
}

func (t *Transport) Write(addr uint8, w []byte) error {
	return t.Bus.Tx(uint16(addr), w, nil)
}

func (t *Transport) WriteRead(addr uint8, w, r []byte) error {
	return t.Bus.Tx(uint16(addr), w, r)
}

func (t *Transport) Stop() error {
	t.Stops++
	return t.StopErr
}
