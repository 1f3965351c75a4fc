// Package burstfire drives BurstFire solid-state-relay controllers (ATtiny202
// firmware) over I2C. Controllers answer on 0x20..0x23 depending on their
// strapping; every register is a single byte.
//
//	t := transport.Platform()
//	s, err := burstfire.Initialize(t, &burstfire.BusConfig{Port: 0, SDA: 4, SCL: 5, ClockHz: 100_000})
//	addrs, _ := s.Scan()
//	_ = s.SetDuty(addrs[0], 5) // 50 %
//	_ = s.Shutdown()
//
// A Session is not safe for concurrent use. Callers sharing one across
// goroutines must serialise every call themselves.
//
// Bus errors are returned exactly as the Transport reported them; there are
// no retries.
package burstfire

import (
	"errors"
	"log/slog"

	"burstfire-go/errcode"
	"burstfire-go/x/conv"
)

// Errors returned before the bus is touched.
var (
	ErrInvalidState = errcode.InvalidState
	ErrInvalidArg   = errcode.InvalidArg
)

var (
	errPort      = errors.New("bus port must be >= 0")
	errPins      = errors.New("SDA and SCL must be >= 0")
	errPinsEqual = errors.New("SDA and SCL must differ")
	errClock     = errors.New("ClockHz must be set")
)

// Version is the firmware version triple.
type Version struct {
	Major, Minor, Patch uint8
}

func (v Version) String() string {
	var buf [12]byte
	b := conv.AppendUint(buf[:0], uint64(v.Major))
	b = append(b, '.')
	b = conv.AppendUint(b, uint64(v.Minor))
	b = append(b, '.')
	b = conv.AppendUint(b, uint64(v.Patch))
	return string(b)
}

// Info is the snapshot returned by DeviceInfo.
type Info struct {
	Address   uint8
	Firmware  Version
	Connected bool
}

// FormatAddress renders a bus address as "0x20".
func FormatAddress(addr uint8) string { return conv.Hex8(addr) }

// Option customises a Session.
type Option func(*Session)

// WithLogger sets the logger used for informational messages. Without it the
// session logs nothing.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// Session is one initialised bus plus the controllers reachable on it.
type Session struct {
	t           Transport
	cfg         BusConfig
	initialized bool
	log         *slog.Logger

	// Fixed buffers to avoid per-call heap allocations.
	w [2]byte
	r [1]byte
}

// New binds a Session to t without touching the bus. Call Init before use;
// until then every operation fails with ErrInvalidState.
func New(t Transport, opts ...Option) *Session {
	s := &Session{t: t, log: slog.New(slog.DiscardHandler)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Initialize is New followed by Init.
func Initialize(t Transport, cfg *BusConfig, opts ...Option) (*Session, error) {
	s := New(t, opts...)
	if err := s.Init(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Init configures and starts the bus. A nil transport or an absent or
// incomplete cfg yields ErrInvalidArg; configuration failures of the
// transport are returned as-is.
func (s *Session) Init(cfg *BusConfig) error {
	if s.initialized {
		return ErrInvalidState
	}
	if s.t == nil {
		return &errcode.E{C: errcode.InvalidArg, Op: "burstfire.Init", Msg: "nil transport"}
	}
	if cfg == nil {
		return &errcode.E{C: errcode.InvalidArg, Op: "burstfire.Init", Msg: "nil config"}
	}
	if err := cfg.Validate(); err != nil {
		return &errcode.E{C: errcode.InvalidArg, Op: "burstfire.Init", Msg: err.Error(), Err: err}
	}
	if err := s.t.Configure(*cfg); err != nil {
		return err
	}
	s.cfg = *cfg
	s.initialized = true
	s.log.Info("burstfire initialized",
		slog.Int("port", cfg.Port),
		slog.Int("sda", cfg.SDA),
		slog.Int("scl", cfg.SCL),
		slog.Uint64("clock_hz", uint64(cfg.ClockHz)))
	return nil
}

// Shutdown stops the bus. If the transport fails to stop, its error is
// returned and the session stays initialised so Shutdown can be retried.
func (s *Session) Shutdown() error {
	if !s.initialized {
		return ErrInvalidState
	}
	if err := s.t.Stop(); err != nil {
		return err
	}
	s.initialized = false
	return nil
}

// Initialized reports whether the session owns a started bus.
func (s *Session) Initialized() bool { return s.initialized }

// Config returns the bus configuration passed to Init.
func (s *Session) Config() BusConfig { return s.cfg }

// SetDuty writes the duty step (0..10, i.e. 0..100 %).
func (s *Session) SetDuty(addr, duty uint8) error {
	if !s.initialized {
		return ErrInvalidState
	}
	if duty > MaxDutyValue {
		return ErrInvalidArg
	}
	return s.writeReg(addr, RegDuty, duty)
}

// Duty reads the current duty step.
func (s *Session) Duty(addr uint8) (uint8, error) {
	if !s.initialized {
		return 0, ErrInvalidState
	}
	return s.readReg(addr, RegDuty)
}

// MaxDuty reads the controller's maximum duty step.
func (s *Session) MaxDuty(addr uint8) (uint8, error) {
	if !s.initialized {
		return 0, ErrInvalidState
	}
	return s.readReg(addr, RegMaxDuty)
}

// SetGrid60Hz selects 60 Hz (true) or 50 Hz (false) mains timing.
func (s *Session) SetGrid60Hz(addr uint8, is60Hz bool) error {
	if !s.initialized {
		return ErrInvalidState
	}
	var v uint8
	if is60Hz {
		v = 1
	}
	return s.writeReg(addr, RegGridHz, v)
}

// Status reads the status bitfield.
func (s *Session) Status(addr uint8) (Status, error) {
	if !s.initialized {
		return 0, ErrInvalidState
	}
	v, err := s.readReg(addr, RegStatus)
	return Status(v), err
}

// BusAddress reads the address the controller believes it answers on.
func (s *Session) BusAddress(addr uint8) (uint8, error) {
	if !s.initialized {
		return 0, ErrInvalidState
	}
	return s.readReg(addr, RegI2CAddr)
}

// IsConnected probes addr with a zero-length write. Any failure, including an
// uninitialised session, reads as "not connected".
func (s *Session) IsConnected(addr uint8) bool {
	if !s.initialized {
		return false
	}
	return s.probe(addr) == nil
}

// ScanInto probes every address in AddressFirst..AddressLast in ascending
// order and stores the responding ones in dst, which must hold MaxDevices
// entries. It returns the count. Probe failures count as absent.
func (s *Session) ScanInto(dst []uint8) (int, error) {
	if !s.initialized {
		return 0, ErrInvalidState
	}
	if len(dst) < MaxDevices {
		return 0, ErrInvalidArg
	}
	n := 0
	for addr := AddressFirst; addr <= AddressLast; addr++ {
		if s.IsConnected(addr) {
			dst[n] = addr
			n++
		}
	}
	s.log.Info("burstfire scan complete", slog.Int("found", n))
	return n, nil
}

// Scan is ScanInto with a freshly allocated result.
func (s *Session) Scan() ([]uint8, error) {
	var buf [MaxDevices]uint8
	n, err := s.ScanInto(buf[:])
	if err != nil {
		return nil, err
	}
	out := make([]uint8, n)
	copy(out, buf[:n])
	return out, nil
}

// FirmwareVersion reads major, minor and patch in that order. The first
// failed read aborts; fields after it are left zero.
func (s *Session) FirmwareVersion(addr uint8) (Version, error) {
	var v Version
	if !s.initialized {
		return v, ErrInvalidState
	}
	var err error
	if v.Major, err = s.readReg(addr, RegFWMajor); err != nil {
		return v, err
	}
	if v.Minor, err = s.readReg(addr, RegFWMinor); err != nil {
		return v, err
	}
	v.Patch, err = s.readReg(addr, RegFWPatch)
	return v, err
}

// DeviceInfo probes addr and, when it answers, reads its firmware version.
// A device that answers the probe but fails the version read is reported
// disconnected together with the read error; its version stays zero.
func (s *Session) DeviceInfo(addr uint8) (Info, error) {
	info := Info{Address: addr}
	if !s.initialized {
		return info, ErrInvalidState
	}
	info.Connected = s.IsConnected(addr)
	if !info.Connected {
		return info, nil
	}
	v, err := s.FirmwareVersion(addr)
	if err != nil {
		info.Connected = false
		return info, err
	}
	info.Firmware = v
	return info, nil
}
