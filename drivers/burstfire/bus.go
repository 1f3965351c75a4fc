package burstfire

// BusConfig selects and clocks the bus the controllers sit on. Every field is
// mandatory; pin numbers are platform GPIO numbers.
type BusConfig struct {
	Port    int    // bus peripheral index (I2C0, I2C1, /dev/i2c-N)
	SDA     int    // data pin
	SCL     int    // clock pin
	ClockHz uint32 // bus clock, e.g. 100_000
}

// Validate checks the fields Initialize relies on.
func (c BusConfig) Validate() error {
	switch {
	case c.Port < 0:
		return errPort
	case c.SDA < 0 || c.SCL < 0:
		return errPins
	case c.SDA == c.SCL:
		return errPinsEqual
	case c.ClockHz == 0:
		return errClock
	}
	return nil
}

// Transport is the blocking bus primitive the driver is built on. Write and
// WriteRead each complete or fail within the transport's fixed timeout; a
// WriteRead keeps the bus between its write and read phases (repeated start).
type Transport interface {
	Configure(cfg BusConfig) error
	Write(addr uint8, w []byte) error
	WriteRead(addr uint8, w, r []byte) error
	Stop() error
}

// Register encoding.
//
//	write: [reg, value]
//	read:  [reg|ReadAny] then one byte back, same transaction
//	probe: zero-length write; an ACK means the device is present

func (s *Session) writeReg(addr uint8, reg Register, val uint8) error {
	s.w[0] = byte(reg)
	s.w[1] = val
	return s.t.Write(addr, s.w[:2])
}

func (s *Session) readReg(addr uint8, reg Register) (uint8, error) {
	s.w[0] = ReadAny | byte(reg)
	if err := s.t.WriteRead(addr, s.w[:1], s.r[:1]); err != nil {
		return 0, err
	}
	return s.r[0], nil
}

func (s *Session) probe(addr uint8) error {
	return s.t.Write(addr, nil)
}
