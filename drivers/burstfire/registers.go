package burstfire

// Register identifies a one-byte register on the controller.
type Register uint8

// Register map (ATtiny202 firmware).
const (
	RegDuty    Register = 0x00 // R/W: duty cycle 0..10
	RegMaxDuty Register = 0x01 // R:   maximum duty (always 10)
	RegGridHz  Register = 0x02 // R/W: grid frequency (0=50 Hz, 1=60 Hz)
	RegFWMajor Register = 0x10 // R:   firmware major version
	RegFWMinor Register = 0x11 // R:   firmware minor version
	RegFWPatch Register = 0x12 // R:   firmware patch version
	RegStatus  Register = 0x13 // R:   status bits
	RegI2CAddr Register = 0x14 // R:   device bus address
)

// ReadAny is OR-ed into the register id of a read request. The firmware
// answers the following read with the content of that register.
const ReadAny = 0x80

// Address range the controllers are strapped to.
const (
	AddressFirst uint8 = 0x20
	AddressLast  uint8 = 0x23

	// MaxDevices is the number of addresses covered by a scan.
	MaxDevices = int(AddressLast-AddressFirst) + 1
)

// MaxDutyValue is the highest accepted duty step (100 %).
const MaxDutyValue uint8 = 10

// Access describes how a register may be used.
type Access uint8

const (
	AccessNone  Access = 0
	AccessRead  Access = 1 << 0
	AccessWrite Access = 1 << 1
)

func (a Access) Has(flag Access) bool { return a&flag != 0 }

// Access returns the fixed access mode of r. Unknown registers report AccessNone.
func (r Register) Access() Access {
	switch r {
	case RegDuty, RegGridHz:
		return AccessRead | AccessWrite
	case RegMaxDuty, RegFWMajor, RegFWMinor, RegFWPatch, RegStatus, RegI2CAddr:
		return AccessRead
	default:
		return AccessNone
	}
}

func (r Register) String() string {
	switch r {
	case RegDuty:
		return "duty"
	case RegMaxDuty:
		return "max_duty"
	case RegGridHz:
		return "grid_hz"
	case RegFWMajor:
		return "fw_major"
	case RegFWMinor:
		return "fw_minor"
	case RegFWPatch:
		return "fw_patch"
	case RegStatus:
		return "status"
	case RegI2CAddr:
		return "i2c_addr"
	default:
		return "unknown"
	}
}

// Status is the bitfield held in RegStatus.
type Status uint8

const (
	StatusRunning  Status = 1 << 0 // controller running
	StatusGrid60Hz Status = 1 << 1 // grid frequency (0=50 Hz, 1=60 Hz)
)

func (s Status) Has(flag Status) bool { return s&flag != 0 }
func (s Status) Running() bool        { return s.Has(StatusRunning) }
func (s Status) Grid60Hz() bool       { return s.Has(StatusGrid60Hz) }

// GridHz returns 50 or 60.
func (s Status) GridHz() int {
	if s.Grid60Hz() {
		return 60
	}
	return 50
}

func (s Status) String() string {
	run := "stopped"
	if s.Running() {
		run = "running"
	}
	if s.Grid60Hz() {
		return run + ",60Hz"
	}
	return run + ",50Hz"
}

// InRange reports whether addr is one a controller can be strapped to.
func InRange(addr uint8) bool { return addr >= AddressFirst && addr <= AddressLast }
