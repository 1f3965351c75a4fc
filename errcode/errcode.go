package errcode

import "errors"

// Code is a stable error identifier shared by the driver, the transports and
// the command line tools. It is a string newtype, comparable, allocation-free,
// and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK           Code = "ok"
	InvalidState Code = "invalid_state" // session not initialised or already shut down
	InvalidArg   Code = "invalid_arg"   // rejected before touching the bus

	Busy       Code = "busy"    // transaction could not be queued in time
	Timeout    Code = "timeout" // transaction did not complete in time
	NACK       Code = "nack"    // device did not acknowledge
	UnknownBus Code = "unknown_bus"
	BusInUse   Code = "bus_in_use"

	Error Code = "error" // generic fallback
)

// E carries a Code plus the failing operation and an optional cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, code) match an *E by its code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Of extracts a Code from an error chain, defaulting to Error. An *E (or any
// error with a Code method) reports its own code, not that of its cause.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return Error
}
