package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]Code{
		"ok":            OK,
		"invalid_state": InvalidState,
		"invalid_arg":   InvalidArg,
		"busy":          Busy,
		"timeout":       Timeout,
		"nack":          NACK,
		"unknown_bus":   UnknownBus,
		"bus_in_use":    BusInUse,
		"error":         Error,
	}
	for want, c := range cases {
		if c.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, c.Error())
		}
	}
}

func TestOf(t *testing.T) {
	if got := Of(nil); got != OK {
		t.Fatalf("Of(nil) = %q", got)
	}
	if got := Of(Timeout); got != Timeout {
		t.Fatalf("Of(Timeout) = %q", got)
	}
	wrapped := fmt.Errorf("read duty: %w", NACK)
	if got := Of(wrapped); got != NACK {
		t.Fatalf("Of(wrapped) = %q", got)
	}
	e := &E{C: InvalidArg, Op: "burstfire.SetDuty", Msg: "duty 11 > 10"}
	if got := Of(fmt.Errorf("ctl: %w", e)); got != InvalidArg {
		t.Fatalf("Of(*E) = %q", got)
	}
	if got := Of(errors.New("boom")); got != Error {
		t.Fatalf("Of(plain) = %q", got)
	}
}

func TestEMatchesCodeAndCause(t *testing.T) {
	cause := errors.New("cause")
	e := &E{C: InvalidArg, Op: "op", Msg: "bad", Err: cause}
	if !errors.Is(e, InvalidArg) {
		t.Fatal("errors.Is(e, InvalidArg) = false")
	}
	if errors.Is(e, InvalidState) {
		t.Fatal("errors.Is(e, InvalidState) = true")
	}
	if !errors.Is(e, cause) {
		t.Fatal("cause not reachable through Unwrap")
	}
	if got, want := e.Error(), "op: invalid_arg: bad"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestOfPrefersOwnCodeOverCause(t *testing.T) {
	e := &E{C: InvalidArg, Op: "burstfire.Init", Err: Timeout}
	if got := Of(e); got != InvalidArg {
		t.Fatalf("Of(E{InvalidArg, cause Timeout}) = %q, want invalid_arg", got)
	}
	if got := Of(fmt.Errorf("init: %w", e)); got != InvalidArg {
		t.Fatalf("Of(wrapped E) = %q, want invalid_arg", got)
	}
}
