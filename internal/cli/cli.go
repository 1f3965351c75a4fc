// Package cli implements the burstfirectl commands on top of a driver
// session. Commands write human-readable output to an io.Writer so the same
// dispatcher serves one-shot invocations and the interactive shell.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"burstfire-go/drivers/burstfire"
)

// ErrUsage marks malformed command lines.
var ErrUsage = errors.New("usage")

// DefaultWatchInterval is used by watch when no interval is given.
const DefaultWatchInterval = time.Second

const help = `Commands:
  scan                     - List responding controllers
  info <addr>              - Show presence and firmware version
  duty <addr> [0-10]       - Read or set the duty level
  max <addr>               - Read the maximum duty level
  grid <addr> [50|60]      - Read or set the grid frequency
  status <addr>            - Show the status register
  version <addr>           - Show the firmware version
  addr <addr>              - Read the address register
  watch [interval] [count] - Poll status of every controller
  help                     - Show this help

Addresses are 0x20..0x23 (decimal or 0x-prefixed).`

// Runner dispatches commands against one initialized session.
type Runner struct {
	S   *burstfire.Session
	Out io.Writer

	// Devices are the controllers watch polls. Empty means scan first.
	Devices []uint8
}

// NeedsBus reports whether cmd talks to controllers. Commands that do not
// can run without opening the bus.
func NeedsBus(cmd string) bool {
	switch strings.ToLower(cmd) {
	case "help", "?":
		return false
	}
	return true
}

func usagef(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrUsage}, args...)...)
}

// Exec runs one command. args[0] is the command name.
func (r *Runner) Exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usagef("no command")
	}
	cmd, args := strings.ToLower(args[0]), args[1:]

	switch cmd {
	case "help", "?":
		fmt.Fprintln(r.Out, help)
		return nil
	case "scan", "s":
		return r.cmdScan()
	case "info", "i":
		return r.withAddr(cmd, args, 0, r.cmdInfo)
	case "duty", "d":
		return r.withAddr(cmd, args, 1, r.cmdDuty)
	case "max":
		return r.withAddr(cmd, args, 0, r.cmdMax)
	case "grid", "g":
		return r.withAddr(cmd, args, 1, r.cmdGrid)
	case "status", "st":
		return r.withAddr(cmd, args, 0, r.cmdStatus)
	case "version", "v":
		return r.withAddr(cmd, args, 0, r.cmdVersion)
	case "addr":
		return r.withAddr(cmd, args, 0, r.cmdAddr)
	case "watch", "w":
		return r.cmdWatch(ctx, args)
	}
	return usagef("unknown command %q (type 'help' for commands)", cmd)
}

// withAddr parses the leading address argument and allows up to extra
// further arguments.
func (r *Runner) withAddr(cmd string, args []string, extra int, fn func(addr uint8, rest []string) error) error {
	if len(args) == 0 || len(args) > 1+extra {
		return usagef("%s: want <addr>%s", cmd, strings.Repeat(" [value]", extra))
	}
	addr, err := ParseAddr(args[0])
	if err != nil {
		return err
	}
	return fn(addr, args[1:])
}

// ParseAddr parses a controller address in decimal or 0x-prefixed hex and
// checks it is one a controller can be strapped to.
func ParseAddr(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, usagef("bad address %q", s)
	}
	a := uint8(v)
	if !burstfire.InRange(a) {
		return 0, usagef("address %s outside %s..%s", burstfire.FormatAddress(a),
			burstfire.FormatAddress(burstfire.AddressFirst), burstfire.FormatAddress(burstfire.AddressLast))
	}
	return a, nil
}

func (r *Runner) cmdScan() error {
	addrs, err := r.S.Scan()
	if err != nil {
		return err
	}
	if len(addrs) == 0 {
		fmt.Fprintln(r.Out, "no controllers found")
		return nil
	}
	for _, a := range addrs {
		fmt.Fprintln(r.Out, burstfire.FormatAddress(a))
	}
	return nil
}

func (r *Runner) cmdInfo(addr uint8, _ []string) error {
	info, err := r.S.DeviceInfo(addr)
	if err != nil {
		return fmt.Errorf("info %s: %w", burstfire.FormatAddress(addr), err)
	}
	if !info.Connected {
		fmt.Fprintf(r.Out, "%s not connected\n", burstfire.FormatAddress(addr))
		return nil
	}
	fmt.Fprintf(r.Out, "%s connected firmware %s\n", burstfire.FormatAddress(addr), info.Firmware)
	return nil
}

func (r *Runner) cmdDuty(addr uint8, rest []string) error {
	if len(rest) == 0 {
		d, err := r.S.Duty(addr)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.Out, "%s duty %d\n", burstfire.FormatAddress(addr), d)
		return nil
	}
	v, err := strconv.ParseUint(rest[0], 10, 8)
	if err != nil {
		return usagef("duty: bad value %q", rest[0])
	}
	if err := r.S.SetDuty(addr, uint8(v)); err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "%s duty set to %d\n", burstfire.FormatAddress(addr), v)
	return nil
}

func (r *Runner) cmdMax(addr uint8, _ []string) error {
	m, err := r.S.MaxDuty(addr)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "%s max duty %d\n", burstfire.FormatAddress(addr), m)
	return nil
}

func (r *Runner) cmdGrid(addr uint8, rest []string) error {
	if len(rest) == 0 {
		st, err := r.S.Status(addr)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.Out, "%s grid %d Hz\n", burstfire.FormatAddress(addr), st.GridHz())
		return nil
	}
	var is60 bool
	switch rest[0] {
	case "50":
	case "60":
		is60 = true
	default:
		return usagef("grid: want 50 or 60, got %q", rest[0])
	}
	if err := r.S.SetGrid60Hz(addr, is60); err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "%s grid set to %s Hz\n", burstfire.FormatAddress(addr), rest[0])
	return nil
}

func (r *Runner) cmdStatus(addr uint8, _ []string) error {
	st, err := r.S.Status(addr)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "%s %s\n", burstfire.FormatAddress(addr), st)
	return nil
}

func (r *Runner) cmdVersion(addr uint8, _ []string) error {
	v, err := r.S.FirmwareVersion(addr)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "%s firmware %s\n", burstfire.FormatAddress(addr), v)
	return nil
}

func (r *Runner) cmdAddr(addr uint8, _ []string) error {
	a, err := r.S.BusAddress(addr)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "%s reports address %s\n", burstfire.FormatAddress(addr), burstfire.FormatAddress(a))
	return nil
}

// cmdWatch prints the status of every target once per interval until ctx
// ends or count rounds have run (0 = unbounded). Per-device read errors are
// printed and polling continues.
func (r *Runner) cmdWatch(ctx context.Context, args []string) error {
	if len(args) > 2 {
		return usagef("watch: want [interval] [count]")
	}
	interval := DefaultWatchInterval
	if len(args) > 0 {
		d, err := time.ParseDuration(args[0])
		if err != nil || d <= 0 {
			return usagef("watch: bad interval %q", args[0])
		}
		interval = d
	}
	count := 0
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return usagef("watch: bad count %q", args[1])
		}
		count = n
	}

	targets := r.Devices
	if len(targets) == 0 {
		found, err := r.S.Scan()
		if err != nil {
			return err
		}
		if len(found) == 0 {
			fmt.Fprintln(r.Out, "no controllers found")
			return nil
		}
		targets = found
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for round := 1; ; round++ {
		r.pollOnce(targets)
		if count > 0 && round >= count {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (r *Runner) pollOnce(targets []uint8) {
	for _, a := range targets {
		st, err := r.S.Status(a)
		if err != nil {
			fmt.Fprintf(r.Out, "%s error: %v\n", burstfire.FormatAddress(a), err)
			continue
		}
		d, err := r.S.Duty(a)
		if err != nil {
			fmt.Fprintf(r.Out, "%s error: %v\n", burstfire.FormatAddress(a), err)
			continue
		}
		fmt.Fprintf(r.Out, "%s %s duty %d\n", burstfire.FormatAddress(a), st, d)
	}
}
