// Command burstfirectl drives BurstFire power controllers on a Linux I2C bus.
//
// Usage:
//
//	burstfirectl [flags] <command> [args]
//
// Commands:
//
//	scan                     List responding controllers
//	info <addr>              Show presence and firmware version
//	duty <addr> [0-10]       Read or set the duty level
//	grid <addr> [50|60]      Read or set the grid frequency
//	status <addr>            Show the status register
//	version <addr>           Show the firmware version
//	watch [interval] [count] Poll every controller
//	shell                    Interactive prompt
//
// Examples:
//
//	burstfirectl scan
//	burstfirectl -port 1 duty 0x20 5
//	burstfirectl -config /etc/burstfire.yaml watch 2s
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"burstfire-go/config"
	"burstfire-go/drivers/burstfire"
	"burstfire-go/internal/cli"
	"burstfire-go/transport"
)

const usage = `burstfirectl - BurstFire controller tool

Usage:
  burstfirectl [flags] <command> [args]

Commands:
  scan, info, duty, max, grid, status, version, addr, watch, shell
  Run "burstfirectl help" for details.

Flags:
`

// platform opens the transport for this host.
type platform func(opts ...transport.Option) *transport.Tx

// overrides holds the command-line flags that replace config values.
type overrides struct {
	configPath string
	port       int
	busName    string
	clockHz    uint64
	logLevel   string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, transport.Platform))
}

// run executes one invocation and returns the process exit status: 0 on
// success, 1 on configuration or device errors, 2 on usage errors.
func run(args []string, stdout, stderr io.Writer, open platform) int {
	fs := flag.NewFlagSet("burstfirectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	var o overrides
	fs.StringVar(&o.configPath, "config", "", "YAML configuration file (built-in defaults when empty)")
	fs.IntVar(&o.port, "port", -1, "I2C bus number override")
	fs.StringVar(&o.busName, "bus", "", "I2C bus name override, e.g. /dev/i2c-1")
	fs.Uint64Var(&o.clockHz, "clock", 0, "bus clock override in Hz")
	fs.StringVar(&o.logLevel, "log-level", "", "log level override: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	if !cli.NeedsBus(fs.Arg(0)) {
		r := &cli.Runner{Out: stdout}
		if err := r.Exec(context.Background(), fs.Args()); err != nil {
			fmt.Fprintf(stderr, "burstfirectl: %v\n", err)
			return 2
		}
		return 0
	}

	cfg, err := loadConfig(o)
	if err != nil {
		fmt.Fprintf(stderr, "burstfirectl: config: %v\n", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	tx := open(
		transport.WithBusName(cfg.Bus.Name),
		transport.WithTimeout(cfg.Bus.Timeout()),
	)
	busCfg := cfg.Bus.Driver()
	s, err := burstfire.Initialize(tx, &busCfg, burstfire.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(stderr, "burstfirectl: initialize bus %d: %v\n", busCfg.Port, err)
		return 1
	}

	r := &cli.Runner{S: s, Out: stdout, Devices: cfg.Devices}
	var runErr error
	if strings.ToLower(fs.Arg(0)) == "shell" {
		runErr = cli.Shell(context.Background(), r)
	} else {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		runErr = r.Exec(ctx, fs.Args())
		stop()
	}

	if err := s.Shutdown(); err != nil {
		logger.Warn("shutdown", "error", err)
	}
	if runErr != nil {
		fmt.Fprintf(stderr, "burstfirectl: %v\n", runErr)
		if errors.Is(runErr, cli.ErrUsage) {
			return 2
		}
		return 1
	}
	return 0
}

// loadConfig reads -config (or the defaults) and applies flag overrides
// before validation.
func loadConfig(o overrides) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}
	if o.port >= 0 {
		cfg.Bus.Port = o.port
	}
	if o.busName != "" {
		cfg.Bus.Name = o.busName
	}
	if o.clockHz != 0 {
		if o.clockHz > math.MaxUint32 {
			return nil, fmt.Errorf("-clock %d out of range", o.clockHz)
		}
		cfg.Bus.ClockHz = uint32(o.clockHz)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	config.Normalize(cfg)
	return cfg, nil
}
