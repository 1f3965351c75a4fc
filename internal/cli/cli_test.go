package cli

import (
	"bytes"
	"context"
	"io"
	"testing"

	"burstfire-go/drivers/burstfire"
	"burstfire-go/drivers/burstfire/bftest"
	"burstfire-go/errcode"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunner(t *testing.T, addrs ...uint8) (*Runner, *bftest.Bus, *bytes.Buffer) {
	t.Helper()
	bus := bftest.NewBus(addrs...)
	cfg := burstfire.BusConfig{Port: 1, SDA: 2, SCL: 3, ClockHz: 100_000}
	s, err := burstfire.Initialize(&bftest.Transport{Bus: bus}, &cfg)
	require.NoError(t, err)
	out := &bytes.Buffer{}
	return &Runner{S: s, Out: out}, bus, out
}

func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	return r.Exec(context.Background(), args)
}

func TestScanListsResponders(t *testing.T) {
	r, _, out := newRunner(t, 0x23, 0x21)
	require.NoError(t, run(t, r, "scan"))
	assert.Equal(t, "0x21\n0x23\n", out.String())
}

func TestScanEmptyBus(t *testing.T) {
	r, _, out := newRunner(t)
	require.NoError(t, run(t, r, "scan"))
	assert.Equal(t, "no controllers found\n", out.String())
}

func TestInfo(t *testing.T) {
	r, bus, out := newRunner(t, 0x23)
	bus.SetVersion(0x23, burstfire.Version{Major: 1, Minor: 4, Patch: 2})

	require.NoError(t, run(t, r, "info", "0x23"))
	require.NoError(t, run(t, r, "info", "34"))
	assert.Equal(t, "0x23 connected firmware 1.4.2\n0x22 not connected\n", out.String())
}

func TestInfoFirmwareFailure(t *testing.T) {
	r, bus, _ := newRunner(t, 0x20)
	bus.FailRead(0x20, burstfire.RegFWMinor, errcode.Timeout)

	err := run(t, r, "info", "0x20")
	assert.ErrorIs(t, err, errcode.Timeout)
	assert.Contains(t, err.Error(), "0x20")
}

func TestDutySetAndGet(t *testing.T) {
	r, bus, out := newRunner(t, 0x20)

	require.NoError(t, run(t, r, "duty", "0x20", "7"))
	assert.Equal(t, uint8(7), bus.Duty(0x20))
	require.NoError(t, run(t, r, "duty", "0x20"))
	assert.Equal(t, "0x20 duty set to 7\n0x20 duty 7\n", out.String())
}

func TestDutyOutOfRange(t *testing.T) {
	r, bus, _ := newRunner(t, 0x20)
	before := bus.Transactions()

	assert.ErrorIs(t, run(t, r, "duty", "0x20", "11"), errcode.InvalidArg)
	assert.ErrorIs(t, run(t, r, "duty", "0x20", "300"), ErrUsage)
	assert.ErrorIs(t, run(t, r, "duty", "0x20", "x"), ErrUsage)
	assert.Equal(t, before, bus.Transactions())
}

func TestGrid(t *testing.T) {
	r, _, out := newRunner(t, 0x21)

	require.NoError(t, run(t, r, "grid", "0x21", "60"))
	require.NoError(t, run(t, r, "grid", "0x21"))
	require.NoError(t, run(t, r, "status", "0x21"))
	assert.Equal(t, "0x21 grid set to 60 Hz\n0x21 grid 60 Hz\n0x21 running,60Hz\n", out.String())

	assert.ErrorIs(t, run(t, r, "grid", "0x21", "55"), ErrUsage)
}

func TestRegisterReads(t *testing.T) {
	r, bus, out := newRunner(t, 0x22)
	bus.SetVersion(0x22, burstfire.Version{Major: 2, Minor: 0, Patch: 9})

	require.NoError(t, run(t, r, "version", "0x22"))
	require.NoError(t, run(t, r, "max", "0x22"))
	require.NoError(t, run(t, r, "addr", "0x22"))
	assert.Equal(t, "0x22 firmware 2.0.9\n0x22 max duty 10\n0x22 reports address 0x22\n", out.String())
}

func TestAbsentDeviceSurfacesNack(t *testing.T) {
	r, _, _ := newRunner(t)
	assert.ErrorIs(t, run(t, r, "status", "0x20"), errcode.NACK)
}

func TestUsageErrorsTouchNoBus(t *testing.T) {
	r, bus, _ := newRunner(t, 0x20)

	for _, args := range [][]string{
		{},
		{"bogus"},
		{"status"},
		{"status", "0x20", "extra"},
		{"status", "0x30"},
		{"status", "0x1f"},
		{"status", "twenty"},
		{"watch", "fast"},
		{"watch", "1s", "-1"},
		{"watch", "1s", "2", "3"},
	} {
		assert.ErrorIs(t, r.Exec(context.Background(), args), ErrUsage, "%q", args)
	}
	assert.Zero(t, bus.Transactions())
}

func TestParseAddr(t *testing.T) {
	for in, want := range map[string]uint8{"0x20": 0x20, "0X23": 0x23, "33": 0x21} {
		got, err := ParseAddr(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseAddr("0x100")
	assert.ErrorIs(t, err, ErrUsage)
}

func TestHelp(t *testing.T) {
	r, _, out := newRunner(t)
	require.NoError(t, run(t, r, "help"))
	assert.Contains(t, out.String(), "watch [interval] [count]")
}

func TestHelpNeedsNoSession(t *testing.T) {
	assert.False(t, NeedsBus("help"))
	assert.False(t, NeedsBus("?"))
	assert.True(t, NeedsBus("scan"))

	out := &bytes.Buffer{}
	r := &Runner{Out: out}
	require.NoError(t, r.Exec(context.Background(), []string{"HELP"}))
	assert.Contains(t, out.String(), "Commands:")
}

func TestWatchCountedRounds(t *testing.T) {
	r, bus, out := newRunner(t, 0x20, 0x21)
	r.Devices = []uint8{0x20, 0x22}
	require.NoError(t, bus.Tx(0x20, []byte{byte(burstfire.RegDuty), 3}, nil))

	require.NoError(t, run(t, r, "watch", "1ms", "2"))
	want := "0x20 running,50Hz duty 3\n0x22 error: nack\n"
	assert.Equal(t, want+want, out.String())
}

func TestWatchScansWhenNoDevicesConfigured(t *testing.T) {
	r, _, out := newRunner(t, 0x23)
	require.NoError(t, run(t, r, "watch", "1ms", "1"))
	assert.Equal(t, "0x23 running,50Hz duty 0\n", out.String())
}

func TestWatchNothingToPoll(t *testing.T) {
	r, _, out := newRunner(t)
	require.NoError(t, run(t, r, "watch"))
	assert.Equal(t, "no controllers found\n", out.String())
}

func TestWatchStopsWithContext(t *testing.T) {
	r, _, out := newRunner(t, 0x20)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, r.Exec(ctx, []string{"watch", "1h"}))
	assert.Equal(t, "0x20 running,50Hz duty 0\n", out.String())
}

// ---------------------------------------------------------------------------
// shell loop
// ---------------------------------------------------------------------------

type scriptedLines struct {
	lines []string
	errs  []error
}

func (s *scriptedLines) Readline() (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line, err := s.lines[0], s.errs[0]
	s.lines, s.errs = s.lines[1:], s.errs[1:]
	return line, err
}

func script(lines ...string) *scriptedLines {
	return &scriptedLines{lines: lines, errs: make([]error, len(lines))}
}

func plainCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(ctx)
}

func TestShellRunsCommandsUntilQuit(t *testing.T) {
	r, bus, out := newRunner(t, 0x20)

	require.NoError(t, r.loop(context.Background(), script("duty 0x20 4", "  ", "bogus", "quit", "duty 0x20 9"), plainCtx))
	assert.Equal(t, uint8(4), bus.Duty(0x20))
	assert.Contains(t, out.String(), "0x20 duty set to 4\n")
	assert.Contains(t, out.String(), "Error: usage: unknown command \"bogus\"")
	assert.Contains(t, out.String(), "Exiting...")
}

func TestShellInterruptAndEOF(t *testing.T) {
	r, _, out := newRunner(t, 0x21)
	in := &scriptedLines{
		lines: []string{"", "scan"},
		errs:  []error{readline.ErrInterrupt, nil},
	}

	require.NoError(t, r.loop(context.Background(), in, plainCtx))
	assert.Contains(t, out.String(), "0x21\n")
	assert.Contains(t, out.String(), "Exiting...")
}

func TestShellReturnsReaderError(t *testing.T) {
	r, _, _ := newRunner(t)
	in := &scriptedLines{lines: []string{""}, errs: []error{errcode.Error}}
	assert.ErrorIs(t, r.loop(context.Background(), in, plainCtx), errcode.Error)
}
