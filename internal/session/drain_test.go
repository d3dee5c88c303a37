package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/standardbeagle/webdriver-mcp/internal/browser"
	"github.com/standardbeagle/webdriver-mcp/internal/browser/browsertest"
	"github.com/standardbeagle/webdriver-mcp/internal/testutil"
)

func blockingDriver(t *testing.T) *browsertest.Driver {
	d := browsertest.NewDriver(browser.Chrome)
	d.QuitBlock = make(chan struct{})
	t.Cleanup(func() { close(d.QuitBlock) })
	return d
}

func TestDrainEmptyRegistry(t *testing.T) {
	reg := NewRegistry(nil)
	reg.SetCurrentSession("stale")

	report := Drain(context.Background(), reg, DrainOptions{}, nil)
	assert.Equal(t, 0, report.Total())
	assert.True(t, report.Clean())

	_, ok := reg.CurrentSession()
	assert.False(t, ok)
}

func TestDrainOneSessionHangs(t *testing.T) {
	reg := NewRegistry(nil)
	a := browsertest.NewDriver(browser.Chrome)
	b := browsertest.NewDriver(browser.Firefox)
	reg.AddDriver("a", a)
	reg.AddDriver("b", b)
	reg.AddDriver("hang", blockingDriver(t))
	reg.SetCurrentSession("a")

	logger, logs := testutil.ObservedLogger(zapcore.WarnLevel)
	opts := DrainOptions{SessionTimeout: 100 * time.Millisecond, Timeout: 2 * time.Second}

	var report DrainReport
	took := testutil.RequireReturnsWithin(t, time.Second, func() {
		report = Drain(context.Background(), reg, opts, logger)
	})

	assert.Less(t, took, time.Second, "drain waits for the per-session deadline, not the aggregate one")
	assert.Equal(t, []string{"a", "b"}, report.Closed)
	assert.Equal(t, []string{"hang"}, report.TimedOut)
	assert.Empty(t, report.Abandoned)
	assert.Empty(t, report.Failed)
	assert.False(t, report.Clean())

	assert.Equal(t, 1, a.QuitCount())
	assert.Equal(t, 1, b.QuitCount())
	assert.Equal(t, 0, reg.Len())
	_, ok := reg.CurrentSession()
	assert.False(t, ok)

	assert.Equal(t, 1, logs.FilterMessage("browser session cleanup timed out").Len())
}

func TestDrainRecordsFailuresWithoutAbortingSiblings(t *testing.T) {
	reg := NewRegistry(nil)
	broken := browsertest.NewDriver(browser.Edge)
	broken.QuitErr = errors.New("connection reset")
	ok := browsertest.NewDriver(browser.Chrome)
	ok.QuitDelay = 20 * time.Millisecond
	reg.AddDriver("broken", broken)
	reg.AddDriver("ok", ok)
	reg.SetCurrentSession("broken")

	report := Drain(context.Background(), reg, DrainOptions{SessionTimeout: time.Second, Timeout: 2 * time.Second}, nil)

	assert.Equal(t, []string{"ok"}, report.Closed)
	require.Contains(t, report.Failed, "broken")
	assert.EqualError(t, report.Failed["broken"], "connection reset")
	assert.Equal(t, 0, reg.Len())
	_, current := reg.CurrentSession()
	assert.False(t, current)
}

func TestDrainRecoversQuitPanic(t *testing.T) {
	reg := NewRegistry(nil)
	reg.AddDriver("p", panicDriver{browsertest.NewDriver(browser.Safari)})

	report := Drain(context.Background(), reg, DrainOptions{SessionTimeout: time.Second, Timeout: time.Second}, nil)
	require.Contains(t, report.Failed, "p")
	assert.Contains(t, report.Failed["p"].Error(), "quit panicked")
}

func TestDrainAggregateDeadlineAbandons(t *testing.T) {
	reg := NewRegistry(nil)
	reg.AddDriver("fast", browsertest.NewDriver(browser.Chrome))
	reg.AddDriver("slow", blockingDriver(t))

	opts := DrainOptions{SessionTimeout: 5 * time.Second, Timeout: 100 * time.Millisecond}

	var report DrainReport
	testutil.RequireReturnsWithin(t, time.Second, func() {
		report = Drain(context.Background(), reg, opts, nil)
	})

	assert.Equal(t, []string{"fast"}, report.Closed)
	assert.Equal(t, []string{"slow"}, report.Abandoned)
	assert.Empty(t, report.TimedOut)
	assert.Equal(t, 0, reg.Len())
}

func TestDrainStopsOnContextCancel(t *testing.T) {
	reg := NewRegistry(nil)
	reg.AddDriver("slow", blockingDriver(t))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var report DrainReport
	testutil.RequireReturnsWithin(t, time.Second, func() {
		report = Drain(ctx, reg, DrainOptions{SessionTimeout: 5 * time.Second, Timeout: 5 * time.Second}, nil)
	})
	assert.Equal(t, []string{"slow"}, report.Abandoned)
}

func TestDrainOptionsDefaults(t *testing.T) {
	opts := DrainOptions{}.withDefaults()
	assert.Equal(t, 5*time.Second, opts.SessionTimeout)
	assert.Equal(t, 10*time.Second, opts.Timeout)
}

type panicDriver struct {
	*browsertest.Driver
}

func (panicDriver) Quit() error {
	panic("driver exploded")
}

func TestQuitWithin(t *testing.T) {
	ok := browsertest.NewDriver(browser.Firefox)
	assert.NoError(t, QuitWithin(ok, time.Second))
	assert.Equal(t, 1, ok.QuitCount())

	failing := browsertest.NewDriver(browser.Firefox)
	failing.QuitErr = errors.New("gone")
	assert.EqualError(t, QuitWithin(failing, time.Second), "gone")

	hung := blockingDriver(t)
	var err error
	testutil.RequireReturnsWithin(t, time.Second, func() {
		err = QuitWithin(hung, 50*time.Millisecond)
	})
	assert.ErrorIs(t, err, ErrCleanupTimeout)
}
