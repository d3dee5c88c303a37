package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/standardbeagle/webdriver-mcp/internal/browser"
)

const (
	DefaultSessionTimeout = 5 * time.Second
	DefaultDrainTimeout   = 10 * time.Second
)

// ErrCleanupTimeout marks a session whose Quit did not finish within its deadline.
var ErrCleanupTimeout = errors.New("session cleanup timed out")

// DrainOptions bound how long Drain waits. Zero values select the defaults.
type DrainOptions struct {
	// SessionTimeout bounds each Quit.
	SessionTimeout time.Duration
	// Timeout bounds the whole drain.
	Timeout time.Duration
}

func (o DrainOptions) withDefaults() DrainOptions {
	if o.SessionTimeout <= 0 {
		o.SessionTimeout = DefaultSessionTimeout
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultDrainTimeout
	}
	return o
}

// DrainReport records how every session ended. Each id appears in exactly one field.
type DrainReport struct {
	Closed    []string
	Failed    map[string]error
	TimedOut  []string
	Abandoned []string
}

// Clean reports whether every session quit without error in time.
func (r DrainReport) Clean() bool {
	return len(r.Failed) == 0 && len(r.TimedOut) == 0 && len(r.Abandoned) == 0
}

// Total returns the number of sessions the drain saw.
func (r DrainReport) Total() int {
	return len(r.Closed) + len(r.Failed) + len(r.TimedOut) + len(r.Abandoned)
}

type quitResult struct {
	id  string
	err error
}

// Drain quits every registered session concurrently. Each Quit is raced
// against opts.SessionTimeout and the whole drain against opts.Timeout (or
// ctx, whichever ends first). Quits that lose a race are abandoned, never
// retried. The registry is emptied and current reset before Drain returns,
// whatever the individual outcomes.
func Drain(ctx context.Context, reg *Registry, opts DrainOptions, logger *zap.Logger) DrainReport {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()

	defer func() {
		reg.ClearDrivers()
		reg.ResetCurrentSession()
	}()

	report := DrainReport{Failed: make(map[string]error)}
	sessions := reg.Snapshot()
	if len(sessions) == 0 {
		return report
	}

	logger.Info("closing browser sessions",
		zap.Int("count", len(sessions)),
		zap.Duration("session_timeout", opts.SessionTimeout),
		zap.Duration("timeout", opts.Timeout))

	results := make(chan quitResult, len(sessions))
	for id, d := range sessions {
		go func(id string, d browser.Driver) {
			results <- quitResult{id: id, err: QuitWithin(d, opts.SessionTimeout)}
		}(id, d)
	}

	deadline := time.NewTimer(opts.Timeout)
	defer deadline.Stop()

	pending := make(map[string]struct{}, len(sessions))
	for id := range sessions {
		pending[id] = struct{}{}
	}

collect:
	for len(pending) > 0 {
		select {
		case res := <-results:
			delete(pending, res.id)
			switch {
			case res.err == nil:
				report.Closed = append(report.Closed, res.id)
				logger.Debug("browser session closed", zap.String("session_id", res.id))
			case errors.Is(res.err, ErrCleanupTimeout):
				report.TimedOut = append(report.TimedOut, res.id)
				logger.Warn("browser session cleanup timed out", zap.String("session_id", res.id))
			default:
				report.Failed[res.id] = res.err
				logger.Error("failed to close browser session", zap.String("session_id", res.id), zap.Error(res.err))
			}
		case <-deadline.C:
			logger.Warn("session drain timed out", zap.Int("abandoned", len(pending)))
			break collect
		case <-ctx.Done():
			logger.Warn("session drain cancelled", zap.Int("abandoned", len(pending)), zap.Error(ctx.Err()))
			break collect
		}
	}

	for id := range pending {
		report.Abandoned = append(report.Abandoned, id)
	}
	sort.Strings(report.Closed)
	sort.Strings(report.TimedOut)
	sort.Strings(report.Abandoned)
	return report
}

// QuitWithin runs d.Quit and returns its result, or ErrCleanupTimeout if it
// has not returned after timeout. A late Quit keeps running on its goroutine.
func QuitWithin(d browser.Driver, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("quit panicked: %v", r)
			}
		}()
		done <- d.Quit()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("%w after %s", ErrCleanupTimeout, timeout)
	}
}
