// Package testutil holds wait and logging helpers shared by package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// WaitForCondition polls condition every 10ms until it holds or timeout passes.
func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if condition() {
			return true
		}
		<-ticker.C
		if time.Now().After(deadline) {
			return condition()
		}
	}
}

// RequireEventually fails the test if condition does not hold within timeout.
func RequireEventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	t.Helper()
	require.True(t, WaitForCondition(t, timeout, condition), "Condition not met within %v: %s", timeout, msg)
}

// WaitForCount waits for counter to return expected.
func WaitForCount(t *testing.T, timeout time.Duration, counter func() int, expected int) {
	t.Helper()
	RequireEventually(t, timeout, func() bool {
		return counter() == expected
	}, fmt.Sprintf("Expected count %d", expected))
}

// RequireReturnsWithin runs fn on a goroutine and fails the test if it has
// not returned after timeout. It returns how long fn took.
func RequireReturnsWithin(t *testing.T, timeout time.Duration, fn func()) time.Duration {
	t.Helper()

	start := time.Now()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()

	select {
	case <-done:
		return time.Since(start)
	case <-time.After(timeout):
		require.FailNow(t, "operation did not return in time", "timeout %v", timeout)
		return 0
	}
}
