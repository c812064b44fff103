// Package testutil provides helpers for tests that wait on background work,
// such as a pass generator converging, with consistent timeouts.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	// DefaultTimeout bounds how long the Require helpers wait. Convergence of
	// the pass generator on a loaded CI runner is the slowest thing waited on.
	DefaultTimeout = 10 * time.Second
	// DefaultInterval is the poll period of the Require helpers.
	DefaultInterval = 5 * time.Millisecond
)

// Poll repeatedly checks condition until it returns true, the timeout
// expires, or ctx is done.
func Poll(ctx context.Context, condition func() bool, timeout, interval time.Duration) error {
	_, err := WaitForState(ctx, condition, func(ok bool) bool { return ok }, timeout, interval)
	return err
}

// WaitForState polls getter until its result satisfies predicate, returning
// that result. On timeout or cancellation it returns the zero value and an
// error.
func WaitForState[T any](ctx context.Context, getter func() T, predicate func(T) bool, timeout, interval time.Duration) (T, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if state := getter(); predicate(state) {
			return state, nil
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-deadline.C:
			var zero T
			return zero, fmt.Errorf("timeout waiting for state of type %T after %v", zero, timeout)
		case <-ticker.C:
		}
	}
}

// RequireState is WaitForState with the default timeout and interval,
// failing the test if the state is never reached.
func RequireState[T any](t testing.TB, getter func() T, predicate func(T) bool, msgAndArgs ...any) T {
	t.Helper()
	state, err := WaitForState(t.Context(), getter, predicate, DefaultTimeout, DefaultInterval)
	require.NoError(t, err, msgAndArgs...)
	return state
}
