package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// errCallerGone wraps errors caused by the caller's context ending mid-call.
// The breaker does not count them against the dependency.
var errCallerGone = errors.New("caller went away")

// NewCircuitBreaker returns a gobreaker configured to trip after 3 consecutive
// failures and to half-open 30 seconds later. State changes are logged.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// countsAsSuccess keeps cancellations out of the failure count.
func countsAsSuccess(err error) bool {
	return err == nil || errors.Is(err, errCallerGone) || errors.Is(err, context.Canceled)
}

// callerGone tags err when ctx has already ended, so the breaker ignores it.
func callerGone(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %w", errCallerGone, err)
	}
	return err
}

// isBreakerRejection reports whether err came from the breaker itself rather
// than from the wrapped call.
func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
