package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingParam is returned when a required lookup parameter is empty.
	ErrMissingParam = errors.New("missing parameter")

	// ErrInvalidParam is returned when a parameter is present but not accepted.
	ErrInvalidParam = errors.New("invalid parameter")

	// ErrUpstreamUnavailable is returned while an upstream's circuit breaker is
	// open and requests are rejected without being sent.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// UpstreamStatusError carries a non-2xx status returned by an upstream after
// all retries were spent. Handlers relay Status to the caller.
type UpstreamStatusError struct {
	Upstream string
	Status   int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("%s responded with status %d", e.Upstream, e.Status)
}

// StatusOf returns the upstream status carried by err, if any.
func StatusOf(err error) (int, bool) {
	var se *UpstreamStatusError
	if errors.As(err, &se) {
		return se.Status, true
	}
	return 0, false
}
