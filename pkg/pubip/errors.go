package pubip

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedAnswer is returned when a lookup target answers with
	// something that is not an IP literal of the requested family.
	ErrMalformedAnswer = errors.New("answer is not a valid ip literal")
	// ErrNoCandidates is returned when a race is started with an empty
	// target set.
	ErrNoCandidates = errors.New("no lookup candidates configured")
)

// NotFoundError is the terminal failure returned when every lookup strategy
// is exhausted without producing a valid address. Cause carries the
// aggregated candidate failures of the last strategy tried, most recent
// last. Cancellation and timeouts are never wrapped into a NotFoundError;
// they surface as the context's own error so callers can tell "no address
// found" apart from "gave up waiting".
type NotFoundError struct {
	Cause error
}

func (e *NotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("public ip not found: %v", e.Cause)
	}
	return "public ip not found"
}

func (e *NotFoundError) Unwrap() error { return e.Cause }
