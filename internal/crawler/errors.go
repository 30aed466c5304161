package crawler

import (
	"errors"
	"fmt"
)

// Error taxonomy for per-URL failures.
var (
	// ErrDuplicateURL means the URL is already stored or already claimed in this run.
	ErrDuplicateURL = errors.New("url already processed")
	// ErrBadUpstreamStatus means the origin status signal was not the accepted value.
	ErrBadUpstreamStatus = errors.New("bad upstream status")
	// ErrTransport wraps network failures during a fetch.
	ErrTransport = errors.New("transport failure")
	// ErrStorage wraps failures reading from or writing to the record store.
	ErrStorage = errors.New("storage failure")
	// ErrRobotsDisallowed means robots.txt forbids the URL for our identity.
	ErrRobotsDisallowed = errors.New("disallowed by robots.txt")
	// ErrEmptySeedList is returned when a seed source yields no usable URL.
	ErrEmptySeedList = errors.New("seed list is empty")
	// ErrPipelineNotStarted is returned when Process runs before Start.
	ErrPipelineNotStarted = errors.New("pipeline not started")
)

// StatusError reports a response rejected by the ResponseValidator.
type StatusError struct {
	URL    string
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("origin status %q for %s", e.Status, e.URL)
}

// Unwrap lets errors.Is match ErrBadUpstreamStatus.
func (e *StatusError) Unwrap() error {
	return ErrBadUpstreamStatus
}
