package crawler

import (
	"net/http"
	"strings"
)

// Origin status defaults for the target site.
const (
	DefaultStatusHeader   = "X-Bbc-Origin-Response-Status"
	DefaultAcceptedStatus = "200"
)

// ResponseValidator accepts a response only when its origin status header
// carries the accepted value. robots.txt responses are always accepted.
type ResponseValidator struct {
	header   string
	accepted string
}

// NewResponseValidator builds a validator; empty arguments select the defaults.
func NewResponseValidator(header, accepted string) ResponseValidator {
	if strings.TrimSpace(header) == "" {
		header = DefaultStatusHeader
	}
	if strings.TrimSpace(accepted) == "" {
		accepted = DefaultAcceptedStatus
	}
	return ResponseValidator{header: http.CanonicalHeaderKey(header), accepted: accepted}
}

// Validate returns nil for an accepted response and a *StatusError otherwise.
// A missing header is reported with an empty status.
func (v ResponseValidator) Validate(resp FetchResponse) error {
	if IsRobotsURL(resp.URL) {
		return nil
	}
	status := strings.TrimSpace(resp.Headers.Get(v.header))
	if status == v.accepted {
		return nil
	}
	return &StatusError{URL: resp.URL, Status: status}
}
