package ai

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrUnavailable marks failures worth retrying: transport errors,
	// timeouts and 5xx responses.
	ErrUnavailable = errors.New("external service unavailable")
	// ErrBadResponse marks a reply that was delivered but cannot be used.
	ErrBadResponse = errors.New("external service bad response")
)

const maxErrorBody = 4 << 10

func statusError(service string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%s response status %d: %s: %w", service, resp.StatusCode, string(raw), ErrUnavailable)
	}
	return fmt.Errorf("%s response status %d: %s: %w", service, resp.StatusCode, string(raw), ErrBadResponse)
}
