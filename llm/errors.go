// Error taxonomy and diagnostics enrichment.
//
// Nothing here retries; retry policy belongs to the caller. Errors are
// classified once at the transport boundary and enriched with the
// provider's request-correlation id when the response headers carry one.

package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotSignedIn is returned before any network call when no valid
// credential is available.
var ErrNotSignedIn = errors.New("not signed in: set an API key or sign in before sending messages")

// Sentinel classes for transport failures. Wrapped so callers can pick
// a policy with errors.Is.
var (
	ErrRateLimit       = errors.New("rate limited")
	ErrAuthInvalid     = errors.New("authentication rejected")
	ErrContextOverflow = errors.New("request exceeds context window")
	ErrServer          = errors.New("provider server error")
)

// statusError maps a non-2xx response to a classified transport error.
// The body is truncated upstream; it is diagnostic text, not structure.
func statusError(statusCode int, body []byte) error {
	detail := fmt.Sprintf("API error %d: %s", statusCode, body)
	switch {
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimit, detail)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuthInvalid, detail)
	case statusCode == http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%w: %s", ErrContextOverflow, detail)
	case statusCode >= 500:
		return fmt.Errorf("%w: %s", ErrServer, detail)
	default:
		return errors.New(detail)
	}
}

// requestIDHeaders are checked in order for a provider-assigned
// request-correlation id.
var requestIDHeaders = []string{"X-Request-Id", "Request-Id", "Cf-Ray"}

// decorateRequestID appends the provider's request-correlation id to an
// error's message when the headers carry one. Classification is never
// changed, only diagnostics.
func decorateRequestID(err error, header http.Header) error {
	if err == nil || header == nil {
		return err
	}
	for _, name := range requestIDHeaders {
		if id := header.Get(name); id != "" {
			return fmt.Errorf("%w (request id: %s)", err, id)
		}
	}
	return err
}
