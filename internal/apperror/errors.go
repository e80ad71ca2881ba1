// Package apperror holds the error taxonomy shared by the session bridge,
// the document API client and the poll loop.
//
// Sentinels are matched with errors.Is; the typed failures carry the
// operation context and unwrap to both their sentinel and their cause.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthRequired is returned when a protected call is attempted
	// without a backend token. The request is never sent.
	ErrAuthRequired = errors.New("backend token absent: not yet authorized")

	ErrExchangeFailed = errors.New("identity exchange failed")
	ErrFetchFailed    = errors.New("document fetch failed")
	ErrDeleteFailed   = errors.New("document delete failed")
)

// StatusError is a non-2xx answer from the remote service. Body is kept as
// diagnostic text only.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 or 403 from the remote service.
// The display layer shows both as "Document not found".
func IsNotFound(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusNotFound || se.StatusCode == http.StatusForbidden
	}
	return false
}

// StatusCode extracts the HTTP status from err, or 0 when err did not come
// from a response (transport failure, decode failure).
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// ExchangeFailure means the identity -> backend login step did not yield a
// token. It is logged and absorbed; callers only inspect it.
type ExchangeFailure struct {
	Subject string
	Cause   error
}

func (e *ExchangeFailure) Error() string {
	return fmt.Sprintf("identity exchange for %q failed: %v", e.Subject, e.Cause)
}

func (e *ExchangeFailure) Unwrap() []error { return []error{ErrExchangeFailed, e.Cause} }

// FetchFailure is terminal for the document id it names.
type FetchFailure struct {
	DocumentId string
	Cause      error
}

func (e *FetchFailure) Error() string {
	return fmt.Sprintf("fetch document %s: %v", e.DocumentId, e.Cause)
}

func (e *FetchFailure) Unwrap() []error { return []error{ErrFetchFailed, e.Cause} }

// DeleteFailure is surfaced synchronously to the action that started the
// delete. Nothing is retried.
type DeleteFailure struct {
	DocumentId string
	Cause      error
}

func (e *DeleteFailure) Error() string {
	return fmt.Sprintf("delete document %s: %v", e.DocumentId, e.Cause)
}

func (e *DeleteFailure) Unwrap() []error { return []error{ErrDeleteFailed, e.Cause} }
