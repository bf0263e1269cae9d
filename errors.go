package fetch

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies every failure a fetch can produce.
type Kind int

const (
	// KindValidation covers input misuse caught before any I/O: malformed
	// URLs, forbidden header mutations, GET/HEAD with a body, reuse of a
	// consumed body, invalid enum values.
	KindValidation Kind = iota + 1
	// KindNetwork covers transport failures, malformed responses and
	// redirect policy failures.
	KindNetwork
	// KindAbort covers cancellation through an AbortSignal.
	KindAbort
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindAbort:
		return "abort"
	}
	return "unknown"
}

// Sentinels for errors.Is. Every *Error matches the sentinel of its kind.
var (
	ErrValidation = errors.New("validation error")
	ErrNetwork    = errors.New("network error")
	ErrAbort      = errors.New("operation aborted")

	// ErrBodyUsed is the cause of the validation error returned when a
	// Locked or Disturbed body is read again.
	ErrBodyUsed = errors.New("body already used")
)

// Error is the single error type surfaced by this package.
type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("fetch: %s: %s: %s", e.kind, e.msg, e.cause)
	}
	return fmt.Sprintf("fetch: %s: %s", e.kind, e.msg)
}

func (e *Error) Kind() Kind { return e.kind }

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.kind == KindValidation
	case ErrNetwork:
		return e.kind == KindNetwork
	case ErrAbort:
		return e.kind == KindAbort
	}
	return false
}

func newValidationError(format string, args ...any) *Error {
	return &Error{kind: KindValidation, msg: fmt.Sprintf(format, args...)}
}

func newBodyUsedError() *Error {
	return &Error{kind: KindValidation, msg: "body state", cause: ErrBodyUsed}
}

func newNetworkError(cause error, format string, args ...any) *Error {
	return &Error{kind: KindNetwork, msg: fmt.Sprintf(format, args...), cause: cause}
}

func newAbortError(reason error) *Error {
	return &Error{kind: KindAbort, msg: "the operation was aborted", cause: reason}
}
