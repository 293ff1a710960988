// Package errs defines the error-kind sum type shared across the pipeline.
//
// Each kind wraps an inner cause so callers can still errors.As/errors.Is
// through to the original failure while switching on the kind for policy
// decisions (exec.error, HTTP status mapping, ...).
package errs

import "fmt"

// Kind tags a jdbcx-core error for dispatch without string matching.
type Kind int

const (
	KindParse Kind = iota
	KindResolve
	KindConfig
	KindExecution
	KindTimeout
	KindCancellation
	KindAuth
	KindAcl
	KindCacheFull
	KindInvalidState
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindResolve:
		return "resolve"
	case KindConfig:
		return "config"
	case KindExecution:
		return "execution"
	case KindTimeout:
		return "timeout"
	case KindCancellation:
		return "cancellation"
	case KindAuth:
		return "auth"
	case KindAcl:
		return "acl"
	case KindCacheFull:
		return "cache_full"
	case KindInvalidState:
		return "invalid_state"
	case KindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Error is the common shape for every kind below.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func ParseError(format string, args ...any) *Error { return newf(KindParse, format, args...) }

func ResolveError(format string, args ...any) *Error { return newf(KindResolve, format, args...) }

func ConfigError(cause error, format string, args ...any) *Error {
	return wrap(KindConfig, cause, format, args...)
}

func ExecutionError(backend string, cause error) *Error {
	return wrap(KindExecution, cause, "backend %q failed", backend)
}

func TimeoutError(format string, args ...any) *Error { return newf(KindTimeout, format, args...) }

func CancellationError(format string, args ...any) *Error {
	return newf(KindCancellation, format, args...)
}

func AuthError(format string, args ...any) *Error { return newf(KindAuth, format, args...) }

func AclError(format string, args ...any) *Error { return newf(KindAcl, format, args...) }

func CacheFullError(format string, args ...any) *Error { return newf(KindCacheFull, format, args...) }

func InvalidStateError(format string, args ...any) *Error {
	return newf(KindInvalidState, format, args...)
}

func UnsupportedError(format string, args ...any) *Error {
	return newf(KindUnsupported, format, args...)
}

// Is reports whether err (or something it wraps) carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ae, ok := err.(*Error); ok {
			e = ae
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}

// ResourceLeak is logged, never thrown — kept distinct from Error so a
// caller cannot accidentally propagate it as a failure.
type ResourceLeak struct {
	Resource string
	Cause    error
}

func (r ResourceLeak) String() string {
	return fmt.Sprintf("resource leak: %s: %v", r.Resource, r.Cause)
}
