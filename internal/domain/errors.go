package domain

import "errors"

// Error kinds surfaced by the block engine. Wrap them with fmt.Errorf("%w")
// and match with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTypeMismatch    = errors.New("type mismatch")
	// ErrConflict means a concurrent writer won a race on a page's positions.
	// The whole operation may be retried.
	ErrConflict = errors.New("conflict")
	// ErrInternal is a consistency failure. It is never retried.
	ErrInternal = errors.New("internal error")
)

// ErrorKind names the kind of err, or "unknown" if it wraps none of the
// engine's sentinel errors.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, ErrInternal):
		return "internal"
	case errors.Is(err, ErrConflict):
		return "conflict"
	}
	return "unknown"
}
