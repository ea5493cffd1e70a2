// Package fault classifies workflow errors so callers can map them to
// HTTP statuses without string matching.
package fault

import (
	"context"
	"errors"
	"fmt"
)

// Kind names an error category.
type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindCommand    Kind = "command"
	KindFilesystem Kind = "filesystem"
	KindTransport  Kind = "transport"
	KindTimeout    Kind = "timeout"
	KindInternal   Kind = "internal"
)

// Error carries a Kind alongside the diagnostic message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg == "" && e.Err != nil:
		return e.Err.Error()
	case e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	default:
		return e.Msg
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to err. A nil err yields nil.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func NotFound(format string, args ...any) error   { return New(KindNotFound, format, args...) }
func Validation(format string, args ...any) error { return New(KindValidation, format, args...) }
func Conflict(format string, args ...any) error   { return New(KindConflict, format, args...) }

// KindOf returns the outermost Kind found in err's chain. Context deadline
// errors without an explicit kind are reported as KindTimeout.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}

// Is reports whether err is of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
