// Package serrors provides semantic error kinds shared by the fetch pipeline,
// the HTTP handlers and the CLI. A kind says what went wrong in terms a caller
// can act on (bad input, upstream failure, timeout) and carries the generic
// text shown to clients; the wrapped cause keeps the technical detail.
package serrors

import (
	"errors"
	"fmt"
)

// Kind is a semantic error category created with NewKind.
type Kind interface {
	error
	// Public is the generic client-facing description of the kind.
	Public() string
}

type kind struct {
	name   string
	public string
}

func (k kind) Error() string  { return k.name }
func (k kind) Public() string { return k.public }

// NewKind creates a semantic error kind named name. public is what clients see
// when an error of this kind carries no message of its own. Kinds are
// comparable sentinels usable with errors.Is and errors.As.
func NewKind(name, public string) Kind { return kind{name: name, public: public} }

var (
	ErrNotFound     = NewKind("NOT_FOUND", "resource not found")
	ErrUnauthorized = NewKind("UNAUTHORIZED", "unauthorized")
	ErrForbidden    = NewKind("FORBIDDEN", "forbidden")
	// ErrBadRequest covers invalid client input such as a missing or malformed URL.
	ErrBadRequest  = NewKind("BAD_REQUEST", "bad request")
	ErrConflict    = NewKind("CONFLICT", "conflict")
	ErrInternal    = NewKind("INTERNAL", "internal error")
	ErrTimeout     = NewKind("TIMEOUT", "request timed out")
	ErrUnavailable = NewKind("UNAVAILABLE", "service unavailable")
	ErrRateLimited = NewKind("RATE_LIMITED", "too many requests")
	// ErrUpstream means the remote site could not be reached or answered with
	// an unusable response.
	ErrUpstream = NewKind("UPSTREAM", "upstream error")
)

// Error is a semantic error: a kind plus a message, a wrapped cause, or both.
// errors.Is and errors.As see through it to the kind and to the cause.
type Error struct {
	kind Kind
	err  error
	msg  string
}

// With constructs a semantic error with a formatted message and no cause.
func With(k Kind, msgFmt string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(msgFmt, args...)}
}

// Wrap constructs a semantic error wrapping err with a formatted message.
func Wrap(k Kind, err error, msgFmt string, args ...any) *Error {
	return &Error{kind: k, err: err, msg: fmt.Sprintf(msgFmt, args...)}
}

// Error renders "<msg>: <cause>", falling back to whichever part is set and
// finally to the kind name.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	switch {
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	case e.kind != nil:
		return e.kind.Error()
	}

	return "unknown error"
}

func (e *Error) Unwrap() error { return e.err }

// Is matches the kind of e. Causes are reached through Unwrap.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)

	return ok && e != nil && e.kind == k
}

// As assigns the kind of e to a *Kind target. Causes are reached through Unwrap.
func (e *Error) As(target any) bool {
	kp, ok := target.(*Kind)
	if !ok || e == nil || e.kind == nil {
		return false
	}
	*kp = e.kind

	return true
}

func (e *Error) Kind() Kind      { return e.kind }
func (e *Error) Message() string { return e.msg }
func (e *Error) Cause() error    { return e.err }

// KindOf returns the outermost kind found in the chain of err: the kind of
// the first *Error, or err itself when it is a bare Kind. It returns nil when
// err carries no semantic kind.
func KindOf(err error) Kind {
	var k Kind
	if errors.As(err, &k) {
		return k
	}

	return nil
}

// PublicMessage returns the text a client may see for err. Semantic errors
// show their full message, bare kinds their generic text, and anything else
// is reported as an internal error without detail.
func PublicMessage(err error) string {
	var se *Error
	if errors.As(err, &se) && (se.msg != "" || se.err != nil) {
		return se.Error()
	}
	if k := KindOf(err); k != nil {
		return k.Public()
	}

	return ErrInternal.Public()
}
