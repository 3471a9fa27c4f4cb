package scheduler

import (
	"errors"
	"fmt"
)

// Kind classifies why the scheduler rejected a call.
type Kind int

const (
	KindForbidden Kind = iota + 1
	KindNotFound
	KindInvalidRole
	KindOutOfHours
	KindInvalidDate
	KindSlotConflict
	KindInvalidRequest
	KindStoreUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindInvalidRole:
		return "invalid_role"
	case KindOutOfHours:
		return "out_of_hours"
	case KindInvalidDate:
		return "invalid_date"
	case KindSlotConflict:
		return "slot_conflict"
	case KindInvalidRequest:
		return "invalid_request"
	case KindStoreUnavailable:
		return "store_unavailable"
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so errors.Is(err, ErrSlotConflict) works for any message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrForbidden        = &Error{Kind: KindForbidden}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrInvalidRole      = &Error{Kind: KindInvalidRole}
	ErrOutOfHours       = &Error{Kind: KindOutOfHours}
	ErrInvalidDate      = &Error{Kind: KindInvalidDate}
	ErrSlotConflict     = &Error{Kind: KindSlotConflict}
	ErrInvalidRequest   = &Error{Kind: KindInvalidRequest}
	ErrStoreUnavailable = &Error{Kind: KindStoreUnavailable}
)

func newErr(k Kind, msg string) *Error { return &Error{Kind: k, Msg: msg} }

func wrapErr(k Kind, msg string, err error) *Error { return &Error{Kind: k, Msg: msg, Err: err} }

// KindOf reports the kind carried by err, or 0 when err is not a scheduler error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
