package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("upstream unauthorized")
	ErrUnauthenticated     = errors.New("user not authenticated")
	ErrRoomNotFound        = errors.New("room not found")
	ErrInvalidDateRange    = errors.New("invalid date range")
	ErrHandoffMissing      = errors.New("checkout state missing")
	ErrSuperseded          = errors.New("superseded by a newer search")
	ErrDiscountUnavailable = errors.New("discount unavailable")
	ErrSessionStarted      = errors.New("payment session already started")
	ErrSlotTaken           = errors.New("checkout widget already mounted")
)

type ErrorKind int

const (
	// KindValidation is handled locally and never reaches the network.
	KindValidation ErrorKind = iota + 1
	KindUpstream
	// KindHandoff is not recoverable in place; the user is sent back.
	KindHandoff
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUpstream:
		return "upstream"
	case KindHandoff:
		return "handoff"
	}
	return "unknown"
}

// UserError carries the one-line notification shown to the user.
type UserError struct {
	Kind     ErrorKind
	Message  string
	Redirect string
	Err      error
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *UserError) Unwrap() error { return e.Err }

func Validation(msg string, err error) *UserError {
	return &UserError{Kind: KindValidation, Message: msg, Err: err}
}

func Upstream(msg string, err error) *UserError {
	return &UserError{Kind: KindUpstream, Message: msg, Err: err}
}

func HandoffFailure(msg, redirect string, err error) *UserError {
	return &UserError{Kind: KindHandoff, Message: msg, Redirect: redirect, Err: err}
}

// AsUserError unwraps err into a *UserError when it carries one.
func AsUserError(err error) (*UserError, bool) {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// StatusOf returns the upstream HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var s interface{ HTTPStatus() int }
	if errors.As(err, &s) {
		return s.HTTPStatus()
	}
	return 0
}
