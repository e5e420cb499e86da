// Package apperr defines the error taxonomy shared by the lifecycle, billing and service layers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to react to it, such as HTTP handlers.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindForbidden          Kind = "forbidden"
	KindInvalidTransition  Kind = "invalid_transition"
	KindValidation         Kind = "validation"
	KindAlreadyPaid        Kind = "already_paid"
	KindNotVerified        Kind = "not_verified"
	KindNoIssueRaised      Kind = "no_issue_raised"
	KindGateway            Kind = "gateway"
	KindScoringUnavailable Kind = "scoring_unavailable"
	KindConflict           Kind = "conflict"
	KindInternal           Kind = "internal"
)

// Sentinels for errors.Is. Any *Error of the same kind matches.
var (
	ErrNotFound           = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrForbidden          = &Error{Kind: KindForbidden, Msg: "forbidden"}
	ErrInvalidTransition  = &Error{Kind: KindInvalidTransition, Msg: "invalid transition"}
	ErrValidation         = &Error{Kind: KindValidation, Msg: "validation failed"}
	ErrAlreadyPaid        = &Error{Kind: KindAlreadyPaid, Msg: "already paid"}
	ErrNotVerified        = &Error{Kind: KindNotVerified, Msg: "application not verified"}
	ErrNoIssueRaised      = &Error{Kind: KindNoIssueRaised, Msg: "no issue raised"}
	ErrGateway            = &Error{Kind: KindGateway, Msg: "payment gateway error"}
	ErrScoringUnavailable = &Error{Kind: KindScoringUnavailable, Msg: "scoring backend unavailable"}
	ErrConflict           = &Error{Kind: KindConflict, Msg: "conflict"}
)

type Error struct {
	Kind Kind
	Msg  string
	// Detail is provider or internal detail that should only reach non-production clients.
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func NotFound(what string) *Error {
	return Newf(KindNotFound, "%s not found", what)
}

func Forbidden(msg string) *Error {
	return New(KindForbidden, msg)
}

func Validation(msg string) *Error {
	return New(KindValidation, msg)
}

func InvalidTransition(trigger, from string) *Error {
	return Newf(KindInvalidTransition, "cannot %s application in status %s", trigger, from)
}

// Gateway wraps a payment provider failure, keeping the provider detail separately.
func Gateway(msg string, err error) *Error {
	e := &Error{Kind: KindGateway, Msg: msg, Err: err}
	if err != nil {
		e.Detail = err.Error()
	}
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// DetailOf returns the detail attached to the first *Error in err's chain.
func DetailOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return ""
}
