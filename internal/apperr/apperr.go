// Package apperr carries the service error taxonomy. Every fallible domain
// operation returns an *Error with a stable kind and message; transport code
// maps kinds to HTTP statuses and never inspects message text.
package apperr

import "errors"

type Kind uint8

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindAuthentication
	KindForbidden
	KindConflict
	KindInternal
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap keeps the underlying cause for logs while callers see only the
// stable kind/message pair.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(msg string) *Error { return New(KindValidation, msg) }
func NotFound(msg string) *Error   { return New(KindNotFound, msg) }
func Forbidden(msg string) *Error  { return New(KindForbidden, msg) }
func Conflict(msg string) *Error   { return New(KindConflict, msg) }

// Shared sentinels. Invalid-credential and unknown-email failures share one
// value so login and reset flows cannot be used to enumerate accounts.
var (
	ErrInvalidCredentials = New(KindAuthentication, "invalid email or password")
	ErrEmailNotVerified   = New(KindForbidden, "email is not verified")
	ErrAccountBlocked     = New(KindForbidden, "account is blocked")
	ErrAccountNotFound    = New(KindNotFound, "account not found")

	ErrInvalidToken   = New(KindAuthentication, "invalid or expired token")
	ErrTokenExpired   = New(KindAuthentication, "token has expired")
	ErrSessionRevoked = New(KindAuthentication, "session has been revoked")

	ErrNoPendingOTP = New(KindAuthentication, "no pending code")
	ErrOTPExpired   = New(KindAuthentication, "code has expired")
	ErrOTPInvalid   = New(KindAuthentication, "invalid code")

	ErrWrongPassword = New(KindAuthentication, "current password is incorrect")
)

// KindOf reports the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
