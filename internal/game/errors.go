package game

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindUnauthorized  Kind = "unauthorized"
	KindForbidden     Kind = "forbidden"
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindGameCompleted Kind = "game_completed"
	KindStore         Kind = "store"
)

// Error carries one of the failure kinds callers branch on. Message is safe
// to show to players; Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) error {
	return newError(KindUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) error {
	return newError(KindForbidden, format, args...)
}

func Validation(format string, args ...any) error {
	return newError(KindValidation, format, args...)
}

func NotFound(format string, args ...any) error {
	return newError(KindNotFound, format, args...)
}

func Conflict(format string, args ...any) error {
	return newError(KindConflict, format, args...)
}

func Completed(format string, args ...any) error {
	return newError(KindGameCompleted, format, args...)
}

func StoreFailure(message string, err error) error {
	return &Error{Kind: KindStore, Message: message, Err: err}
}

var (
	ErrNameTaken     = &Error{Kind: KindConflict, Message: "this name is already taken"}
	ErrQuotaExceeded = &Error{Kind: KindValidation, Message: "submission limit reached"}
	ErrTargetMissing = &Error{Kind: KindValidation, Message: "roast submissions need a target player"}
	ErrAlreadyVoted  = &Error{Kind: KindConflict, Message: "vote already submitted"}
	ErrNothingToShow = &Error{Kind: KindNotFound, Message: "no submissions left to reveal"}
)

// KindOf returns the kind of the first *Error in err's chain, or KindStore for
// anything unclassified.
func KindOf(err error) Kind {
	var gameErr *Error
	if errors.As(err, &gameErr) {
		return gameErr.Kind
	}
	return KindStore
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the player-facing text for err.
func Message(err error) string {
	var gameErr *Error
	if errors.As(err, &gameErr) {
		return gameErr.Message
	}
	return "something went wrong"
}
