package service

import (
	"errors"
	"fmt"

	"github.com/abenikeb/biisho-a2p/internal/model"
)

var (
	ErrMessageNotFound       = errors.New("MESSAGE_NOT_FOUND")
	ErrAccountNotFound       = errors.New("ACCOUNT_NOT_FOUND")
	ErrNoRecipients          = errors.New("NO_RECIPIENTS")
	ErrInsufficientCredits   = errors.New("INSUFFICIENT_CREDITS")
	ErrMessageNotEditable    = errors.New("MESSAGE_NOT_EDITABLE")
	ErrInvalidSenderIdentity = errors.New("INVALID_SENDER_IDENTITY")
	ErrDatabase              = errors.New("DATABASE_ERROR")
)

type Error struct {
	Code  string
	Cause error
}

func NewServiceError(code string, cause error) error {
	return Error{Code: code, Cause: cause}
}

func (e Error) Error() string {
	return e.Cause.Error()
}

func (e Error) Unwrap() error {
	return e.Cause
}

// InvalidTransitionError reports the exact transition the state machine
// refused: the status the message is in, the status that was requested, and
// the rule that blocked it.
type InvalidTransitionError struct {
	From model.MessageStatus
	To   model.MessageStatus
	Rule string
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s: %s", e.From, e.To, e.Rule)
}

// InvalidMessageError carries the validation detail for malformed content,
// category or schedule.
type InvalidMessageError struct {
	Reason string
}

func (e InvalidMessageError) Error() string {
	return fmt.Sprintf("invalid message: %s", e.Reason)
}
