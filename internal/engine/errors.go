package engine

import (
	"errors"
	"fmt"
)

// Error is returned for commands the engine cannot even attempt.
//
// A well-formed command that the session or puzzle refuses is not an error;
// it comes back as a Result with Accepted false.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Command is the offending command kind, if any.
	Command CommandKind
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeUnknownCommand indicates a command kind the engine does not know.
	ErrCodeUnknownCommand ErrorCode = "UNKNOWN_COMMAND"

	// ErrCodeMissingArgument indicates a command without a required field.
	ErrCodeMissingArgument ErrorCode = "MISSING_ARGUMENT"

	// ErrCodeStopped indicates the engine no longer accepts commands.
	ErrCodeStopped ErrorCode = "ENGINE_STOPPED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidCommand reports whether err rejects a malformed command.
func IsInvalidCommand(err error) bool {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeUnknownCommand || ee.Code == ErrCodeMissingArgument
	}
	return false
}

// IsStopped reports whether err comes from a stopped engine.
func IsStopped(err error) bool {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeStopped
	}
	return false
}

var errStopped = &Error{Code: ErrCodeStopped, Message: "engine stopped"}
