package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind names carried on the wire as the error "name".
const (
	KindValidation      = "validation"
	KindMulti           = "multiErr"
	KindDenied          = "denied"
	KindNotFound        = "notFound"
	KindConflict        = "conflict"
	KindNoModifications = "noModifications"
)

// AppError is a user-facing error: Message is shown verbatim by the client.
// Messages is only populated for multiErr.
type AppError struct {
	Name     string
	Message  string
	Messages []string
}

func (e *AppError) Error() string {
	if len(e.Messages) > 0 {
		return strings.Join(e.Messages, "; ")
	}
	return e.Message
}

// Is matches two AppErrors with the same name and message, so package-level
// sentinels work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Name == t.Name && e.Message == t.Message
}

// ErrNoModifications is returned when a write that must change at least one
// document changes none.
var ErrNoModifications = &AppError{Name: KindNoModifications, Message: "No modifications found"}

// ErrOptimisticLock means a conditional write matched fewer documents than it
// read inside the same critical section.
var ErrOptimisticLock = &AppError{Name: KindConflict, Message: "The record was modified by another operation, please refresh and retry"}

func Validation(format string, args ...any) *AppError {
	return &AppError{Name: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// MultiErr collapses to a single validation error when only one message is given.
func MultiErr(messages []string) *AppError {
	if len(messages) == 1 {
		return &AppError{Name: KindValidation, Message: messages[0]}
	}
	return &AppError{Name: KindMulti, Message: "Validation failed", Messages: messages}
}

func Denied(format string, args ...any) *AppError {
	return &AppError{Name: KindDenied, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *AppError {
	return &AppError{Name: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *AppError {
	return &AppError{Name: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// As extracts an AppError from an error chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasKind reports whether err carries an AppError of the given kind.
func HasKind(err error, kind string) bool {
	appErr, ok := As(err)
	return ok && appErr.Name == kind
}
