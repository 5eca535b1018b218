package email

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation       ErrorKind = "validation"
	KindAuth             ErrorKind = "auth"
	KindBadRequest       ErrorKind = "bad_request"
	KindTransientService ErrorKind = "transient_service"
	KindUnexpectedStatus ErrorKind = "unexpected_status"
	KindEmptyCompletion  ErrorKind = "empty_completion"
	KindCancelled        ErrorKind = "cancelled"
)

// ClassificationError is the single error report surfaced to collaborators.
// Message is safe to show to a user; Err carries the diagnostic cause.
type ClassificationError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Err        error
}

func NewError(kind ErrorKind, message string, cause error) *ClassificationError {
	return &ClassificationError{Kind: kind, Message: message, Err: cause}
}

func NewStatusError(kind ErrorKind, status int, message string) *ClassificationError {
	return &ClassificationError{Kind: kind, Message: message, StatusCode: status}
}

func (e *ClassificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// Is matches another *ClassificationError by kind, so errors.Is(err, &ClassificationError{Kind: KindAuth}) works.
func (e *ClassificationError) Is(target error) bool {
	t, ok := target.(*ClassificationError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// AsClassificationError extracts the report from err, wrapping foreign errors as
// unexpected failures so that collaborators always get a kind and a message.
func AsClassificationError(err error) *ClassificationError {
	if err == nil {
		return nil
	}
	var ce *ClassificationError
	if errors.As(err, &ce) {
		return ce
	}
	return NewError(KindUnexpectedStatus, "An error occurred while categorizing the email. Please try again.", err)
}

// KindOf returns the kind of err, or "" when err is not a classification error.
func KindOf(err error) ErrorKind {
	var ce *ClassificationError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
