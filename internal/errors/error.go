package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryDocument Category = "document"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
)

// ObserveError is a structured error with a code, an explanation and a fix
// suggestion.
type ObserveError struct {
	// Code is a unique error identifier (e.g., "R001").
	Code string

	// Category is the error type (document, config, cli).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Path is the document path or file the error refers to, if any.
	Path string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Status is the HTTP status for errors surfaced by the inspector.
	Status int

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *ObserveError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *ObserveError) Unwrap() error {
	return e.Wrapped
}

// Is matches another ObserveError with the same code.
func (e *ObserveError) Is(target error) bool {
	t, ok := target.(*ObserveError)
	return ok && t.Code != "" && t.Code == e.Code
}

// WithPath records the document path or file the error refers to.
func (e *ObserveError) WithPath(path string) *ObserveError {
	e.Path = path
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *ObserveError) WithSuggestion(s string) *ObserveError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *ObserveError) WithDetail(d string) *ObserveError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *ObserveError) Wrap(err error) *ObserveError {
	e.Wrapped = err
	return e
}

// New creates an ObserveError from a registered error code.
func New(code string) *ObserveError {
	template, ok := registry[code]
	if !ok {
		return &ObserveError{
			Code:    code,
			Message: "Unknown error",
			Status:  500,
		}
	}
	return &ObserveError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		Status:   template.Status,
	}
}

// Newf creates a new ObserveError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *ObserveError {
	return &ObserveError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
		Status:   500,
	}
}

// FromError wraps a standard error in an ObserveError. An ObserveError
// anywhere in err's chain is returned as is.
func FromError(err error, code string) *ObserveError {
	if err == nil {
		return nil
	}
	var oe *ObserveError
	if stderrors.As(err, &oe) {
		return oe
	}
	return New(code).Wrap(err)
}
