package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryReactive  Category = "reactive"
	CategoryScheduler Category = "scheduler"
	CategoryRender    Category = "render"
	CategoryLifecycle Category = "lifecycle"
	CategoryPlugin    Category = "plugin"
	CategoryConfig    Category = "config"
	CategoryCLI       Category = "cli"
)

// LoomError is a structured error with a registered code.
type LoomError struct {
	// Code is a unique error identifier (e.g., "E101").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Component names the component the error is attached to, if any.
	Component string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Stack is the goroutine stack captured when a panic was recovered.
	Stack string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *LoomError) Error() string {
	msg := e.Message
	if e.Component != "" {
		msg = fmt.Sprintf("%s (component %s)", msg, e.Component)
	}
	if e.Wrapped != nil {
		msg = msg + ": " + e.Wrapped.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *LoomError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a LoomError with the same code.
// This lets sentinel values created with New match wrapped instances.
func (e *LoomError) Is(target error) bool {
	t, ok := target.(*LoomError)
	if !ok || t.Code == "" {
		return false
	}
	return t.Code == e.Code
}

// WithDetail adds a detailed explanation to the error.
func (e *LoomError) WithDetail(d string) *LoomError {
	e.Detail = d
	return e
}

// WithComponent records the component name the error belongs to.
func (e *LoomError) WithComponent(name string) *LoomError {
	e.Component = name
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *LoomError) WithSuggestion(s string) *LoomError {
	e.Suggestion = s
	return e
}

// WithStack attaches a captured stack trace.
func (e *LoomError) WithStack(stack []byte) *LoomError {
	e.Stack = string(stack)
	return e
}

// Wrap wraps another error.
func (e *LoomError) Wrap(err error) *LoomError {
	e.Wrapped = err
	return e
}

// New creates a LoomError from a registered error code.
func New(code string) *LoomError {
	template, ok := registry[code]
	if !ok {
		return &LoomError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &LoomError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new LoomError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *LoomError {
	return &LoomError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a LoomError.
// Errors that already are LoomErrors are returned unchanged.
func FromError(err error, code string) *LoomError {
	if err == nil {
		return nil
	}
	if le, ok := err.(*LoomError); ok {
		return le
	}
	return New(code).Wrap(err)
}

// FromPanic converts a recovered panic value into a LoomError.
// If the value already is an error it is wrapped, otherwise it is formatted.
func FromPanic(code string, r any, stack []byte) *LoomError {
	var cause error
	switch v := r.(type) {
	case *LoomError:
		return v
	case error:
		cause = v
	default:
		cause = fmt.Errorf("panic: %v", v)
	}
	return New(code).Wrap(cause).WithStack(stack)
}
