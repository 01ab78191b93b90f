package errors

import (
	"fmt"
	"reflect"
	"runtime"
)

// Category represents the type of error.
type Category string

const (
	CategoryRender    Category = "render"
	CategoryCommit    Category = "commit"
	CategoryHost      Category = "host"
	CategoryScheduler Category = "scheduler"
	CategoryProtocol  Category = "protocol"
	CategoryConfig    Category = "config"
	CategoryCLI       Category = "cli"
)

// Location represents a source code location.
type Location struct {
	File string
	Line int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Error is a structured error with a registered code.
type Error struct {
	// Code is a unique error identifier (e.g., "E101").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Component names the component being rendered when the error occurred.
	Component string

	// Location is where the component function is declared, if known.
	Location *Location

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Code == "" {
		return false
	}
	return t.Code == e.Code
}

// WithComponent records the component that was rendering.
func (e *Error) WithComponent(name string) *Error {
	e.Component = name
	return e
}

// WithFunc records the component name and the declaration site of fn.
func (e *Error) WithFunc(name string, fn any) *Error {
	e.Component = name
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return e
	}
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		file, line := f.FileLine(f.Entry())
		e.Location = &Location{File: file, Line: line}
	}
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted explanation to the error.
func (e *Error) WithDetailf(format string, args ...any) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
	}
}

// Newf creates a new Error with a formatted message (no code).
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an Error.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	if fe, ok := err.(*Error); ok {
		return fe
	}
	return New(code).Wrap(err)
}

// HasCode reports whether err, or any error it wraps, carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		if fe, ok := err.(*Error); ok && fe.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
