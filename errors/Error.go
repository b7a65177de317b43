// Package errors is the coded error type used across txgate. Every error carries an ERR code, which is what
// Is compares, and optionally wraps the error that caused it. The package mirrors the std errors helpers so
// callers import a single errors package.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

type Error struct {
	code    ERR
	message string
	wrapped error
}

// Interface is implemented by *Error.
type Interface interface {
	error
	Is(target error) bool
	Unwrap() error
	Code() ERR
	Message() string
	WrappedErr() error
}

// New creates an error with the given code. A trailing error param is wrapped, the other params format
// message.
func New(code ERR, message string, params ...interface{}) *Error {
	var wrapped error

	if n := len(params); n > 0 {
		if err, ok := params[n-1].(error); ok {
			wrapped = err
			params = params[:n-1]
		}
	}

	if len(params) > 0 {
		message = fmt.Sprintf(message, params...)
	}

	if _, ok := ERR_name[code]; !ok {
		message = "invalid error code"
	}

	return &Error{code: code, message: message, wrapped: wrapped}
}

// Error renders as NAME (code): message, followed by the wrapped error when there is one.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "%s (%d): %s", e.code, e.code, e.message)

	if e.wrapped != nil {
		sb.WriteString(": ")
		sb.WriteString(e.wrapped.Error())
	}

	return sb.String()
}

// Is matches on the code of e or of any *Error it wraps directly. Other targets are left to the std
// unwrap chain.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}

	for cur := e; cur != nil; {
		if cur.code == t.code {
			return true
		}

		next, ok := cur.wrapped.(*Error)
		if !ok {
			return false
		}

		cur = next
	}

	return false
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.wrapped
}

func (e *Error) Code() ERR {
	if e == nil {
		return ERR_UNKNOWN
	}

	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}

	return e.message
}

func (e *Error) WrappedErr() error {
	return e.Unwrap()
}

// Join concatenates the messages of the non nil errs, nil when there are none.
func Join(errs ...error) error {
	messages := make([]string, 0, len(errs))

	for _, err := range errs {
		if err != nil {
			messages = append(messages, err.Error())
		}
	}

	if len(messages) == 0 {
		return nil
	}

	return errors.New(strings.Join(messages, ", "))
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}
