package errors

import (
	"errors"
	"fmt"
)

// Re-exported so that callers need a single errors import.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

type appError struct {
	code    ErrorCode
	message string
	cause   error
	data    any
}

// Error prints "<message>[: <data or cause>]". Data wins over the cause;
// the cause stays reachable through Unwrap.
func (e *appError) Error() string {
	msg := e.message
	if msg == "" {
		msg = GetErrorMessage(e.code)
	}

	switch {
	case e.data != nil:
		return fmt.Sprintf("%s: %v", msg, e.data)
	case e.cause != nil:
		return fmt.Sprintf("%s: %v", msg, e.cause)
	default:
		return msg
	}
}

func (e *appError) Code() ErrorCode { return e.code }
func (e *appError) GetData() any    { return e.data }
func (e *appError) Unwrap() error   { return e.cause }

func (e *appError) WithMessage(msg string) Error {
	c := *e
	c.message = msg
	return &c
}

func (e *appError) WithData(data any) Error {
	c := *e
	c.data = data
	return &c
}

type factory struct{}

func (factory) New(code ErrorCode) Error {
	return &appError{code: code}
}

func (factory) Wrap(code ErrorCode, err error) Error {
	return &appError{code: code, cause: err}
}

func (factory) WithMessage(code ErrorCode, msg string) Error {
	return &appError{code: code, message: msg}
}

func (factory) WithData(code ErrorCode, data any) Error {
	return &appError{code: code, data: data}
}

// New returns the error factory.
func New() Factory {
	return factory{}
}

// CodeOf returns the code of the first Error in err's chain, or
// ErrInternal when there is none.
func CodeOf(err error) ErrorCode {
	var e Error
	if As(err, &e) {
		return e.Code()
	}

	return ErrInternal
}

// HasCode reports whether any Error in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if e, ok := err.(Error); ok && e.Code() == code {
			return true
		}
		err = Unwrap(err)
	}

	return false
}
