package errors

import (
	goerrors "errors"
	"fmt"
	"reflect"
)

type Error interface {
	error
	New(args ...any) BaseError
	Wrap(cause error, args ...any) BaseError
}

type BaseError struct {
	Code    int    `json:"code"`
	Name    string `json:"name"`
	Message string `json:"message"`

	messageFormat string
	cause         error
}

func (e BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.cause)
	}

	return e.Message
}

func (e BaseError) Unwrap() error {
	return e.cause
}

// New returns a copy of the error with its message formatted from args.
func (e *BaseError) New(args ...any) BaseError {

	created := *e
	created.Message = e.format(args...)
	created.cause = nil

	return created
}

// Wrap is New with an underlying cause kept for errors.Is/As.
func (e *BaseError) Wrap(cause error, args ...any) BaseError {

	created := e.New(args...)
	created.cause = cause

	return created
}

func (e BaseError) format(args ...any) string {

	if len(args) == 0 {
		return e.messageFormat
	}

	return fmt.Sprintf(e.messageFormat, args...)
}

func (e BaseError) IsNil() bool {
	return reflect.ValueOf(e).IsZero()
}

func TryAssertError(err error) (BaseError, bool) {

	var asserted BaseError
	ok := goerrors.As(err, &asserted)
	return asserted, ok
}

func IsError(err error, expectedError BaseError) bool {

	asserted, ok := TryAssertError(err)
	if !ok {
		return false
	}

	return asserted.Code == expectedError.Code && asserted.Message == expectedError.Message
}

// HasCode reports whether err is a coded error with the given code.
func HasCode(err error, code int) bool {

	asserted, ok := TryAssertError(err)
	return ok && asserted.Code == code
}

func new(errorCode int, name string, messageFormat string) Error {

	return &BaseError{Code: errorCode, Name: name, Message: messageFormat, messageFormat: messageFormat}
}
