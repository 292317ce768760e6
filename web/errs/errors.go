// Package errs enables error handling and definition at the http/app level.
package errs

import (
	"fmt"
	"net/http"
	"runtime"
)

// Error represents an error in the system.
type Error struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	FuncName string `json:"-"`
	FileName string `json:"-"`
	InnerErr bool   `json:"-"`
}

// New constructs an error based on an app error.
func New(code int, err error) *Error {
	pc, filename, line, _ := runtime.Caller(1)

	return &Error{
		Code:     code,
		Message:  err.Error(),
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
	}
}

// Newf constructs an error from a format string.
func Newf(code int, format string, args ...any) *Error {
	pc, filename, line, _ := runtime.Caller(1)

	return &Error{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
	}
}

// NewInternal creates an error that is not intended
// to be seen by users.
func NewInternal(err error) *Error {
	pc, filename, line, _ := runtime.Caller(1)

	return &Error{
		Code:     http.StatusInternalServerError,
		Message:  err.Error(),
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
		InnerErr: true,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// IsInternal returns true if the error is internal.
func (e *Error) IsInternal() bool {
	return e.InnerErr
}
