package metaverify

import (
	"errors"
	"fmt"
)

// Application error codes.
const (
	EINVALID    = "invalid"
	ETIMEOUT    = "timeout"
	ECONNECTION = "connection"
	EHTTP       = "http"
	EUNEXPECTED = "unexpected"
	EINTERNAL   = "internal"
)

// Error represents an application-specific error. Application errors can be
// unwrapped by the caller to extract out the code & message.
//
// Any non-application error (such as a panic or an unclassified transport
// failure) is reported as an internal error and its message is not shown to
// the end user.
type Error struct {
	// Machine-readable error code.
	Code string

	// Human-readable error message.
	Message string

	// Status is the HTTP status returned by the remote site. Only set for EHTTP.
	Status int
}

// Error implements the error interface. Not used by the application otherwise.
func (e *Error) Error() string {
	return fmt.Sprintf("metaverify error: code=%s message=%s", e.Code, e.Message)
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// HTTPErrorf returns an EHTTP error carrying the remote status code.
func HTTPErrorf(status int, format string, args ...any) *Error {
	return &Error{
		Code:    EHTTP,
		Message: fmt.Sprintf(format, args...),
		Status:  status,
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error.".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// ErrorStatus returns the remote HTTP status carried by an EHTTP error, or 0.
func ErrorStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
