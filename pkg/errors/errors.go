package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	// ErrorTypeConfiguration covers bad year ranges, missing credentials and
	// missing or malformed coordinate files. Always fatal, raised before any
	// network activity.
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeTransport covers network failures and non-2xx responses.
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeProtocol covers undecodable payloads and non-ok API stats.
	ErrorTypeProtocol ErrorType = "protocol"
	// ErrorTypeStorage covers failures writing ledgers, results or aggregates.
	ErrorTypeStorage ErrorType = "storage"
)

// Error represents a pipeline error with type information
type Error struct {
	Type    ErrorType
	Op      string
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s: %s error (code %d): %s", e.Op, e.Type, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Op, e.Type, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Configuration returns a configuration error for op.
func Configuration(op, format string, args ...interface{}) *Error {
	return &Error{Type: ErrorTypeConfiguration, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Transport wraps a network-level failure. code is the HTTP status or 0.
func Transport(op string, code int, err error) *Error {
	return &Error{Type: ErrorTypeTransport, Op: op, Code: code, Err: err}
}

// Protocol returns an error for a payload the API answered but that cannot be used.
func Protocol(op, format string, args ...interface{}) *Error {
	return &Error{Type: ErrorTypeProtocol, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps a local filesystem failure.
func Storage(op string, err error) *Error {
	return &Error{Type: ErrorTypeStorage, Op: op, Err: err}
}

// TypeOf returns the ErrorType carried anywhere in err's chain, or "".
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}

// IsFatal reports whether err must stop the run rather than be recorded
// against the current work unit.
func IsFatal(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeTransport, ErrorTypeProtocol:
		return false
	default:
		return err != nil
	}
}
