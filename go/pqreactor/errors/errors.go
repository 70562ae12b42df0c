// Package errors defines the single, integer-valued error taxonomy shared
// by every state machine in pqreactor: connect, send, poll, consume, and
// result-status failures all resolve to one of the Codes below.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code identifies the category of failure that occurred while driving
// libpq's connect or command state machines. The zero value is OK.
type Code int

const (
	// OK indicates success.
	OK Code = iota
	// ConnAllocFailed means libpq could not allocate the connection handle.
	ConnAllocFailed
	// ConnInvalidSocket means libpq's handle reports no usable descriptor.
	ConnInvalidSocket
	// ConnFailed means the initial libpq status was bad, or the
	// connect_timeout parameter could not be parsed after libpq accepted it.
	ConnFailed
	// ConnPollFailed means PQconnectPoll returned PGRES_POLLING_FAILED.
	ConnPollFailed
	// ConsumeInputFailed means PQconsumeInput returned 0.
	ConsumeInputFailed
	// SendQueryFailed means PQsendQuery returned 0.
	SendQueryFailed
	// SendQueryParamsFailed means PQsendQueryParams returned 0.
	SendQueryParamsFailed
	// SendQueryPreparedFailed means PQsendQueryPrepared returned 0.
	SendQueryPreparedFailed
	// SendPrepareFailed means PQsendPrepare returned 0.
	SendPrepareFailed
	// ResultFatalError means a result's status was PGRES_FATAL_ERROR.
	ResultFatalError
	// ResultBadResponse means a result's status was PGRES_BAD_RESPONSE.
	ResultBadResponse
)

var names = [...]string{
	OK:                      "OK",
	ConnAllocFailed:         "CONN_ALLOC_FAILED",
	ConnInvalidSocket:       "CONN_INVALID_SOCKET",
	ConnFailed:              "CONN_FAILED",
	ConnPollFailed:          "CONN_POLL_FAILED",
	ConsumeInputFailed:      "CONSUME_INPUT_FAILED",
	SendQueryFailed:         "SEND_QUERY_FAILED",
	SendQueryParamsFailed:   "SEND_QUERY_PARAMS_FAILED",
	SendQueryPreparedFailed: "SEND_QUERY_PREPARED_FAILED",
	SendPrepareFailed:       "SEND_PREPARE_FAILED",
	ResultFatalError:        "RESULT_FATAL_ERROR",
	ResultBadResponse:       "RESULT_BAD_RESPONSE",
}

func (c Code) String() string {
	if int(c) < 0 || int(c) >= len(names) {
		return fmt.Sprintf("Code(%d)", int(c))
	}
	return names[c]
}

// Error pairs a Code with the underlying detail libpq supplied, if any
// (PQerrorMessage / PQresultErrorMessage). It implements the standard
// error interface and supports errors.Is/As against both Code and the
// wrapped cause.
type Error struct {
	Code  Code
	Cause error
}

// New wraps code with an optional cause. A nil cause with a non-OK code
// still produces a non-nil *Error; New(OK, nil) returns nil so callers
// can write `return errors.New(code, cause)` unconditionally from a
// completion handler.
func New(code Code, cause error) error {
	if code == OK {
		return nil
	}
	return &Error{Code: code, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// As reports whether err is (or wraps) an *Error and, if so, returns its
// Code. It returns (OK, false) for a nil error so callers can write
// `if code, ok := errors.As(err); ok { ... }` without a separate nil check.
func As(err error) (Code, bool) {
	if err == nil {
		return OK, false
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code, true
	}
	return OK, false
}

// Is reports whether err carries the given Code.
func Is(err error, code Code) bool {
	c, ok := As(err)
	return ok && c == code
}
