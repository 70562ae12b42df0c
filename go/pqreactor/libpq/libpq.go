package libpq

/*
#cgo pkg-config: libpq
#include <stdlib.h>
#include <libpq-fe.h>
*/
import "C"

import (
	"fmt"
	"strconv"
	"strings"
	"unsafe"
)

// PollingStatus mirrors libpq's PostgresPollingStatusType, the result of
// PQconnectPoll.
type PollingStatus int

const (
	PollingFailed PollingStatus = iota
	PollingReading
	PollingWriting
	PollingOK
)

func (s PollingStatus) String() string {
	switch s {
	case PollingReading:
		return "READING"
	case PollingWriting:
		return "WRITING"
	case PollingOK:
		return "OK"
	default:
		return "FAILED"
	}
}

// ConnStatus mirrors the two statuses pqreactor cares about out of libpq's
// full ConnStatusType: everything other than CONNECTION_OK is treated as
// bad, matching spec's "connection status not OK" predicate used by the
// checked-operation reconnect wrapper.
type ConnStatus int

const (
	StatusBad ConnStatus = iota
	StatusOK
)

// ExecStatus mirrors the subset of libpq's ExecStatusType that the result
// collectors need to distinguish.
type ExecStatus int

const (
	ExecOther ExecStatus = iota
	ExecCommandOK
	ExecTuplesOK
	ExecBadResponse
	ExecNonfatalError
	ExecFatalError
)

func (s ExecStatus) String() string {
	switch s {
	case ExecCommandOK:
		return "COMMAND_OK"
	case ExecTuplesOK:
		return "TUPLES_OK"
	case ExecBadResponse:
		return "BAD_RESPONSE"
	case ExecNonfatalError:
		return "NONFATAL_ERROR"
	case ExecFatalError:
		return "FATAL_ERROR"
	default:
		return "OTHER"
	}
}

// Conn wraps a libpq PGconn*. It is not safe for concurrent use; callers
// (pqreactor.Connection) must serialize access, exactly as libpq requires.
type Conn struct {
	native *C.PGconn
}

// ConnectStartParams begins a non-blocking connection using libpq's
// keyword/value connection parameters, mirroring PQconnectStartParams.
// keywords and values must be the same length; libpq ignores a keyword
// whose value is the empty string.
func ConnectStartParams(keywords, values []string, expandDbname bool) (*Conn, error) {
	if len(keywords) != len(values) {
		return nil, fmt.Errorf("libpq: keywords and values must have the same length (%d != %d)", len(keywords), len(values))
	}

	n := len(keywords)
	ckeywords := make([]*C.char, n+1)
	cvalues := make([]*C.char, n+1)
	for i := 0; i < n; i++ {
		ckeywords[i] = C.CString(keywords[i])
		cvalues[i] = C.CString(values[i])
	}
	defer func() {
		for i := 0; i < n; i++ {
			C.free(unsafe.Pointer(ckeywords[i]))
			C.free(unsafe.Pointer(cvalues[i]))
		}
	}()

	expand := C.int(0)
	if expandDbname {
		expand = 1
	}

	var kwPtr, valPtr **C.char
	if n > 0 {
		kwPtr = (**C.char)(unsafe.Pointer(&ckeywords[0]))
		valPtr = (**C.char)(unsafe.Pointer(&cvalues[0]))
	}

	native := C.PQconnectStartParams(kwPtr, valPtr, expand)
	if native == nil {
		return nil, fmt.Errorf("libpq: PQconnectStartParams returned NULL")
	}
	return &Conn{native: native}, nil
}

// ConnectStart begins a non-blocking connection from a single DSN/URI
// string, mirroring PQconnectStart.
func ConnectStart(connInfo string) (*Conn, error) {
	cstr := C.CString(connInfo)
	defer C.free(unsafe.Pointer(cstr))

	native := C.PQconnectStart(cstr)
	if native == nil {
		return nil, fmt.Errorf("libpq: PQconnectStart returned NULL")
	}
	return &Conn{native: native}, nil
}

// ConnectPoll drives the connect state machine one step, mirroring
// PQconnectPoll.
func (c *Conn) ConnectPoll() PollingStatus {
	switch C.PQconnectPoll(c.native) {
	case C.PGRES_POLLING_OK:
		return PollingOK
	case C.PGRES_POLLING_READING:
		return PollingReading
	case C.PGRES_POLLING_WRITING:
		return PollingWriting
	default:
		return PollingFailed
	}
}

// Status reports whether the connection is currently usable, mirroring
// PQstatus collapsed to the OK/not-OK distinction pqreactor needs.
func (c *Conn) Status() ConnStatus {
	if C.PQstatus(c.native) == C.CONNECTION_OK {
		return StatusOK
	}
	return StatusBad
}

// Socket returns the underlying file descriptor, mirroring PQsocket. It
// returns -1 if libpq has no socket (not yet connected, or closed).
func (c *Conn) Socket() int {
	return int(C.PQsocket(c.native))
}

// SetNonblocking puts the connection into non-blocking I/O mode, mirroring
// PQsetnonblocking(conn, 1). ConnectStart/ConnectStartParams already start
// in non-blocking mode, but this is re-asserted defensively after connect
// completes since some libpq versions reset it.
func (c *Conn) SetNonblocking() error {
	if C.PQsetnonblocking(c.native, 1) != 0 {
		return fmt.Errorf("libpq: PQsetnonblocking failed: %s", c.ErrorMessage())
	}
	return nil
}

// ErrorMessage mirrors PQerrorMessage.
func (c *Conn) ErrorMessage() string {
	return trimmed(C.GoString(C.PQerrorMessage(c.native)))
}

// Finish releases the connection handle, mirroring PQfinish. Finish is
// idempotent and safe to call more than once.
func (c *Conn) Finish() {
	if c.native == nil {
		return
	}
	C.PQfinish(c.native)
	c.native = nil
}

// SendQuery mirrors PQsendQuery.
func (c *Conn) SendQuery(query string) bool {
	cquery := C.CString(query)
	defer C.free(unsafe.Pointer(cquery))
	return C.PQsendQuery(c.native, cquery) == 1
}

// SendQueryParams mirrors PQsendQueryParams. values[i] == nil encodes SQL
// NULL for that parameter; oids[i] == 0 lets the server infer the type.
// binaryResult requests binary-format results when true.
func (c *Conn) SendQueryParams(command string, oids []uint32, values []*string, binaryResult bool) bool {
	ccommand := C.CString(command)
	defer C.free(unsafe.Pointer(ccommand))

	cOids, freeOids := buildOidArray(oids)
	defer freeOids()
	cValues, cLengths, freeValues := buildValueArrays(values)
	defer freeValues()

	resultFormat := C.int(0)
	if binaryResult {
		resultFormat = 1
	}

	return C.PQsendQueryParams(
		c.native,
		ccommand,
		C.int(len(values)),
		cOids,
		cValues,
		cLengths,
		nil, // all params are sent as text
		resultFormat,
	) == 1
}

// SendPrepare mirrors PQsendPrepare.
func (c *Conn) SendPrepare(stmtName, query string, oids []uint32) bool {
	cname := C.CString(stmtName)
	defer C.free(unsafe.Pointer(cname))
	cquery := C.CString(query)
	defer C.free(unsafe.Pointer(cquery))

	cOids, freeOids := buildOidArray(oids)
	defer freeOids()

	return C.PQsendPrepare(c.native, cname, cquery, C.int(len(oids)), cOids) == 1
}

// SendQueryPrepared mirrors PQsendQueryPrepared.
func (c *Conn) SendQueryPrepared(stmtName string, values []*string, binaryResult bool) bool {
	cname := C.CString(stmtName)
	defer C.free(unsafe.Pointer(cname))

	cValues, cLengths, freeValues := buildValueArrays(values)
	defer freeValues()

	resultFormat := C.int(0)
	if binaryResult {
		resultFormat = 1
	}

	return C.PQsendQueryPrepared(
		c.native,
		cname,
		C.int(len(values)),
		cValues,
		cLengths,
		nil,
		resultFormat,
	) == 1
}

// ConsumeInput mirrors PQconsumeInput.
func (c *Conn) ConsumeInput() bool {
	return C.PQconsumeInput(c.native) == 1
}

// IsBusy mirrors PQisBusy.
func (c *Conn) IsBusy() bool {
	return C.PQisBusy(c.native) == 1
}

// GetResult mirrors PQgetResult. The second return value is false once the
// command has no more results to deliver, matching the collector contract
// in ExecOp: a null PGresult terminates the command.
func (c *Conn) GetResult() (*Result, bool) {
	native := C.PQgetResult(c.native)
	if native == nil {
		return nil, false
	}
	return &Result{native: native}, true
}

// ConnectTimeoutSeconds inspects libpq's resolved connection options for
// connect_timeout and applies libpq's own coercion rule: absent or <= 0
// means no timeout, 1 is coerced up to 2, anything else is the literal
// value. It mirrors PQconninfo.
func (c *Conn) ConnectTimeoutSeconds() (seconds int, ok bool, err error) {
	opts := C.PQconninfo(c.native)
	if opts == nil {
		return 0, false, fmt.Errorf("libpq: PQconninfo returned NULL")
	}
	defer C.PQconninfoFree(opts)

	// PQconninfo returns an array terminated by an entry with a NULL
	// keyword; cast it to an over-large Go slice and stop at that sentinel.
	rawOpts := (*[1 << 20]C.PQconninfoOption)(unsafe.Pointer(opts))
	for i := 0; ; i++ {
		opt := &rawOpts[i]
		if opt.keyword == nil {
			break
		}
		if C.GoString(opt.keyword) != "connect_timeout" {
			continue
		}
		if opt.val == nil {
			return 0, false, nil
		}
		raw := C.GoString(opt.val)
		value, convErr := parseConnectTimeout(raw)
		if convErr != nil {
			return 0, false, fmt.Errorf("libpq: invalid connect_timeout %q: %w", raw, convErr)
		}
		if value <= 0 {
			return 0, false, nil
		}
		if value == 1 {
			value = 2
		}
		return value, true, nil
	}
	return 0, false, nil
}

func buildOidArray(oids []uint32) (*C.Oid, func()) {
	if len(oids) == 0 {
		return nil, func() {}
	}
	arr := make([]C.Oid, len(oids))
	for i, o := range oids {
		arr[i] = C.Oid(o)
	}
	return &arr[0], func() {}
}

func buildValueArrays(values []*string) (**C.char, *C.int, func()) {
	n := len(values)
	if n == 0 {
		return nil, nil, func() {}
	}
	cvalues := make([]*C.char, n)
	clengths := make([]C.int, n)
	for i, v := range values {
		if v == nil {
			cvalues[i] = nil
			clengths[i] = 0
			continue
		}
		cvalues[i] = C.CString(*v)
		clengths[i] = C.int(len(*v))
	}
	free := func() {
		for _, p := range cvalues {
			if p != nil {
				C.free(unsafe.Pointer(p))
			}
		}
	}
	return (**C.char)(unsafe.Pointer(&cvalues[0])), (*C.int)(unsafe.Pointer(&clengths[0])), free
}

// parseConnectTimeout parses libpq's connect_timeout value strictly. Unlike
// libpq's own C atoi()-based parsing (which silently treats "2abc" as 2),
// this rejects anything that isn't a plain integer so a malformed value
// surfaces as ConnFailed instead of a silently-wrong timeout.
func parseConnectTimeout(raw string) (int, error) {
	trimmedVal := strings.TrimSpace(raw)
	if trimmedVal == "" {
		return 0, nil
	}
	return strconv.Atoi(trimmedVal)
}

func trimmed(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
