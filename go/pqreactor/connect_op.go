package pqreactor

import (
	"time"

	pqerrors "github.com/pqreactor/pqreactor/go/pqreactor/errors"
	"github.com/pqreactor/pqreactor/go/pqreactor/libpq"
)

// ConnectOp returns an Op that establishes a fresh libpq connection on the
// target Connection using keyword/value connection parameters, mirroring
// PQconnectStartParams/PQconnectPoll. Every keyword is passed with its
// value; libpq ignores a keyword whose value is empty. The returned Op replaces any connection the target
// Connection previously held.
func ConnectOp(keywords, values []string, expandDbname bool) Op {
	return func(conn *Connection, done Completion) {
		native, err := libpq.ConnectStartParams(keywords, values, expandDbname)
		if err != nil {
			done(pqerrors.New(pqerrors.ConnAllocFailed, err))
			return
		}
		runConnectPoll(conn, native, done)
	}
}

// ConnectOpDSN is ConnectOp's single-string counterpart, mirroring
// PQconnectStart.
func ConnectOpDSN(connInfo string) Op {
	return func(conn *Connection, done Completion) {
		native, err := libpq.ConnectStart(connInfo)
		if err != nil {
			done(pqerrors.New(pqerrors.ConnAllocFailed, err))
			return
		}
		runConnectPoll(conn, native, done)
	}
}

// ConnectOpWithTimeout wraps op so it fails with ConnFailed if it has not
// completed within timeout. A zero timeout disables the deadline and simply
// runs op. The deadline is tracked on the Connection's own reactor, matching
// the connect_timeout parameter libpq itself understands but does not
// enforce once a socket becomes readable/writable and stalls indefinitely.
func ConnectOpWithTimeout(op Op, timeout time.Duration) Op {
	if timeout <= 0 {
		return op
	}
	return func(conn *Connection, done Completion) {
		var (
			fired     bool
			completed bool
		)
		timer := conn.Reactor().AfterFunc(timeout, func() {
			if completed {
				return
			}
			fired = true
			completed = true
			conn.Close()
			done(pqerrors.New(pqerrors.ConnFailed, errConnectTimedOut))
		})
		op(conn, func(err error) {
			if fired {
				return
			}
			completed = true
			timer.Stop()
			done(err)
		})
	}
}

// runConnectPoll drives PQconnectPoll to completion, alternating readiness
// waits on the connection's reactor exactly as PQconnectPoll's return value
// dictates. If the connection parameters carry libpq's own connect_timeout
// keyword, that deadline is enforced here — ConnectOpWithTimeout only covers
// a deadline the caller supplies out of band, so a bare ConnectOp/ConnectOpDSN
// built from a DSN like "...?connect_timeout=2" would otherwise poll
// forever against an endpoint that never answers.
func runConnectPoll(conn *Connection, native *libpq.Conn, done Completion) {
	sock, err := libpq.DupSocket(native.Socket())
	if err != nil {
		native.Finish()
		done(pqerrors.New(pqerrors.ConnInvalidSocket, err))
		return
	}
	conn.bind(native, sock)

	var (
		fired     bool
		completed bool
		timer     Timer
	)
	seconds, hasTimeout, timeoutErr := native.ConnectTimeoutSeconds()
	if timeoutErr != nil {
		conn.Close()
		done(pqerrors.New(pqerrors.ConnFailed, timeoutErr))
		return
	}
	if hasTimeout {
		timer = conn.Reactor().AfterFunc(time.Duration(seconds)*time.Second, func() {
			if completed {
				return
			}
			fired = true
			completed = true
			conn.Close()
			done(pqerrors.New(pqerrors.ConnFailed, errConnectTimedOut))
		})
	}
	finish := func(err error) {
		if fired {
			return
		}
		completed = true
		if timer != nil {
			timer.Stop()
		}
		done(err)
	}

	var step func()
	step = func() {
		switch native.ConnectPoll() {
		case libpq.PollingOK:
			if native.Status() != libpq.StatusOK {
				finish(pqerrors.New(pqerrors.ConnFailed, errConnStatusNotOK(native.ErrorMessage())))
				return
			}
			if err := native.SetNonblocking(); err != nil {
				finish(pqerrors.New(pqerrors.ConnFailed, err))
				return
			}
			finish(nil)
		case libpq.PollingReading:
			// A wait error is not intercepted here: step() runs again
			// regardless, so PQconnectPoll itself observes the broken
			// socket on its next call and produces the domain error, the
			// same way it would if this code never noticed the transport
			// failure at all.
			conn.Reactor().WaitReadable(sock, func(waitErr error) {
				step()
			})
		case libpq.PollingWriting:
			conn.Reactor().WaitWritable(sock, func(waitErr error) {
				step()
			})
		default:
			pollErr := pqerrors.New(pqerrors.ConnPollFailed, errConnStatusNotOK(native.ErrorMessage()))
			conn.Close()
			finish(pollErr)
		}
	}
	step()
}
