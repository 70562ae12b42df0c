package pqreactor

import (
	pqerrors "github.com/pqreactor/pqreactor/go/pqreactor/errors"
	"github.com/pqreactor/pqreactor/go/pqreactor/libpq"
)

// ExecOp returns an Op that sends a single query with no parameters,
// mirroring PQsendQuery, and feeds every result it produces to collector.
func ExecOp(query string, collector Collector) Op {
	return func(conn *Connection, done Completion) {
		native := conn.Native()
		if native == nil {
			done(pqerrors.New(pqerrors.ConnInvalidSocket, nil))
			return
		}
		if !native.SendQuery(query) {
			done(pqerrors.New(pqerrors.SendQueryFailed, errorsNew(native.ErrorMessage())))
			return
		}
		runExecLoop(conn, native, collector, done)
	}
}

// ExecParamsOp returns an Op that sends query with positional params,
// mirroring PQsendQueryParams.
func ExecParamsOp(query string, params Params, binaryResult bool, collector Collector) Op {
	return func(conn *Connection, done Completion) {
		native := conn.Native()
		if native == nil {
			done(pqerrors.New(pqerrors.ConnInvalidSocket, nil))
			return
		}
		if !native.SendQueryParams(query, params.OIDs(), params.Values(), binaryResult) {
			done(pqerrors.New(pqerrors.SendQueryParamsFailed, errorsNew(native.ErrorMessage())))
			return
		}
		runExecLoop(conn, native, collector, done)
	}
}

// PrepareOp returns an Op that prepares a named statement, mirroring
// PQsendPrepare. Its collector is typically IgnoreResult; AutoPreparedQuery
// uses PrepareOp internally.
func PrepareOp(stmtName, query string, oids []uint32, collector Collector) Op {
	return func(conn *Connection, done Completion) {
		native := conn.Native()
		if native == nil {
			done(pqerrors.New(pqerrors.ConnInvalidSocket, nil))
			return
		}
		if !native.SendPrepare(stmtName, query, oids) {
			done(pqerrors.New(pqerrors.SendPrepareFailed, errorsNew(native.ErrorMessage())))
			return
		}
		runExecLoop(conn, native, collector, done)
	}
}

// ExecPreparedOp returns an Op that executes a previously prepared
// statement, mirroring PQsendQueryPrepared.
func ExecPreparedOp(stmtName string, params Params, binaryResult bool, collector Collector) Op {
	return func(conn *Connection, done Completion) {
		native := conn.Native()
		if native == nil {
			done(pqerrors.New(pqerrors.ConnInvalidSocket, nil))
			return
		}
		if !native.SendQueryPrepared(stmtName, params.Values(), binaryResult) {
			done(pqerrors.New(pqerrors.SendQueryPreparedFailed, errorsNew(native.ErrorMessage())))
			return
		}
		runExecLoop(conn, native, collector, done)
	}
}

// runExecLoop drains a sent command: alternate ConsumeInput/IsBusy until the
// connection is not busy, then walk every PQgetResult step, handing each
// result to collector and clearing it immediately after. It keeps consuming
// results even after a collector error, so the connection is fully drained
// (and reusable) before done is called.
func runExecLoop(conn *Connection, native *libpq.Conn, collector Collector, done Completion) {
	var lastErr error
	var consume, collect func()

	consume = func() {
		if !native.ConsumeInput() {
			done(pqerrors.New(pqerrors.ConsumeInputFailed, errorsNew(native.ErrorMessage())))
			return
		}
		if native.IsBusy() {
			// A wait error is not intercepted here: consume() runs again
			// regardless, so ConsumeInput itself observes the broken
			// socket on its next call and reports the domain error.
			conn.Reactor().WaitReadable(conn.Socket(), func(err error) {
				consume()
			})
			return
		}
		collect()
	}

	collect = func() {
		res, more := native.GetResult()
		if !more {
			// PQgetResult returning nil signals the command is fully
			// drained; the collector gets one final call with a nil
			// Result so it can tell "no more rows" from "connection
			// dropped mid-command" the same way libpq itself does.
			if err := collector.OnResult(nil); err != nil {
				lastErr = err
			}
			done(lastErr)
			return
		}
		if err := collector.OnResult(res); err != nil {
			lastErr = err
		}
		res.Clear()
		// GetResult never blocks once the prior ConsumeInput/IsBusy loop
		// reports not-busy for the current result; a multi-result command
		// (e.g. a multi-statement PQsendQuery) may still need another
		// consume round for the next result, so route back through consume.
		consume()
	}

	consume()
}
