package pqreactor

import (
	"fmt"
	"sync/atomic"

	pgquery "github.com/pganalyze/pg_query_go/v6"
)

// statementCounter is process-wide so statement names never collide even
// across multiple AutoPreparedQuery values sharing a connection pool.
var statementCounter uint64

func nextStatementName(prefix string) string {
	n := atomic.AddUint64(&statementCounter, 1)
	return fmt.Sprintf("%s_%d", prefix, n)
}

// AutoPreparedQuery prepares its SQL text on a connection the first time it
// runs there, and executes the prepared statement directly on every
// subsequent run on that same connection. Because prepared statements are
// server-side session state, a reconnect (tracked per Connection via
// IsPrepared/MarkPrepared) transparently triggers re-preparation.
type AutoPreparedQuery struct {
	name  string
	query string
	oids  []uint32
}

// NewAutoPreparedQuery builds an AutoPreparedQuery for query, generating a
// unique statement name from a process-wide counter.
func NewAutoPreparedQuery(query string, oids []uint32) *AutoPreparedQuery {
	return &AutoPreparedQuery{
		name:  nextStatementName("pqreactor_stmt"),
		query: query,
		oids:  oids,
	}
}

// NewAutoPreparedQueryFingerprinted is NewAutoPreparedQuery with a
// pg_query_go fingerprint folded into the generated statement name, so a
// name collision investigation (server logs, pg_prepared_statements) can
// identify the query text without cross-referencing application code. The
// counter, not the fingerprint, is still what guarantees uniqueness:
// pg_query_go's fingerprint intentionally normalizes literal values, so two
// distinct queries that only differ in a literal share one fingerprint.
func NewAutoPreparedQueryFingerprinted(query string, oids []uint32) *AutoPreparedQuery {
	fingerprint, err := pgquery.Fingerprint(query)
	prefix := "pqreactor_stmt"
	if err == nil && fingerprint != "" {
		prefix = fmt.Sprintf("pqreactor_%s", fingerprint)
	}
	return &AutoPreparedQuery{
		name:  nextStatementName(prefix),
		query: query,
		oids:  oids,
	}
}

// Name returns the generated statement name.
func (q *AutoPreparedQuery) Name() string {
	return q.name
}

// Op returns an Op that runs q's query with params, preparing it first if
// the target connection hasn't seen this statement name yet.
//
// When preparation is needed, execution only happens after PrepareOp's
// async round trip completes — possibly several reactor cycles later. A
// caller-supplied Params borrowing the caller's own backing storage (e.g.
// TextParams) is only guaranteed to survive until Submit returns, so params
// is cloned into an OwnedTextParams before crossing that deferred boundary.
// When the statement is already prepared, execution happens synchronously
// within this call and params is used as given, without the extra copy.
func (q *AutoPreparedQuery) Op(params Params, binaryResult bool, collector Collector) Op {
	return func(conn *Connection, done Completion) {
		if conn.IsPrepared(q.name) {
			ExecPreparedOp(q.name, params, binaryResult, collector)(conn, done)
			return
		}
		owned := CloneParams(params)
		execute := ExecPreparedOp(q.name, owned, binaryResult, collector)
		prepare := PrepareOp(q.name, q.query, q.oids, IgnoreResult)
		Seq(prepare, markPreparedThenRun(q.name, execute))(conn, done)
	}
}

func markPreparedThenRun(name string, execute Op) Op {
	return func(conn *Connection, done Completion) {
		conn.MarkPrepared(name)
		execute(conn, done)
	}
}
