package pqreactor

// Seq runs first, then — only on success — second, reporting second's
// outcome. It is the asynchronous analogue of running two statements back
// to back on the same connection.
func Seq(first, second Op) Op {
	return func(conn *Connection, done Completion) {
		first(conn, func(err error) {
			if err != nil {
				done(err)
				return
			}
			second(conn, done)
		})
	}
}

// OnError runs op, and if it fails, runs recover with the same connection
// and reports recover's outcome instead. A successful op short-circuits
// recover entirely.
func OnError(op, recover Op) Op {
	return func(conn *Connection, done Completion) {
		op(conn, func(err error) {
			if err == nil {
				done(nil)
				return
			}
			recover(conn, done)
		})
	}
}

// OnOk runs op, and if it succeeds, also runs then, reporting then's
// outcome. A failing op short-circuits then and reports op's error.
func OnOk(op, then Op) Op {
	return func(conn *Connection, done Completion) {
		op(conn, func(err error) {
			if err != nil {
				done(err)
				return
			}
			then(conn, done)
		})
	}
}

// Checked wraps op so that, on failure, it reconnects the connection using
// connect and retries op exactly once — but only when the connection itself
// is no longer OK. An op that fails against a still-healthy connection (a
// constraint violation, a bad-response result) is a query-level failure, not
// a connection-level one, and is reported unchanged: reconnecting and
// retrying it would duplicate any non-idempotent side effect it already
// caused. If connect itself fails, Checked reports connect's error rather
// than op's original error, since a failed reconnect means the connection
// is unusable regardless of what op originally reported. Checked never
// retries more than once: a second failure after a successful reconnect is
// reported as-is.
func Checked(op, connect Op) Op {
	return func(conn *Connection, done Completion) {
		op(conn, func(err error) {
			if err == nil {
				done(nil)
				return
			}
			if conn.IsConnected() {
				done(err)
				return
			}
			connect(conn, func(connectErr error) {
				if connectErr != nil {
					done(connectErr)
					return
				}
				op(conn, done)
			})
		})
	}
}
