package pqreactor

// Completion is called exactly once when an Op finishes, with a nil error on
// success. Combinators (Seq, OnError, OnOk, Checked) rely on that
// at-most-once guarantee to chain operations safely.
type Completion func(error)

// Op is one asynchronous unit of work against a Connection. Op
// implementations must not block; they register interest with the
// Connection's Reactor and return immediately, calling done from a later
// reactor callback.
type Op func(conn *Connection, done Completion)

// PoolCompletion is called exactly once when a ConnectionPool-dispatched Op
// finishes, with the Connection the op ran on alongside its outcome. The
// Connection is passed even on failure, so a caller can inspect the libpq
// handle behind a failed operation (e.g. to log its status) before it is
// handed back to the pool or to the next queued waiter.
type PoolCompletion func(err error, conn *Connection)
