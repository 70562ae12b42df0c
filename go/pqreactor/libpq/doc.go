// Package libpq is a thin cgo binding over libpq's asynchronous, non-blocking
// connection and command APIs (PQconnectStartParams/PQconnectPoll,
// PQsendQuery*, PQconsumeInput/PQisBusy/PQgetResult). It intentionally
// exposes only the primitives that pqreactor's state machines drive; it does
// not attempt to be a general-purpose libpq wrapper, a row/column mapper, or
// a statement cache — libpq already owns all of that.
//
// Every exported method here is a direct, synchronous call into libpq: the
// asynchronous behavior lives one layer up, in the ConnectOp/ExecOp state
// machines that call these methods once per reactor readiness callback.
package libpq
