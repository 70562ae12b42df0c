// Package pqreactor bridges libpq's pollable, non-blocking state machines
// (see go/pqreactor/libpq) into composable asynchronous operations driven by
// a pluggable Reactor. Connection owns one libpq handle plus the reactor
// registration for its duplicated socket; ConnectOp and ExecOp step libpq's
// connect and command state machines forward each time the reactor reports
// readiness; Seq/OnError/OnOk/Checked compose operations without blocking a
// goroutine per in-flight request. ConnectionPool and ReconnectionPool sit on
// top, dispatching submitted operations to a fixed set of connections with a
// FIFO wait queue.
//
// Nothing in this package blocks on I/O. Every entry point either returns
// immediately after registering interest with the Reactor, or is documented
// as a pure, non-blocking accessor.
package pqreactor
