package pqreactor

import (
	"net"
	"time"
)

// Reactor is the external event loop that drives every asynchronous
// operation in this package. It is deliberately minimal: pqreactor never
// assumes a particular implementation, only that callbacks registered here
// eventually fire, in order, on whatever goroutine(s) the Reactor chooses.
//
// Implementations must be safe for concurrent use. go/pqreactor/epollreactor
// provides the default Linux implementation; tests may substitute a
// single-goroutine fake.
type Reactor interface {
	// WaitReadable arranges for cb to be called once conn is readable, or
	// with a non-nil error if waiting failed (e.g. the descriptor could not
	// be registered). The wait fires at most once per call; callers must re-register
	// for further readiness.
	WaitReadable(conn net.Conn, cb func(error))

	// WaitWritable is WaitReadable's write-side counterpart.
	WaitWritable(conn net.Conn, cb func(error))

	// Post schedules fn to run on the reactor, without blocking the caller.
	// Operations use Post to hop back onto the reactor after a call that
	// must not run concurrently with the reactor's own callbacks.
	Post(fn func())

	// AfterFunc schedules fn to run after d elapses, returning a Timer the
	// caller can Stop before it fires. Used for connect deadlines.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a pending, cancelable callback registered via Reactor.AfterFunc.
type Timer interface {
	// Stop cancels the timer. It reports whether the stop succeeded: false
	// means the timer already fired or was already stopped.
	Stop() bool
}
