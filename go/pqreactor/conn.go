package pqreactor

import (
	"net"
	"sync"

	"github.com/pqreactor/pqreactor/go/pqreactor/libpq"
)

// Connection owns one libpq connection handle and the reactor-registered
// socket duplicated from it. It has no knowledge of connect or exec
// semantics; those live in ConnectOp and ExecOp, which take a *Connection
// and drive it forward. A Connection is not safe for concurrent operations:
// callers (typically ConnectionPool's per-connection strand) must ensure at
// most one operation touches a given Connection at a time.
type Connection struct {
	reactor Reactor

	mu       sync.Mutex
	native   *libpq.Conn
	sock     net.Conn
	prepared map[string]struct{}
}

// NewConnection creates a Connection bound to reactor. It holds no libpq
// handle until ConnectOp successfully starts a connection on it.
func NewConnection(reactor Reactor) *Connection {
	return &Connection{reactor: reactor}
}

// Reactor returns the reactor this connection was created with.
func (c *Connection) Reactor() Reactor {
	return c.reactor
}

// Native returns the underlying libpq handle, or nil before ConnectOp has
// bound one or after Close. A handle is bound as soon as a connect attempt
// starts, so it may belong to a connection that is still connecting or
// that failed.
func (c *Connection) Native() *libpq.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.native
}

// Socket returns the reactor-registered duplicate of libpq's socket, or nil
// before ConnectOp has bound one.
func (c *Connection) Socket() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sock
}

// bind installs a freshly-connected libpq handle and its duplicated socket,
// replacing (and closing) whatever this Connection previously held. Called
// by ConnectOp once PQconnectStartParams has produced a live handle and its
// socket is known.
func (c *Connection) bind(native *libpq.Conn, sock net.Conn) {
	c.mu.Lock()
	oldNative, oldSock := c.native, c.sock
	c.native, c.sock = native, sock
	c.prepared = nil
	c.mu.Unlock()

	if oldSock != nil {
		oldSock.Close()
	}
	if oldNative != nil {
		oldNative.Finish()
	}
}

// Close releases the connection's socket and libpq handle. It is idempotent.
// A closed Connection can be reused by running ConnectOp on it again, which
// rebinds a new handle and socket.
func (c *Connection) Close() {
	c.mu.Lock()
	native, sock := c.native, c.sock
	c.native, c.sock = nil, nil
	c.prepared = nil
	c.mu.Unlock()

	if sock != nil {
		sock.Close()
	}
	if native != nil {
		native.Finish()
	}
}

// IsConnected reports whether this Connection currently holds a libpq
// handle in the OK status. It does not perform I/O.
func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	native := c.native
	c.mu.Unlock()
	return native != nil && native.Status() == libpq.StatusOK
}

// IsPrepared reports whether name has already been prepared on this
// connection's current libpq handle. Prepared statements live on the
// server-side connection, so this tracking resets whenever bind or Close
// replaces the handle (reconnect invalidates every previously prepared
// statement name).
func (c *Connection) IsPrepared(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.prepared[name]
	return ok
}

// MarkPrepared records that name has been prepared on this connection's
// current libpq handle.
func (c *Connection) MarkPrepared(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.prepared == nil {
		c.prepared = make(map[string]struct{})
	}
	c.prepared[name] = struct{}{}
}
