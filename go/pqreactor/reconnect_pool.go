package pqreactor

// ReconnectionPool wraps a ConnectionPool so that every submitted operation
// is automatically retried once, against a freshly reconnected connection,
// if it fails and leaves the connection no longer OK. A failure on a
// connection that is still OK is reported unchanged. It does not change dispatch or queueing behavior; it only
// changes what gets run on the connection ConnectionPool hands out.
type ReconnectionPool struct {
	pool    *ConnectionPool
	connect Op
}

// NewReconnectionPool builds a ReconnectionPool over pool, using connect to
// re-establish a connection after a submitted operation fails on it and the
// connection is no longer OK.
func NewReconnectionPool(pool *ConnectionPool, connect Op) *ReconnectionPool {
	return &ReconnectionPool{pool: pool, connect: connect}
}

// Submit runs Checked(op, connect) through the underlying ConnectionPool.
func (p *ReconnectionPool) Submit(op Op, done PoolCompletion) {
	p.pool.Submit(Checked(op, p.connect), done)
}

// Size, Ready, and Waiting expose the underlying ConnectionPool's dispatch
// state for monitoring.
func (p *ReconnectionPool) Size() int    { return p.pool.Size() }
func (p *ReconnectionPool) Ready() int   { return p.pool.Ready() }
func (p *ReconnectionPool) Waiting() int { return p.pool.Waiting() }
