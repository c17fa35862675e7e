package pool

import (
	"runtime"
	"sync/atomic"
)

// Lease is the short-lived handle a caller holds while using a pooled
// Connection (§3 "callers hold a short-lived lease that returns the
// connection on drop or on explicit release"). Go has no destructors,
// so "on drop" is approximated with a runtime.SetFinalizer safety net;
// callers are still expected to call Release explicitly on the normal
// path, exactly like a mutex Unlock.
type Lease struct {
	pool     *Pool
	conn     *Connection
	released int32
}

// Lease acquires key from the pool under Acquire's rules (an Idle
// connection, or for a multiplexing driver one with a free stream
// slot), wrapping it in a Lease whose Release hands the slot back via
// Pool.Release.
func (p *Pool) Lease(key Key) (*Lease, bool) {
	c, ok := p.Acquire(key)
	if !ok {
		return nil, false
	}
	return newLease(p, c), true
}

// NewLease wraps a freshly dialed, not-yet-pooled connection: callers
// dial, register it with Put, then obtain a Lease over it for the
// current request.
func NewLease(p *Pool, c *Connection) *Lease {
	return newLease(p, c)
}

func newLease(p *Pool, c *Connection) *Lease {
	l := &Lease{pool: p, conn: c}
	runtime.SetFinalizer(l, func(l *Lease) { l.Release() })
	return l
}

// Conn returns the leased connection. It is only valid until Release.
func (l *Lease) Conn() *Connection { return l.conn }

// Release returns the connection to the pool exactly once; subsequent
// calls are no-ops, so deferring Release alongside an explicit
// mid-function Release on an error path is safe.
func (l *Lease) Release() {
	if !atomic.CompareAndSwapInt32(&l.released, 0, 1) {
		return
	}
	runtime.SetFinalizer(l, nil)
	l.pool.Release(l.conn)
}
