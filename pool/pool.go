// Package pool implements the per-(host, port, protocol, profile)
// connection pool described in §4.7: a bounded arena of live connections, idle
// reaping, and lease-based checkout/release. Grounded on the
// multi-pool-by-key shape of connection pools in the retrieval pack
// (e.g. pv-udpv-go-gost-x's session pool) generalized to the three
// protocols this client drives.
package pool

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// Protocol identifies which driver owns a Connection.
type Protocol int

const (
	H1 Protocol = iota
	H2
	H3
)

func (p Protocol) String() string {
	switch p {
	case H1:
		return "h1"
	case H2:
		return "h2"
	case H3:
		return "h3"
	default:
		return "unknown"
	}
}

// State is a Connection's lifecycle stage (§3).
type State int

const (
	Idle State = iota
	InUse
	Draining
	Closed
)

// Driver is the protocol-specific engine a Connection wraps; h1/h2/h3
// each implement it. Close tears down the underlying transport;
// Closed reports whether Close has already run (checked during idle
// reaping and lease release so a connection is never double-closed).
// Multiplex/MaxStreams implement §4.7's "For H2/H3, multiple leases may
// be issued for the same connection (multiplex); the pool tracks a
// per-connection stream_count and caps it at the peer's declared max
// concurrent streams" — h1.Conn reports Multiplex() == false and
// MaxStreams() == 1, so it keeps the old exclusive-checkout behavior.
type Driver interface {
	Close() error
	Closed() bool
	Multiplex() bool
	MaxStreams() int
}

// Key identifies one pool bucket: a distinct remote endpoint, protocol,
// and fingerprint identity (§4.7 "a connection is identified by (host,
// port, protocol, profile_fingerprint_hash)... two requests with
// different profiles never share a connection even to the same host").
// Profile is the profile's FingerprintKey(), or "" for callers that
// don't distinguish by profile (e.g. a custom-ClientHello dial that
// bypasses the registry entirely).
type Key struct {
	Host     string
	Port     int
	Protocol Protocol
	Profile  string
}

// Connection is a live transport endpoint bound to one Key, owned
// exclusively by the pool (§3 Lifecycle). For a multiplexing Driver
// (H2/H3), several leases can reference the same Connection at once;
// streamCount tracks how many are currently outstanding.
type Connection struct {
	Handle         uuid.UUID
	Key            Key
	Driver         Driver
	CreatedAt      time.Time
	LastUsedAt     time.Time
	BytesSent      uint64
	RequestsServed uint64

	mu          sync.Mutex
	state       State
	streamCount int32
}

func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connection) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// StreamCount reports how many leases are currently outstanding
// against this connection (always 0 or 1 for a non-multiplexing
// driver).
func (c *Connection) StreamCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(c.streamCount)
}

// MarkDraining transitions a connection to Draining on GOAWAY/keepalive
// timeout (§3); in-flight streams are expected to complete on their
// own, the pool just stops routing new requests to it.
func (c *Connection) MarkDraining() { c.setState(Draining) }

// Pool owns a set of Connections keyed by (host, port, protocol,
// profile), with
// a per-key cap, a global cap, and periodic idle reaping (§4.7).
type Pool struct {
	mu         sync.Mutex
	conns      map[Key][]*Connection
	byHandle   map[uuid.UUID]*Connection
	perKeyCap  int
	globalCap  int
	idleTTL    time.Duration
	totalCount int
}

// Config controls the pool's capacity and reaping policy.
type Config struct {
	PerKeyCap int           // 0 means unlimited
	GlobalCap int           // 0 means unlimited
	IdleTTL   time.Duration // 0 disables idle reaping
}

func New(cfg Config) *Pool {
	return &Pool{
		conns:     make(map[Key][]*Connection),
		byHandle:  make(map[uuid.UUID]*Connection),
		perKeyCap: cfg.PerKeyCap,
		globalCap: cfg.GlobalCap,
		idleTTL:   cfg.IdleTTL,
	}
}

// ErrPoolFull is returned by Put when accepting a connection would
// exceed the configured per-key or global cap.
type ErrPoolFull struct{ Key Key }

func (e *ErrPoolFull) Error() string { return "pool: capacity exceeded for " + e.Key.Host }

// Acquire returns a usable connection for key if one exists, claiming
// one stream slot on it and updating LastUsedAt. For a non-multiplexing
// driver this means an Idle connection, marked InUse exclusively, exactly
// as before. For a multiplexing driver (H2/H3) it also matches an
// already-InUse connection whose stream_count is below the driver's
// declared MaxStreams, per §4.7's multiplex requirement — several
// leases can then reference the same Connection concurrently. It
// returns nil, false if the pool has no usable connection for key — the
// caller is expected to dial a new one and register it with Put.
func (p *Pool) Acquire(key Key) (*Connection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	list := p.conns[key]

	for _, c := range list {
		if !c.Driver.Multiplex() {
			continue
		}
		c.mu.Lock()
		usable := (c.state == Idle || c.state == InUse) && int(c.streamCount) < c.Driver.MaxStreams()
		if usable {
			c.streamCount++
			c.state = InUse
		}
		c.mu.Unlock()
		if usable {
			c.LastUsedAt = time.Now()
			return c, true
		}
	}

	for _, c := range list {
		if c.Driver.Multiplex() {
			continue
		}
		if c.State() != Idle {
			continue
		}
		c.mu.Lock()
		c.state = InUse
		c.streamCount = 1
		c.mu.Unlock()
		c.LastUsedAt = time.Now()
		return c, true
	}

	return nil, false
}

// Put registers a freshly dialed connection under key, InUse with one
// stream already claimed by the caller that just finished dialing it.
func (p *Pool) Put(key Key, c *Connection) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.globalCap > 0 && p.totalCount >= p.globalCap {
		return &ErrPoolFull{Key: key}
	}
	if p.perKeyCap > 0 && len(p.conns[key]) >= p.perKeyCap {
		return &ErrPoolFull{Key: key}
	}
	c.Key = key
	if c.Handle == uuid.Nil {
		c.Handle = uuid.New()
	}
	c.mu.Lock()
	c.state = InUse
	c.streamCount = 1
	c.mu.Unlock()
	p.conns[key] = append(p.conns[key], c)
	p.byHandle[c.Handle] = c
	p.totalCount++
	return nil
}

// Release returns one stream slot claimed by a prior Acquire/Put. For a
// multiplexed connection with other streams still outstanding, this is
// a no-op beyond the bookkeeping decrement — the connection stays
// InUse. Once the last stream is released, the connection goes back to
// Idle so a future Acquire can reuse it, unless it has transitioned to
// Draining/Closed, in which case it is dropped from the pool instead
// (§3 Lifecycle, §4.7).
func (p *Pool) Release(c *Connection) {
	c.mu.Lock()
	if c.streamCount > 0 {
		c.streamCount--
	}
	remaining := c.streamCount
	state := c.state
	c.mu.Unlock()

	if remaining > 0 {
		return
	}
	if state == Draining || state == Closed || c.Driver.Closed() {
		p.remove(c)
		return
	}
	c.setState(Idle)
}

// ByHandle looks up a connection by its lease handle, for callers that
// persisted a handle across a suspend/resume boundary (§9 "arena of
// connections indexed by an opaque handle").
func (p *Pool) ByHandle(h uuid.UUID) (*Connection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.byHandle[h]
	return c, ok
}

func (p *Pool) remove(c *Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(c)
}

func (p *Pool) removeLocked(c *Connection) {
	list := p.conns[c.Key]
	for i, entry := range list {
		if entry == c {
			p.conns[c.Key] = append(list[:i], list[i+1:]...)
			p.totalCount--
			break
		}
	}
	delete(p.byHandle, c.Handle)
}

// ReapIdle closes and drops every Idle connection whose LastUsedAt is
// older than the configured idleTTL, aggregating any Close errors
// rather than aborting the sweep on the first failure — multiple
// independent connections can fail to close cleanly in the same pass,
// and each is worth reporting (§4.7, §9).
func (p *Pool) ReapIdle() error {
	if p.idleTTL <= 0 {
		return nil
	}
	cutoff := time.Now().Add(-p.idleTTL)

	p.mu.Lock()
	var toClose []*Connection
	for key, list := range p.conns {
		kept := list[:0]
		for _, c := range list {
			if c.State() == Idle && c.LastUsedAt.Before(cutoff) {
				toClose = append(toClose, c)
				continue
			}
			kept = append(kept, c)
		}
		p.conns[key] = kept
	}
	for _, c := range toClose {
		delete(p.byHandle, c.Handle)
		p.totalCount--
	}
	p.mu.Unlock()

	var result *multierror.Error
	for _, c := range toClose {
		c.setState(Closed)
		if err := c.Driver.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Len returns the total number of connections currently tracked across
// all keys, for tests and diagnostics.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalCount
}
