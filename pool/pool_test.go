package pool

import (
	"testing"
	"time"
)

// fakeDriver mimics h1.Conn: exclusive, one stream per connection.
type fakeDriver struct{ closed bool }

func (d *fakeDriver) Close() error    { d.closed = true; return nil }
func (d *fakeDriver) Closed() bool    { return d.closed }
func (d *fakeDriver) Multiplex() bool { return false }
func (d *fakeDriver) MaxStreams() int { return 1 }

// fakeMultiplexDriver mimics h2.Conn/h3.Conn: many leases may share one
// connection up to max.
type fakeMultiplexDriver struct {
	closed bool
	max    int
}

func (d *fakeMultiplexDriver) Close() error    { d.closed = true; return nil }
func (d *fakeMultiplexDriver) Closed() bool    { return d.closed }
func (d *fakeMultiplexDriver) Multiplex() bool { return true }
func (d *fakeMultiplexDriver) MaxStreams() int { return d.max }

func newTestConn() *Connection {
	return &Connection{
		Driver:     &fakeDriver{},
		CreatedAt:  time.Now(),
		LastUsedAt: time.Now(),
	}
}

func newTestMultiplexConn(max int) *Connection {
	return &Connection{
		Driver:     &fakeMultiplexDriver{max: max},
		CreatedAt:  time.Now(),
		LastUsedAt: time.Now(),
	}
}

func TestAcquireMissThenPutThenAcquireHit(t *testing.T) {
	p := New(Config{})
	key := Key{Host: "example.com", Port: 443, Protocol: H2}

	if _, ok := p.Acquire(key); ok {
		t.Fatal("expected a miss on an empty pool")
	}

	c := newTestConn()
	if err := p.Put(key, c); err != nil {
		t.Fatal(err)
	}
	c.setState(Idle)

	got, ok := p.Acquire(key)
	if !ok || got != c {
		t.Fatal("expected to acquire the connection just registered")
	}
	if got.State() != InUse {
		t.Fatal("Acquire must mark the connection InUse")
	}
}

func TestPerKeyCap(t *testing.T) {
	p := New(Config{PerKeyCap: 1})
	key := Key{Host: "example.com", Port: 443, Protocol: H1}

	if err := p.Put(key, newTestConn()); err != nil {
		t.Fatal(err)
	}
	if err := p.Put(key, newTestConn()); err == nil {
		t.Fatal("expected ErrPoolFull at the per-key cap")
	}
}

func TestReleaseIdleIsReusable(t *testing.T) {
	p := New(Config{})
	key := Key{Host: "example.com", Port: 443, Protocol: H2}
	c := newTestConn()
	_ = p.Put(key, c)
	c.setState(InUse)

	p.Release(c)
	if c.State() != Idle {
		t.Fatalf("expected Idle after Release, got %v", c.State())
	}
	if _, ok := p.Acquire(key); !ok {
		t.Fatal("expected released connection to be acquirable again")
	}
}

func TestReleaseDrainingRemovesFromPool(t *testing.T) {
	p := New(Config{})
	key := Key{Host: "example.com", Port: 443, Protocol: H2}
	c := newTestConn()
	_ = p.Put(key, c)
	c.MarkDraining()

	p.Release(c)
	if p.Len() != 0 {
		t.Fatalf("expected draining connection to be dropped, pool has %d", p.Len())
	}
}

func TestReapIdleClosesExpiredConnections(t *testing.T) {
	p := New(Config{IdleTTL: 10 * time.Millisecond})
	key := Key{Host: "example.com", Port: 443, Protocol: H1}
	c := newTestConn()
	c.LastUsedAt = time.Now().Add(-time.Hour)
	_ = p.Put(key, c)
	c.setState(Idle)

	if err := p.ReapIdle(); err != nil {
		t.Fatal(err)
	}
	if p.Len() != 0 {
		t.Fatal("expected the stale idle connection to be reaped")
	}
	if !c.Driver.(*fakeDriver).closed {
		t.Fatal("expected the driver to be closed by ReapIdle")
	}
}

func TestAcquireMultiplexesUpToMaxStreams(t *testing.T) {
	p := New(Config{})
	key := Key{Host: "example.com", Port: 443, Protocol: H2}
	c := newTestMultiplexConn(2)
	if err := p.Put(key, c); err != nil {
		t.Fatal(err)
	}

	got, ok := p.Acquire(key)
	if !ok || got != c {
		t.Fatal("expected the second lease to share the existing connection")
	}
	if c.StreamCount() != 2 {
		t.Fatalf("expected stream_count 2 after two leases, got %d", c.StreamCount())
	}

	if _, ok := p.Acquire(key); ok {
		t.Fatal("expected a miss once stream_count reaches MaxStreams")
	}

	p.Release(c)
	if c.State() != InUse {
		t.Fatalf("expected connection to stay InUse with one lease outstanding, got %v", c.State())
	}
	if c.StreamCount() != 1 {
		t.Fatalf("expected stream_count 1 after one release, got %d", c.StreamCount())
	}

	if _, ok := p.Acquire(key); !ok {
		t.Fatal("expected a new lease to fit under MaxStreams again")
	}
	if c.StreamCount() != 2 {
		t.Fatalf("expected stream_count 2 after reacquiring the freed slot, got %d", c.StreamCount())
	}

	p.Release(c)
	p.Release(c)
	if c.State() != Idle {
		t.Fatalf("expected Idle once every lease is released, got %v", c.State())
	}
}

func TestLeaseReleaseIsIdempotent(t *testing.T) {
	p := New(Config{})
	key := Key{Host: "example.com", Port: 443, Protocol: H3}
	c := newTestConn()
	_ = p.Put(key, c)
	c.setState(Idle)

	lease, ok := p.Lease(key)
	if !ok {
		t.Fatal("expected lease to succeed")
	}
	lease.Release()
	lease.Release() // must not double-release into the pool
	if c.State() != Idle {
		t.Fatalf("expected Idle after release, got %v", c.State())
	}
}
