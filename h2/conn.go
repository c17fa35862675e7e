// Package h2 implements the HTTP/2 Driver (§4.5), the spec's "detail
// floor for the most fingerprint-sensitive path": connection preface,
// profile-ordered SETTINGS, connection-level WINDOW_UPDATE, PRIORITY
// tree, profile-driven HPACK pseudo-header order and indexing, stream
// multiplexing with peer-advertised concurrency and per-stream flow
// control, and GOAWAY/RST_STREAM handling. Grounded on
// `_examples/poxiao33-HttpCall/internal/http2/transport.go`'s raw
// `http2.Framer`-driven transport (the one example repo in the
// retrieval pack that drives HTTP/2 at the frame level instead of
// through `net/http`'s own client), generalized from that file's fixed
// single-request-per-connection RoundTrip into a long-lived
// multiplexed Conn serving the §4.7 connection pool.
package h2

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sync"
	"sync/atomic"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/hpack"

	impersonate "github.com/brightwire/impersonate"
	"github.com/brightwire/impersonate/httpbody"
	"github.com/brightwire/impersonate/profile"
)

const clientPreface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"

// Conn is the §4.7 pool.Driver implementation for HTTP/2: one
// TLS-terminated stream hosting many concurrent request/response
// exchanges.
type Conn struct {
	nc      net.Conn
	fr      *http2.Framer
	writeMu sync.Mutex

	dec *hpack.Decoder

	pseudoOrder [4]string

	nextStreamID uint32 // atomic, client streams are odd

	mu       sync.Mutex
	streams  map[uint32]*stream
	peer     *peerSettings
	draining bool
	closed   bool
}

// Establish performs the §4.5 connection-establishment sequence over
// an already TLS-handshaken (ALPN "h2") connection and starts the
// background read loop.
func Establish(nc net.Conn, p *profile.Profile) (*Conn, error) {
	if _, err := nc.Write([]byte(clientPreface)); err != nil {
		return nil, &impersonate.Error{Kind: impersonate.KindH2Protocol, Reason: "PrefaceWriteFailed", Err: err}
	}

	fr := http2.NewFramer(nc, nc)
	fr.AllowIllegalWrites = true

	c := &Conn{
		nc:           nc,
		fr:           fr,
		dec:          hpack.NewDecoder(65536, nil),
		pseudoOrder:  p.HTTP2PseudoHeaderOrder,
		nextStreamID: 1,
		streams:      make(map[uint32]*stream),
		peer:         newPeerSettings(),
	}

	if err := c.writeSettings(p.HTTP2Settings); err != nil {
		return nil, err
	}
	if p.HTTP2ConnectionFlow > 0 {
		if err := c.writeWindowUpdate(0, p.HTTP2ConnectionFlow); err != nil {
			return nil, err
		}
	}
	if err := c.writePriorities(p.HTTP2Priorities); err != nil {
		return nil, err
	}

	go c.readLoop()
	return c, nil
}

func (c *Conn) writeSettings(settings []http2.Setting) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.fr.WriteSettings(settings...)
}

func (c *Conn) writeWindowUpdate(streamID uint32, incr uint32) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.fr.WriteWindowUpdate(streamID, incr)
}

func (c *Conn) writePriorities(frames []profile.PriorityFrame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return writePriorities(c.fr, frames)
}

// Close satisfies pool.Driver.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.nc.Close()
}

// Closed satisfies pool.Driver.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Draining reports whether a GOAWAY has been received — the pool
// should stop routing new requests here but let in-flight streams
// finish (§4.5, §3 Lifecycle).
func (c *Conn) Draining() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draining
}

// Multiplex satisfies pool.Driver: one HTTP/2 connection hosts many
// concurrent streams (§4.5, §4.7).
func (c *Conn) Multiplex() bool { return true }

// MaxStreams satisfies pool.Driver, reporting the peer's most recently
// advertised SETTINGS_MAX_CONCURRENT_STREAMS (§4.5, §4.7).
func (c *Conn) MaxStreams() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(c.peer.maxConcurrentStreams)
}

// Do sends req on a freshly allocated stream and blocks for the
// response (§4.5 Request encoding / Response decoding).
func (c *Conn) Do(ctx context.Context, req *impersonate.Request) (*impersonate.Response, error) {
	id := atomic.AddUint32(&c.nextStreamID, 2) - 2
	st := newStream(id)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, &impersonate.Error{Kind: impersonate.KindH2Protocol, Reason: "ConnectionClosed"}
	}
	c.streams[id] = st
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.streams, id)
		c.mu.Unlock()
	}()

	if err := c.sendRequest(id, req); err != nil {
		return nil, &impersonate.Error{Kind: impersonate.KindH2Protocol, Err: err}
	}
	st.mu.Lock()
	if st.state == streamOpen {
		st.state = streamHalfClosedLocal
	}
	st.mu.Unlock()

	select {
	case <-st.done:
	case <-ctx.Done():
		return nil, &impersonate.Error{Kind: impersonate.KindCancelled, Err: ctx.Err()}
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.state == streamReset {
		return nil, st.err
	}
	if st.err != nil {
		return nil, st.err
	}

	body := st.body.Bytes()
	if enc, ok := st.header.Get("Content-Encoding"); ok {
		decoded, err := httpbody.Decode(enc, body)
		if err != nil {
			return nil, &impersonate.Error{Kind: impersonate.KindH2Protocol, Err: err}
		}
		body = decoded
	}

	return &impersonate.Response{
		StatusCode:  st.status,
		HTTPVersion: "HTTP/2",
		Header:      st.header,
		Body:        body,
	}, nil
}

func (c *Conn) sendRequest(id uint32, req *impersonate.Request) error {
	authority := req.URL.Host
	block, err := encodeHeaders(authority, schemeFor(req.URL), req, c.pseudoOrder)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	hasBody := len(req.Body) > 0
	if err := c.fr.WriteHeaders(http2.HeadersFrameParam{
		StreamID:      id,
		BlockFragment: block,
		EndStream:     !hasBody,
		EndHeaders:    true,
	}); err != nil {
		return err
	}
	if !hasBody {
		return nil
	}

	const maxFrame = 16384
	body := req.Body
	for len(body) > maxFrame {
		if err := c.fr.WriteData(id, false, body[:maxFrame]); err != nil {
			return err
		}
		body = body[maxFrame:]
	}
	return c.fr.WriteData(id, true, body)
}

func schemeFor(u *url.URL) string {
	if u.Scheme == "" {
		return "https"
	}
	return u.Scheme
}

// readLoop is the single reader for the connection, dispatching
// frames to their stream (§4.5 Response decoding / Failure modes). A
// panic while handling a frame is recovered and fails this connection
// alone, per spec.md's "a driver-task panic terminates the connection
// cleanly" (§9) — it must not take down the process.
func (c *Conn) readLoop() {
	defer func() {
		if r := recover(); r != nil {
			c.failAll(&impersonate.Error{Kind: impersonate.KindH2Protocol, Reason: "ReadLoopPanic", Err: fmt.Errorf("h2: read loop panic: %v", r)})
			c.Close()
		}
	}()
	for {
		f, err := c.fr.ReadFrame()
		if err != nil {
			c.failAll(&impersonate.Error{Kind: impersonate.KindH2Protocol, Reason: "ReadFrameFailed", Err: err})
			c.Close()
			return
		}

		switch f := f.(type) {
		case *http2.SettingsFrame:
			if f.IsAck() {
				continue
			}
			c.mu.Lock()
			c.peer.apply(f)
			c.mu.Unlock()
			c.writeMu.Lock()
			c.fr.WriteSettingsAck()
			c.writeMu.Unlock()

		case *http2.PingFrame:
			if !f.IsAck() {
				c.writeMu.Lock()
				c.fr.WritePing(true, f.Data)
				c.writeMu.Unlock()
			}

		case *http2.HeadersFrame:
			c.handleHeaders(f)

		case *http2.DataFrame:
			c.handleData(f)

		case *http2.WindowUpdateFrame:
			// Connection-level send-window accounting is not needed
			// for the bounded request/response bodies this driver
			// sends; acknowledged but otherwise unused.

		case *http2.GoAwayFrame:
			c.handleGoAway(f)

		case *http2.RSTStreamFrame:
			if st := c.lookupStream(f.StreamID); st != nil {
				st.reset(&impersonate.StreamResetError{Code: uint32(f.ErrCode)})
			}
		}
	}
}

// handleGoAway marks the connection draining and fails every in-flight
// stream at or above LastStreamID — those were never processed by the
// peer and won't be (§8 "Connection receives GOAWAY mid-request: the
// in-flight request completes if its stream is below the GOAWAY
// last_stream_id; otherwise it fails with H2Protocol::GoAway"). Streams
// below LastStreamID are left alone to finish normally.
func (c *Conn) handleGoAway(f *http2.GoAwayFrame) {
	c.mu.Lock()
	c.draining = true
	var toFail []*stream
	for id, st := range c.streams {
		if id >= f.LastStreamID {
			toFail = append(toFail, st)
		}
	}
	c.mu.Unlock()
	for _, st := range toFail {
		st.reset(&impersonate.Error{Kind: impersonate.KindH2Protocol, Reason: "GoAway"})
	}
}

func (c *Conn) lookupStream(id uint32) *stream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streams[id]
}

func (c *Conn) handleHeaders(f *http2.HeadersFrame) {
	st := c.lookupStream(f.StreamID)
	if st == nil {
		return
	}
	status, hdr, err := decodeHeaders(c.dec, f.HeaderBlockFragment())
	if err != nil {
		st.finish(&impersonate.Error{Kind: impersonate.KindH2Protocol, Reason: "HPACKDecodeError", Err: err})
		return
	}
	st.mu.Lock()
	st.status = status
	st.header = hdr
	st.mu.Unlock()
	if f.StreamEnded() {
		st.finish(nil)
	}
}

func (c *Conn) handleData(f *http2.DataFrame) {
	st := c.lookupStream(f.StreamID)
	if st == nil {
		return
	}
	data := f.Data()
	st.mu.Lock()
	st.body.Write(data)
	st.recvWindowConsumed += uint32(len(data))
	consumed := st.recvWindowConsumed
	st.mu.Unlock()

	c.mu.Lock()
	half := c.peer.initialWindowSize / 2
	c.mu.Unlock()

	if half > 0 && consumed > half {
		st.mu.Lock()
		st.recvWindowConsumed = 0
		st.mu.Unlock()
		c.writeMu.Lock()
		c.fr.WriteWindowUpdate(0, consumed)
		c.fr.WriteWindowUpdate(f.StreamID, consumed)
		c.writeMu.Unlock()
	}

	if f.StreamEnded() {
		st.finish(nil)
	}
}

func (c *Conn) failAll(err error) {
	c.mu.Lock()
	streams := make([]*stream, 0, len(c.streams))
	for _, st := range c.streams {
		streams = append(streams, st)
	}
	c.closed = true
	c.mu.Unlock()
	for _, st := range streams {
		st.finish(err)
	}
}
