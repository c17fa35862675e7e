package h3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/quicvarint"

	impersonate "github.com/brightwire/impersonate"
	"github.com/brightwire/impersonate/httpbody"
	"github.com/brightwire/impersonate/profile"
)

// h3MaxConcurrentStreams bounds the pool's per-connection multiplexing
// for H3 (§4.7). HTTP/3 has no SETTINGS-level concurrent-stream limit
// the way H2 does — the real ceiling is the QUIC transport parameter
// initial_max_streams_bidi, which quic-go enforces itself by blocking
// OpenStreamSync — so this is a conservative bookkeeping cap rather
// than a value read off the wire.
const h3MaxConcurrentStreams = 100

// streamTypeControl/streamTypeQPACKEncoder/streamTypeQPACKDecoder are
// the unidirectional stream type varints HTTP/3 (RFC 9114 §6.2)
// reserves for the control stream and the two QPACK side streams
// (RFC 9204 §4.2).
const (
	streamTypeControl      = 0x0
	streamTypeQPACKEncoder = 0x2
	streamTypeQPACKDecoder = 0x3
)

// Conn is the §4.7 pool.Driver implementation for HTTP/3: one QUIC
// session hosting a control stream, two QPACK side streams, and one
// bidirectional stream per request.
type Conn struct {
	qconn quic.Connection

	pseudoOrder [4]string

	controlStream      quic.SendStream
	qpackEncoderStream quic.SendStream
	qpackDecoderStream quic.SendStream

	mu       sync.Mutex
	draining bool
	peer     *settingsFrame
}

// Establish opens the control and QPACK streams and sends the
// profile's SETTINGS frame, per §4.6 steps 1-2.
func Establish(ctx context.Context, qconn quic.Connection, p *profile.Profile) (*Conn, error) {
	c := &Conn{qconn: qconn, pseudoOrder: p.HTTP2PseudoHeaderOrder}

	control, err := qconn.OpenUniStreamSync(ctx)
	if err != nil {
		return nil, &impersonate.Error{Kind: impersonate.KindH3Protocol, Reason: "OpenControlStreamFailed", Err: err}
	}
	c.controlStream = control

	if _, err := control.Write(quicvarintByte(streamTypeControl)); err != nil {
		return nil, &impersonate.Error{Kind: impersonate.KindH3Protocol, Err: err}
	}

	settings := &settingsFrame{
		QPACKMaxTableCapacity: qpackTableCapacity(p),
		QPACKBlockedStreams:   0,
	}
	if _, err := control.Write(settings.Append(nil)); err != nil {
		return nil, &impersonate.Error{Kind: impersonate.KindH3Protocol, Err: err}
	}

	enc, err := qconn.OpenUniStreamSync(ctx)
	if err != nil {
		return nil, &impersonate.Error{Kind: impersonate.KindH3Protocol, Reason: "OpenQPACKEncoderStreamFailed", Err: err}
	}
	if _, err := enc.Write(quicvarintByte(streamTypeQPACKEncoder)); err != nil {
		return nil, &impersonate.Error{Kind: impersonate.KindH3Protocol, Err: err}
	}
	c.qpackEncoderStream = enc

	dec, err := qconn.OpenUniStreamSync(ctx)
	if err != nil {
		return nil, &impersonate.Error{Kind: impersonate.KindH3Protocol, Reason: "OpenQPACKDecoderStreamFailed", Err: err}
	}
	if _, err := dec.Write(quicvarintByte(streamTypeQPACKDecoder)); err != nil {
		return nil, &impersonate.Error{Kind: impersonate.KindH3Protocol, Err: err}
	}
	c.qpackDecoderStream = dec

	go c.acceptPeerStreams()

	return c, nil
}

// acceptPeerStreams accepts the peer's own control and QPACK side
// streams (RFC 9114 §6.2: both endpoints open these unidirectionally
// to each other) and dispatches each to its handler, mirroring h2's
// single background readLoop. A panic here is recovered and only
// drains this connection, per spec.md's "a driver-task panic
// terminates the connection cleanly" (§9).
func (c *Conn) acceptPeerStreams() {
	defer func() {
		if r := recover(); r != nil {
			c.failConnection(fmt.Errorf("h3: peer stream acceptor panic: %v", r))
		}
	}()
	for {
		str, err := c.qconn.AcceptUniStream(context.Background())
		if err != nil {
			return
		}
		go c.handlePeerUniStream(str)
	}
}

func (c *Conn) handlePeerUniStream(str quic.ReceiveStream) {
	defer func() {
		if r := recover(); r != nil {
			c.failConnection(fmt.Errorf("h3: peer stream handler panic: %v", r))
		}
	}()
	qr := quicvarint.NewReader(str)
	t, err := quicvarint.Read(qr)
	if err != nil {
		return
	}
	if t == streamTypeControl {
		c.readControlStream(str)
		return
	}
	// QPACK encoder/decoder instruction streams (and anything else):
	// this driver's QPACK decoder carries no dynamic table state (see
	// qpack.go's decodeHeaders), so there are no instructions to apply
	// — drain and discard rather than parse.
	io.Copy(io.Discard, str)
}

// readControlStream applies the peer's SETTINGS and watches for GOAWAY,
// the only two frames RFC 9114 ever delivers on the control stream
// (§4.6, §8 "Connection receives GOAWAY mid-request").
func (c *Conn) readControlStream(r io.Reader) {
	parser := &frameParser{r: r, closeConn: func(code quic.ApplicationErrorCode, msg string) error {
		return c.qconn.CloseWithError(code, msg)
	}}
	for {
		f, err := parser.ParseNext()
		if err != nil {
			return
		}
		switch f := f.(type) {
		case *settingsFrame:
			c.mu.Lock()
			c.peer = f
			c.mu.Unlock()
		case *goAwayFrame:
			c.mu.Lock()
			c.draining = true
			c.mu.Unlock()
		}
	}
}

// failConnection marks the connection draining and tears down the QUIC
// session, the H3 analogue of h2's readLoop failing every in-flight
// stream on an unrecoverable read error.
func (c *Conn) failConnection(err error) {
	c.mu.Lock()
	c.draining = true
	c.mu.Unlock()
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	c.qconn.CloseWithError(0, reason)
}

// Draining reports whether the peer has sent GOAWAY — the pool should
// stop routing new requests here but let an in-flight Do finish (§4.6,
// §3 Lifecycle).
func (c *Conn) Draining() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draining
}

// Multiplex satisfies pool.Driver: one QUIC session hosts many
// concurrent request streams (§4.6, §4.7).
func (c *Conn) Multiplex() bool { return true }

// MaxStreams satisfies pool.Driver.
func (c *Conn) MaxStreams() int { return h3MaxConcurrentStreams }

func quicvarintByte(v uint64) []byte {
	if v < 0x40 {
		return []byte{byte(v)}
	}
	return []byte{0x40, byte(v)}
}

// defaultQPACKTableCapacity matches the default most QUIC stacks
// (including this module's own quic-go dependency) ship with, used
// when a profile declares no preference.
const defaultQPACKTableCapacity = 4096

// qpackTableCapacity derives the dynamic table size this driver
// advertises from the profile (§4.6 "QPACK dynamic table: driven by
// the profile's declared capacity").
func qpackTableCapacity(p *profile.Profile) uint64 {
	if p.QPACKMaxTableCapacity > 0 {
		return p.QPACKMaxTableCapacity
	}
	return defaultQPACKTableCapacity
}

// Close satisfies pool.Driver.
func (c *Conn) Close() error {
	return c.qconn.CloseWithError(0, "")
}

// Closed satisfies pool.Driver.
func (c *Conn) Closed() bool {
	select {
	case <-c.qconn.Context().Done():
		return true
	default:
		return false
	}
}

// Do opens a bidirectional stream and runs one request/response
// exchange over it (§4.6 step 3-4).
func (c *Conn) Do(ctx context.Context, req *impersonate.Request) (*impersonate.Response, error) {
	stream, err := c.qconn.OpenStreamSync(ctx)
	if err != nil {
		return nil, &impersonate.Error{Kind: impersonate.KindH3Protocol, Reason: "OpenStreamFailed", Err: err}
	}
	defer stream.Close()

	block, err := encodeHeaders(authorityFor(req.URL), schemeFor(req.URL), req, c.pseudoOrder)
	if err != nil {
		return nil, &impersonate.Error{Kind: impersonate.KindH3Protocol, Err: err}
	}

	hf := &headersFrame{Length: uint64(len(block))}
	if _, err := stream.Write(hf.Append(nil)); err != nil {
		return nil, &impersonate.Error{Kind: impersonate.KindH3Protocol, Err: err}
	}
	if _, err := stream.Write(block); err != nil {
		return nil, &impersonate.Error{Kind: impersonate.KindH3Protocol, Err: err}
	}

	if len(req.Body) > 0 {
		df := &dataFrame{Length: uint64(len(req.Body))}
		if _, err := stream.Write(df.Append(nil)); err != nil {
			return nil, &impersonate.Error{Kind: impersonate.KindH3Protocol, Err: err}
		}
		if _, err := stream.Write(req.Body); err != nil {
			return nil, &impersonate.Error{Kind: impersonate.KindH3Protocol, Err: err}
		}
	}
	if err := stream.Close(); err != nil {
		return nil, &impersonate.Error{Kind: impersonate.KindH3Protocol, Err: err}
	}

	return c.readResponse(stream)
}

func (c *Conn) readResponse(stream quic.Stream) (*impersonate.Response, error) {
	parser := &frameParser{r: stream}

	var status int
	var hdr *impersonate.Header
	var body []byte

	for {
		f, err := parser.ParseNext()
		if err != nil {
			if hdr != nil {
				break
			}
			return nil, &impersonate.Error{Kind: impersonate.KindH3Protocol, Reason: "ResponseParseError", Err: err}
		}
		switch f := f.(type) {
		case *headersFrame:
			block := make([]byte, f.Length)
			if _, err := readFull(stream, block); err != nil {
				return nil, &impersonate.Error{Kind: impersonate.KindH3Protocol, Err: err}
			}
			status, hdr, err = decodeHeaders(block)
			if err != nil {
				return nil, &impersonate.Error{Kind: impersonate.KindH3Protocol, Reason: "QPACKDecodeError", Err: err}
			}
		case *dataFrame:
			chunk := make([]byte, f.Length)
			if _, err := readFull(stream, chunk); err != nil {
				return nil, &impersonate.Error{Kind: impersonate.KindH3Protocol, Err: err}
			}
			body = append(body, chunk...)
		}
	}

	if hdr == nil {
		return nil, &impersonate.Error{Kind: impersonate.KindH3Protocol, Reason: "ResponseParseError", Err: fmt.Errorf("h3: no HEADERS frame received")}
	}
	if enc, ok := hdr.Get("Content-Encoding"); ok {
		decoded, err := httpbody.Decode(enc, body)
		if err != nil {
			return nil, &impersonate.Error{Kind: impersonate.KindH3Protocol, Err: err}
		}
		body = decoded
	}

	return &impersonate.Response{
		StatusCode:  status,
		HTTPVersion: "HTTP/3",
		Header:      hdr,
		Body:        body,
	}, nil
}

func readFull(stream quic.Stream, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := stream.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func authorityFor(u *url.URL) string { return u.Host }

func schemeFor(u *url.URL) string {
	if u.Scheme == "" {
		return "https"
	}
	return u.Scheme
}
