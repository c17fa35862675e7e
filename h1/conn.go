// Package h1 implements the HTTP/1.1 Driver (§4.4): request encoding
// with caller-preserved header order, and response decoding covering
// chunked, Content-Length, and close-delimited bodies. Grounded on the
// teacher's net.Conn-level transport handling in client_impersonate.go
// (the same raw-byte-over-TLS-stream shape), generalized from the
// standard library's http.Transport (which the teacher otherwise
// delegates to) into an explicit byte-level encoder/decoder, since §3
// requires caller header order to survive on the wire verbatim —
// something net/http's Transport does not guarantee.
package h1

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"

	impersonate "github.com/brightwire/impersonate"
	"github.com/brightwire/impersonate/httpbody"
)

// Conn is the §4.7 pool.Driver implementation for HTTP/1.1: a single
// request/response pair occupies the connection at a time (§4.4
// "per-request scoped; no persistent protocol state beyond TCP/TLS
// connection").
type Conn struct {
	nc     net.Conn
	br     *bufio.Reader
	closed int32

	// reusable is cleared once a close-delimited response is read,
	// per §4.4 "mark connection non-reusable".
	reusable int32
}

// New wraps an already-established stream: a TLS connection for
// https:// targets, or a plain TCP connection for http:// targets.
func New(nc net.Conn) *Conn {
	c := &Conn{nc: nc, br: bufio.NewReader(nc)}
	atomic.StoreInt32(&c.reusable, 1)
	return c
}

// Close satisfies pool.Driver.
func (c *Conn) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	return c.nc.Close()
}

// Closed satisfies pool.Driver.
func (c *Conn) Closed() bool { return atomic.LoadInt32(&c.closed) == 1 }

// Multiplex satisfies pool.Driver: HTTP/1.1 is strictly one
// request/response at a time per connection (§4.4).
func (c *Conn) Multiplex() bool { return false }

// MaxStreams satisfies pool.Driver.
func (c *Conn) MaxStreams() int { return 1 }

// Reusable reports whether the connection may serve another request —
// false after a close-delimited (no Content-Length, no chunked) body
// has been read, per §4.4.
func (c *Conn) Reusable() bool { return atomic.LoadInt32(&c.reusable) == 1 }

// Do encodes req onto the wire in caller order, then decodes and
// returns the response (§4.4).
func (c *Conn) Do(req *impersonate.Request) (*impersonate.Response, error) {
	if err := c.writeRequest(req); err != nil {
		c.markClosed()
		return nil, &impersonate.Error{Kind: impersonate.KindConnect, Err: err}
	}
	resp, err := c.readResponse()
	if err != nil {
		c.markClosed()
		return nil, err
	}
	return resp, nil
}

func (c *Conn) markClosed() {
	atomic.StoreInt32(&c.reusable, 0)
}

// writeRequest encodes the request line, headers in caller order (Host
// first unless the caller already placed it), and body (§4.4).
func (c *Conn) writeRequest(req *impersonate.Request) error {
	var b strings.Builder

	path := req.URL.RequestURI()
	if path == "" {
		path = "/"
	}
	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\n", req.Method, path)

	hdr := req.Header
	_, hasHost := hdr.Get("Host")
	if !hasHost {
		fmt.Fprintf(&b, "Host: %s\r\n", hostHeaderValue(req.URL))
	}

	_, hasCL := hdr.Get("Content-Length")
	needsCL := !hasCL && (len(req.Body) > 0 || methodAllowsBody(req.Method))

	for _, p := range hdr.Items() {
		fmt.Fprintf(&b, "%s: %s\r\n", p.Name, p.Value)
	}
	if needsCL {
		fmt.Fprintf(&b, "Content-Length: %d\r\n", len(req.Body))
	}
	b.WriteString("\r\n")

	if _, err := io.WriteString(c.nc, b.String()); err != nil {
		return err
	}
	if len(req.Body) > 0 {
		if _, err := c.nc.Write(req.Body); err != nil {
			return err
		}
	}
	return nil
}

// methodAllowsBody reports whether method is one whose requests carry
// a body-describing Content-Length even when empty (§8 "Empty body on
// POST: Content-Length: 0 is sent; no Transfer-Encoding: chunked").
// GET/HEAD/DELETE/OPTIONS requests with no body omit it entirely,
// matching the teacher's behavior for bodyless requests.
func methodAllowsBody(method string) bool {
	switch strings.ToUpper(method) {
	case "POST", "PUT", "PATCH":
		return true
	default:
		return false
	}
}

func hostHeaderValue(u *url.URL) string {
	if u.Port() == "" {
		return u.Hostname()
	}
	return u.Host
}

// readResponse parses the status line, headers, and body per §4.4's
// three body-framing rules (chunked, Content-Length, close-delimited).
func (c *Conn) readResponse() (*impersonate.Response, error) {
	statusLine, err := c.br.ReadString('\n')
	if err != nil {
		return nil, &impersonate.Error{Kind: impersonate.KindH1Protocol, Reason: "ResponseParseError", Err: err}
	}
	statusCode, err := parseStatusLine(statusLine)
	if err != nil {
		return nil, &impersonate.Error{Kind: impersonate.KindH1Protocol, Reason: "ResponseParseError", Err: err}
	}

	hdr := &impersonate.Header{}
	for {
		line, err := c.br.ReadString('\n')
		if err != nil {
			return nil, &impersonate.Error{Kind: impersonate.KindH1Protocol, Reason: "ResponseParseError", Err: err}
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, ok := splitHeaderLine(line)
		if !ok {
			return nil, &impersonate.Error{Kind: impersonate.KindH1Protocol, Reason: "ResponseParseError", Err: fmt.Errorf("h1: malformed header line %q", line)}
		}
		hdr.Add(name, value)
	}

	body, err := c.readBody(hdr)
	if err != nil {
		return nil, &impersonate.Error{Kind: impersonate.KindH1Protocol, Reason: "ResponseParseError", Err: err}
	}

	if enc, ok := hdr.Get("Content-Encoding"); ok {
		decoded, err := httpbody.Decode(strings.ToLower(enc), body)
		if err != nil {
			return nil, &impersonate.Error{Kind: impersonate.KindH1Protocol, Reason: "ResponseParseError", Err: err}
		}
		body = decoded
	}

	return &impersonate.Response{
		StatusCode:  statusCode,
		HTTPVersion: "HTTP/1.1",
		Header:      hdr,
		Body:        body,
	}, nil
}

func (c *Conn) readBody(hdr *impersonate.Header) ([]byte, error) {
	if te, ok := hdr.Get("Transfer-Encoding"); ok && strings.EqualFold(strings.TrimSpace(te), "chunked") {
		return c.readChunked()
	}
	if cl, ok := hdr.Get("Content-Length"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(cl))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("h1: bad Content-Length %q", cl)
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(c.br, buf); err != nil {
			return nil, err
		}
		return buf, nil
	}
	// Close-delimited: read until EOF and mark the connection
	// non-reusable, per §4.4.
	c.markClosed()
	return io.ReadAll(c.br)
}

func (c *Conn) readChunked() ([]byte, error) {
	var out []byte
	for {
		sizeLine, err := c.br.ReadString('\n')
		if err != nil {
			return nil, err
		}
		sizeLine = strings.TrimRight(sizeLine, "\r\n")
		if i := strings.IndexByte(sizeLine, ';'); i >= 0 {
			sizeLine = sizeLine[:i]
		}
		size, err := strconv.ParseInt(strings.TrimSpace(sizeLine), 16, 64)
		if err != nil {
			return nil, fmt.Errorf("h1: bad chunk size %q", sizeLine)
		}
		if size == 0 {
			// Trailer section, terminated by a blank line.
			for {
				line, err := c.br.ReadString('\n')
				if err != nil {
					return nil, err
				}
				if strings.TrimRight(line, "\r\n") == "" {
					break
				}
			}
			return out, nil
		}
		chunk := make([]byte, size)
		if _, err := io.ReadFull(c.br, chunk); err != nil {
			return nil, err
		}
		out = append(out, chunk...)
		if _, err := io.ReadFull(c.br, make([]byte, 2)); err != nil { // trailing CRLF
			return nil, err
		}
	}
}

func parseStatusLine(line string) (int, error) {
	line = strings.TrimRight(line, "\r\n")
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 || !strings.HasPrefix(parts[0], "HTTP/1.") {
		return 0, fmt.Errorf("h1: malformed status line %q", line)
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("h1: malformed status code in %q", line)
	}
	return code, nil
}

func splitHeaderLine(line string) (name, value string, ok bool) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return "", "", false
	}
	return line[:i], strings.TrimSpace(line[i+1:]), true
}
