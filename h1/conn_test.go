package h1

import (
	"bytes"
	"net"
	"net/url"
	"strings"
	"testing"
	"time"

	impersonate "github.com/brightwire/impersonate"
)

// newPipe wires Do's writes and a canned response together over an
// in-memory net.Pipe, so writeRequest/readResponse exercise real
// bufio framing without a real socket.
func newPipe(t *testing.T, response string) (*Conn, *bytes.Buffer) {
	t.Helper()
	client, server := net.Pipe()
	var written bytes.Buffer

	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := server.Read(buf)
			if n > 0 {
				written.Write(buf[:n])
			}
			if err != nil {
				break
			}
			if written.Len() > 0 {
				server.Write([]byte(response))
				server.Close()
				return
			}
		}
	}()

	return New(client), &written
}

func req(method, rawurl string) *impersonate.Request {
	u, _ := url.Parse(rawurl)
	h := &impersonate.Header{}
	return &impersonate.Request{Method: method, URL: u, Header: h}
}

func TestDoContentLengthBody(t *testing.T) {
	resp := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"
	c, _ := newPipe(t, resp)

	r, err := c.Do(req("GET", "http://example.com/path"))
	if err != nil {
		t.Fatal(err)
	}
	if r.StatusCode != 200 || string(r.Body) != "hello" {
		t.Fatalf("got %d %q", r.StatusCode, r.Body)
	}
	if !c.Reusable() {
		t.Fatal("expected connection to remain reusable after a Content-Length body")
	}
}

func TestDoChunkedBody(t *testing.T) {
	resp := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"4\r\nwiki\r\n5\r\npedia\r\n0\r\n\r\n"
	c, _ := newPipe(t, resp)

	r, err := c.Do(req("GET", "http://example.com/"))
	if err != nil {
		t.Fatal(err)
	}
	if string(r.Body) != "wikipedia" {
		t.Fatalf("got %q", r.Body)
	}
}

func TestDoCloseDelimitedMarksNonReusable(t *testing.T) {
	resp := "HTTP/1.1 200 OK\r\n\r\nno-content-length-body"
	c, _ := newPipe(t, resp)

	r, err := c.Do(req("GET", "http://example.com/"))
	if err != nil {
		t.Fatal(err)
	}
	if string(r.Body) != "no-content-length-body" {
		t.Fatalf("got %q", r.Body)
	}
	if c.Reusable() {
		t.Fatal("expected close-delimited response to mark the connection non-reusable")
	}
}

func TestWriteRequestHostFirstAndOrderPreserved(t *testing.T) {
	r := req("GET", "http://example.com/a?b=c")
	r.Header.Add("X-First", "1")
	r.Header.Add("X-Second", "2")

	c, written := newPipe(t, "HTTP/1.1 204 No Content\r\n\r\n")
	if _, err := c.Do(r); err != nil {
		t.Fatal(err)
	}

	// Give the background goroutine a moment to finish its read loop
	// before inspecting the buffer (net.Pipe is synchronous, but the
	// server's final write races with this test goroutine).
	time.Sleep(10 * time.Millisecond)

	got := written.String()
	wantOrder := []string{"GET /a?b=c HTTP/1.1", "Host: example.com", "X-First: 1", "X-Second: 2"}
	pos := 0
	for _, want := range wantOrder {
		idx := indexFrom(got, want, pos)
		if idx < 0 {
			t.Fatalf("expected %q in order in request:\n%s", want, got)
		}
		pos = idx + len(want)
	}
}

func indexFrom(s, sub string, from int) int {
	if from > len(s) {
		return -1
	}
	i := indexOf(s[from:], sub)
	if i < 0 {
		return -1
	}
	return from + i
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestWriteRequestEmptyBodyPostSendsContentLengthZero(t *testing.T) {
	r := req("POST", "http://example.com/submit")

	c, written := newPipe(t, "HTTP/1.1 204 No Content\r\n\r\n")
	if _, err := c.Do(r); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)

	got := written.String()
	if !strings.Contains(got, "Content-Length: 0\r\n") {
		t.Fatalf("expected Content-Length: 0 on an empty-body POST, got:\n%s", got)
	}
	if strings.Contains(got, "Transfer-Encoding") {
		t.Fatalf("expected no Transfer-Encoding on an empty-body POST, got:\n%s", got)
	}
}

func TestWriteRequestGetWithNoBodyOmitsContentLength(t *testing.T) {
	r := req("GET", "http://example.com/")

	c, written := newPipe(t, "HTTP/1.1 204 No Content\r\n\r\n")
	if _, err := c.Do(r); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)

	got := written.String()
	if strings.Contains(got, "Content-Length") {
		t.Fatalf("expected no Content-Length on a bodyless GET, got:\n%s", got)
	}
}

func TestParseStatusLineRejectsMalformed(t *testing.T) {
	if _, err := parseStatusLine("not a status line\r\n"); err == nil {
		t.Fatal("expected an error for a malformed status line")
	}
}
