package proxy

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"
)

func TestNewDialerNoneReturnsDirect(t *testing.T) {
	d, err := NewDialer(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := d.(*direct); !ok {
		t.Fatalf("expected *direct, got %T", d)
	}
}

func TestNewDialerUnsupportedType(t *testing.T) {
	_, err := NewDialer(&Config{Type: "bogus"})
	if err == nil {
		t.Fatal("expected an error for an unsupported proxy type")
	}
}

func TestHTTPDialerSendsConnectAndAuth(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	gotAuth := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		req, err := http.ReadRequest(bufio.NewReader(conn))
		if err != nil {
			return
		}
		gotAuth <- req.Header.Get("Proxy-Authorization")
		conn.Write([]byte("HTTP/1.1 200 Connection Established\r\n\r\n"))
	}()

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)

	d, err := NewDialer(&Config{
		Type: HTTP,
		Host: host,
		Port: port,
		Auth: &Auth{Username: "u", Password: "p"},
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, err := d.DialContext(ctx, "tcp", "example.com:443")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	select {
	case auth := <-gotAuth:
		if auth == "" {
			t.Fatal("expected a Proxy-Authorization header on the CONNECT request")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the proxy to observe the CONNECT request")
	}
}
