// Package proxy implements the §6 Proxy collaborator: HTTP CONNECT
// tunneling and SOCKS5, each used for both HTTPS and plain-HTTP
// targets. Plain-HTTP requests are tunneled through CONNECT too;
// absolute-form HTTP-level forwarding is not implemented. All of this
// happens before TLS, so the
// profile fingerprint is unaffected (§6 "CONNECT tunneling happens
// before TLS; the profile fingerprint is unaffected").
package proxy

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"net/url"

	xproxy "golang.org/x/net/proxy"
)

// Type identifies the proxy protocol to use.
type Type string

const (
	None   Type = ""
	HTTP   Type = "http"
	SOCKS5 Type = "socks5"
)

// Auth carries proxy credentials.
type Auth struct {
	Username string
	Password string
}

// Config describes how to reach the proxy.
type Config struct {
	Type Type
	Host string
	Port int
	Auth *Auth
}

// Dialer opens the connection a protocol driver will then run its
// TLS handshake and wire protocol over.
type Dialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

// direct makes a plain TCP connection, used when no proxy is
// configured and as SOCKS5's own forward dialer.
type direct struct{}

// Direct returns a Dialer that connects straight to addr.
func Direct() Dialer { return &direct{} }

func (direct) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, network, addr)
}

// httpDialer issues an HTTP CONNECT for addr and hands the caller the
// resulting tunnel. It is used uniformly for both HTTPS and plain-HTTP
// targets, so plain HTTP is tunneled rather than forwarded: most forward
// proxies accept CONNECT to arbitrary ports, and tunneling plain HTTP
// the same way as HTTPS avoids a second, absolute-request-target
// encoding path through the driver for a case real proxies already
// handle uniformly.
type httpDialer struct {
	proxyAddr string
	auth      *Auth
}

func (d *httpDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", d.proxyAddr)
	if err != nil {
		return nil, fmt.Errorf("proxy: connect to proxy: %w", err)
	}

	connectReq := &http.Request{
		Method: "CONNECT",
		URL:    &url.URL{Opaque: addr},
		Host:   addr,
		Header: make(http.Header),
	}
	if d.auth != nil && d.auth.Username != "" {
		creds := base64.StdEncoding.EncodeToString([]byte(d.auth.Username + ":" + d.auth.Password))
		connectReq.Header.Set("Proxy-Authorization", "Basic "+creds)
	}

	if err := connectReq.Write(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("proxy: write CONNECT: %w", err)
	}

	br := bufio.NewReader(conn)
	resp, err := http.ReadResponse(br, connectReq)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("proxy: read CONNECT response: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		conn.Close()
		return nil, fmt.Errorf("proxy: CONNECT failed: %s", resp.Status)
	}
	return conn, nil
}

// socks5Dialer wraps golang.org/x/net/proxy's SOCKS5 implementation,
// which handles both HTTPS (CONNECT-equivalent) and plain-HTTP targets
// identically — SOCKS5 tunnels raw bytes regardless of the
// application protocol running over them.
type socks5Dialer struct {
	dialer xproxy.Dialer
}

func (d *socks5Dialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.dialer.(xproxy.ContextDialer); ok {
		return cd.DialContext(ctx, network, addr)
	}
	return d.dialer.Dial(network, addr)
}

// NewDialer builds the Dialer described by cfg, or a direct dialer if
// cfg is nil / Type is None.
func NewDialer(cfg *Config) (Dialer, error) {
	if cfg == nil || cfg.Type == None {
		return Direct(), nil
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	switch cfg.Type {
	case HTTP:
		return &httpDialer{proxyAddr: addr, auth: cfg.Auth}, nil

	case SOCKS5:
		var auth *xproxy.Auth
		if cfg.Auth != nil && cfg.Auth.Username != "" {
			auth = &xproxy.Auth{User: cfg.Auth.Username, Password: cfg.Auth.Password}
		}
		d, err := xproxy.SOCKS5("tcp", addr, auth, xproxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("proxy: create SOCKS5 dialer: %w", err)
		}
		return &socks5Dialer{dialer: d}, nil

	default:
		return nil, fmt.Errorf("proxy: unsupported type %q", cfg.Type)
	}
}
