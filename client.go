package impersonate

import (
	"context"
	"crypto/tls"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/brightwire/impersonate/cookiejar"
	"github.com/brightwire/impersonate/h1"
	"github.com/brightwire/impersonate/h2"
	"github.com/brightwire/impersonate/h3"
	"github.com/brightwire/impersonate/pool"
	"github.com/brightwire/impersonate/profile"
	"github.com/brightwire/impersonate/proxy"
	"github.com/brightwire/impersonate/tlsconn"
)

// Client is the library's public entry point: parse → select profile
// → generate headers → acquire a pooled connection → encode request →
// decode response → follow redirects (§2's data-flow summary).
// Configuration is a functional-options surface, matching req's fluent
// `Set*`/`Impersonate*` builder chain on `*Client` (SPEC_FULL's
// Ambient Stack).
type Client struct {
	profile  *profile.Profile
	registry *profile.Registry

	connectTimeout time.Duration
	totalTimeout   time.Duration
	redirectBudget int

	jar      cookiejar.Store
	proxyCfg *proxy.Config
	dialer   proxy.Dialer

	preferH2 bool
	preferH3 bool

	insecureSkipVerify bool

	// customClientHello, when set by WithCustomClientHello, bypasses
	// profile-driven synthesis entirely and is fingerprinted as-is
	// (§9 "custom fingerprint").
	customClientHello []byte
	// defaultHeaders is the header floor WithDefaultHeaders installs;
	// per-request headers still win over it.
	defaultHeaders *Header

	pool *pool.Pool

	// Debugf is an optional caller-supplied tracing hook (SPEC_FULL's
	// Ambient Stack: "libraries don't own stdout" — no logging
	// package is introduced, this is the whole surface).
	Debugf func(format string, args ...any)
}

// ClientOption configures a Client built by New.
type ClientOption func(*Client)

// WithProfile pins the client to an explicit profile rather than
// choosing one per request.
func WithProfile(p *profile.Profile) ClientOption {
	return func(c *Client) { c.profile = p }
}

// WithRegistry overrides the profile registry used for per-request
// profile selection. Every Registry loads the same built-in catalog on
// its first lookup.
func WithRegistry(r *profile.Registry) ClientOption {
	return func(c *Client) { c.registry = r }
}

// WithConnectTimeout bounds TCP+TLS establishment per §3.
func WithConnectTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.connectTimeout = d }
}

// WithTotalTimeout bounds one Do call end-to-end, including redirects.
func WithTotalTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.totalTimeout = d }
}

// WithRedirectBudget overrides the default chain length of 10 (§6).
func WithRedirectBudget(n int) ClientOption {
	return func(c *Client) { c.redirectBudget = n }
}

// WithCookieJar installs a cookie store (§6 Cookie-store contract).
func WithCookieJar(jar cookiejar.Store) ClientOption {
	return func(c *Client) { c.jar = jar }
}

// WithProxy installs a proxy configuration (§6 Proxy).
func WithProxy(cfg *proxy.Config) ClientOption {
	return func(c *Client) { c.proxyCfg = cfg }
}

// WithPreferH2 / WithPreferH3 set the protocol preference (§3
// "preferred protocols (prefer_h2, prefer_h3)"). WithPreferH3 makes
// dial try QUIC first when the profile supports HTTP/3; WithPreferH2
// lets a failed QUIC dial fall back to TCP+TLS. Both also pick the
// protocol used to look up a pooled connection. Neither changes the
// ALPN list offered over TCP+TLS, which comes from the profile: the
// driver follows whatever the server negotiates, so a server that
// selects "h2" is spoken to over HTTP/2 with or without WithPreferH2.
func WithPreferH2() ClientOption { return func(c *Client) { c.preferH2 = true } }
func WithPreferH3() ClientOption { return func(c *Client) { c.preferH3 = true } }

// WithInsecureSkipVerify disables certificate verification; for tests
// against self-signed servers only.
func WithInsecureSkipVerify() ClientOption {
	return func(c *Client) { c.insecureSkipVerify = true }
}

// WithCustomClientHello bypasses profile-driven ClientHello synthesis
// entirely and fingerprints rawClientHello as-is (§9 "custom
// fingerprint" impersonation, grounded on the teacher's
// ImpersonateCustomChrome/Firefox/Safari). The client still needs a
// Profile for header shaping and H2/H3 driver setup; pair this with
// WithProfile when the caller wants full control.
func WithCustomClientHello(rawClientHello []byte) ClientOption {
	return func(c *Client) { c.customClientHello = rawClientHello }
}

// WithDefaultHeaders installs a header floor: any header not already
// present on a given request is filled in from hdr, and the profile's
// own static headers still fill in anything hdr doesn't cover either.
func WithDefaultHeaders(hdr *Header) ClientOption {
	return func(c *Client) { c.defaultHeaders = hdr }
}

// WithDebugf installs an optional tracing hook.
func WithDebugf(f func(string, ...any)) ClientOption {
	return func(c *Client) { c.Debugf = f }
}

// WithPoolConfig overrides the connection pool's capacity/reap policy
// (§4.7); the default Pool has no caps and no idle reaping.
func WithPoolConfig(cfg pool.Config) ClientOption {
	return func(c *Client) { c.pool = pool.New(cfg) }
}

// New builds a Client. With no WithProfile, every Do call draws a
// profile at random from the client's registry.
func New(opts ...ClientOption) *Client {
	c := &Client{
		registry:       profile.Default,
		redirectBudget: redirectBudget,
		pool:           pool.New(pool.Config{}),
		dialer:         proxy.Direct(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.proxyCfg != nil {
		if d, err := proxy.NewDialer(c.proxyCfg); err == nil {
			c.dialer = d
		}
	}
	return c
}

func (c *Client) debugf(format string, args ...any) {
	if c.Debugf != nil {
		c.Debugf(format, args...)
	}
}

// Do sends req, following redirects per §6's RFC 7231 policy, and
// returns the final response.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if c.totalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.totalTimeout)
		defer cancel()
	}

	p, err := c.resolveProfile()
	if err != nil {
		return nil, newErr(KindURL, "ProfileResolutionFailed", err)
	}

	chain := newRedirectChain(c.redirectBudget)
	current := req.Clone()
	current.Header = GenerateHeaders(p, c.withDefaultHeaders(req.Header))

	for {
		if err := chain.visit(current.URL); err != nil {
			return nil, err
		}

		resp, err := c.doOnce(ctx, current, p)
		if err != nil {
			return nil, err
		}
		if !isRedirectStatus(resp.StatusCode) {
			return resp, nil
		}
		if err := chain.advance(); err != nil {
			return nil, err
		}

		next, cookieErr, err := nextRedirectRequest(current, resp, c.jar)
		if cookieErr != nil {
			c.debugf("cookie absorb error during redirect: %v", cookieErr)
		}
		if err != nil {
			return nil, err
		}
		current = next
	}
}

// withDefaultHeaders merges the client's default-header floor under
// req: anything req already sets wins, anything only the floor sets is
// carried through, in the floor's own relative order appended after
// req's headers (§9 defaultHeaders doc: "per-request headers still win
// over it").
func (c *Client) withDefaultHeaders(req *Header) *Header {
	if c.defaultHeaders == nil {
		return req
	}
	merged := &Header{}
	used := map[string]bool{}
	if req != nil {
		for _, p := range req.Items() {
			merged.Add(p.Name, p.Value)
			used[strings.ToLower(p.Name)] = true
		}
	}
	for _, p := range c.defaultHeaders.Items() {
		if used[strings.ToLower(p.Name)] {
			continue
		}
		merged.Add(p.Name, p.Value)
	}
	return merged
}

func (c *Client) resolveProfile() (*profile.Profile, error) {
	if c.profile != nil {
		return c.profile, nil
	}
	return c.registry.Random(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// doOnce performs one request/response exchange: dial (or reuse a
// pooled connection), run the wire protocol, and return the decoded
// response (§2's data-flow summary, minus redirect handling).
func (c *Client) doOnce(ctx context.Context, req *Request, p *profile.Profile) (*Response, error) {
	isHTTPS := req.URL.Scheme != "http"
	host, port := hostPort(req.URL, isHTTPS)

	if c.jar != nil {
		if cookieHeader, ok := c.jar.GenerateHeader(host, req.URL.Path, req.URL.Scheme == "https"); ok {
			req.Header.Set("Cookie", cookieHeader)
		}
	}

	protoKind := pool.H1
	if c.preferH3 {
		protoKind = pool.H3
	} else if c.preferH2 {
		protoKind = pool.H2
	}
	key := pool.Key{Host: host, Port: port, Protocol: protoKind, Profile: p.FingerprintKey()}

	lease, ok := c.pool.Lease(key)
	if !ok {
		conn, err := c.dial(ctx, host, port, p, isHTTPS)
		if err != nil {
			return nil, err
		}
		// A preferred-H3 dial may have fallen back to H2 (§8 scenario
		// 6); key the pool by what was actually negotiated, not what
		// was requested, so a later H3 attempt doesn't reuse an H2
		// connection or vice versa.
		key.Protocol = driverProtocol(conn.Driver)
		if err := c.pool.Put(key, conn); err != nil {
			return nil, newErr(KindPool, "PutFailed", err)
		}
		lease = pool.NewLease(c.pool, conn)
	}
	defer lease.Release()

	switch drv := lease.Conn().Driver.(type) {
	case *h1.Conn:
		resp, err := drv.Do(req)
		if err != nil {
			lease.Conn().MarkDraining()
			return nil, err
		}
		if !drv.Reusable() {
			lease.Conn().MarkDraining()
		}
		return resp, nil
	case *h2.Conn:
		resp, err := drv.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		if drv.Draining() {
			lease.Conn().MarkDraining()
		}
		return resp, nil
	case *h3.Conn:
		resp, err := drv.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		if drv.Draining() {
			lease.Conn().MarkDraining()
		}
		return resp, nil
	default:
		return nil, newErr(KindPool, "UnknownDriver", fmt.Errorf("%T", drv))
	}
}

func (c *Client) dial(ctx context.Context, host string, port int, p *profile.Profile, isHTTPS bool) (*pool.Connection, error) {
	dialCtx := ctx
	if c.connectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.connectTimeout)
		defer cancel()
	}

	// §6/§9: a plain-http:// target never sees TLS at all, so there is no
	// ClientHello to fingerprint and no ALPN to negotiate H2/H3 from — the
	// profile only shapes the request's header order/casing for it (§4.4).
	if !isHTTPS {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		raw, err := c.dialer.DialContext(dialCtx, "tcp", addr)
		if err != nil {
			return nil, newErr(KindConnect, "", err)
		}
		now := time.Now()
		return &pool.Connection{Driver: h1.New(raw), CreatedAt: now, LastUsedAt: now}, nil
	}

	// §8 scenario 6: H3 is attempted first when preferred; a failed QUIC
	// handshake falls back to H2 only if the caller also opted into H2,
	// otherwise it's a fatal H3Protocol::HandshakeFailed with no silent
	// H2 fallback. A custom ClientHello has no QUIC analogue, so it
	// always takes the TCP+TLS path below.
	if c.customClientHello == nil && c.preferH3 && p.SupportsHTTP3 {
		conn, err := c.dialH3(dialCtx, host, port, p)
		if err == nil {
			return conn, nil
		}
		if !c.preferH2 {
			return nil, newErr(KindH3Protocol, "HandshakeFailed", err)
		}
		c.debugf("h3 dial failed, falling back to h2: %v", err)
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	raw, err := c.dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, newErr(KindConnect, "", err)
	}

	var tconn *tlsconn.Conn
	if c.customClientHello != nil {
		// §9: a custom fingerprint bypasses profile-driven synthesis
		// entirely — the raw bytes go straight to the TLS collaborator.
		tconn, err = tlsconn.DialRaw(dialCtx, raw, host, c.customClientHello, []string{"h2", "http/1.1"}, c.insecureSkipVerify)
	} else {
		tconn, err = tlsconn.Dial(dialCtx, raw, host, p, c.insecureSkipVerify)
	}
	if err != nil {
		raw.Close()
		return nil, newErr(KindTLS, "", err)
	}

	now := time.Now()
	switch tconn.NegotiatedProtocol {
	case "h2":
		h2conn, err := h2.Establish(tconn, p)
		if err != nil {
			return nil, newErr(KindH2Protocol, "EstablishFailed", err)
		}
		return &pool.Connection{Driver: h2conn, CreatedAt: now, LastUsedAt: now}, nil
	default:
		return &pool.Connection{Driver: h1.New(tconn), CreatedAt: now, LastUsedAt: now}, nil
	}
}

// dialH3 opens a QUIC session to (host, port) and establishes the h3
// driver over it (§4.6, §6 "the collaborator returns ... a QUIC session
// (H3) on which the driver operates"). Certificate verification and
// 0-RTT belong to the QUIC collaborator (quic-go), not this module;
// the fingerprint-visible surface here is limited to the ALPN value and
// the profile-shaped SETTINGS/QPACK setup h3.Establish performs.
func (c *Client) dialH3(ctx context.Context, host string, port int, p *profile.Profile) (*pool.Connection, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	tlsCfg := &tls.Config{
		ServerName:         host,
		NextProtos:         []string{"h3"},
		InsecureSkipVerify: c.insecureSkipVerify,
	}
	qconn, err := quic.DialAddrContext(ctx, addr, tlsCfg, nil)
	if err != nil {
		return nil, fmt.Errorf("quic dial: %w", err)
	}
	h3conn, err := h3.Establish(ctx, qconn, p)
	if err != nil {
		qconn.CloseWithError(0, "")
		return nil, err
	}
	now := time.Now()
	return &pool.Connection{Driver: h3conn, CreatedAt: now, LastUsedAt: now}, nil
}

func driverProtocol(d pool.Driver) pool.Protocol {
	switch d.(type) {
	case *h2.Conn:
		return pool.H2
	case *h3.Conn:
		return pool.H3
	default:
		return pool.H1
	}
}

func hostPort(u interface{ Hostname() string; Port() string }, isHTTPS bool) (string, int) {
	defaultPort := 80
	if isHTTPS {
		defaultPort = 443
	}
	host := u.Hostname()
	portStr := u.Port()
	if portStr == "" {
		return host, defaultPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, defaultPort
	}
	return host, port
}
