// Package cookiejar implements the §6 Cookie-store contract: a
// narrow (generate_header, absorb_set_cookie) interface plus a
// reference in-memory implementation, so the redirect/request path
// never has to know how cookies are parsed, expired, or matched by
// domain/path — it just asks the store for a header value and hands
// it a raw Set-Cookie value to absorb.
package cookiejar

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
)

// Store is the collaborator contract from §6: "generate_header(host,
// path, is_https) → Option<String>" and "absorb_set_cookie(header_value,
// host)". Parsing, expiry, and SameSite enforcement are the
// collaborator's responsibility, not this module's (§6 "out of
// scope; the core assumes the collaborator honors standard
// semantics"). AbsorbSetCookie returns an error for a header value
// that didn't parse into any cookie, so callers processing several
// Set-Cookie values on one redirect hop (the `redirect` package) can
// collect per-value failures instead of treating the whole hop as
// fatal.
type Store interface {
	GenerateHeader(host, path string, isHTTPS bool) (string, bool)
	AbsorbSetCookie(headerValue, host string) error
}

// jarStore adapts the standard library's RFC 6265 cookie jar
// (`net/http/cookiejar`) to the Store contract. Grounded on
// `_examples/firasghr-GoSessionEngine/session/session.go`'s use of
// `http.CookieJar`/`net/http/cookiejar.New` as a session's cookie
// store — the idiomatic Go choice the pack itself reaches for, rather
// than a hand-rolled domain/path matcher this module would have to
// get right (and keep right) on its own.
//
// §3 "Cookie store, when present, is shared by all requests of one
// client; writes are serialized" — AbsorbSetCookie takes jarStore's
// own mutex because `cookiejar.Jar` serializes its internal state but
// this module additionally needs to serialize the host→URL
// construction alongside it for callers issuing concurrent redirect
// chains against the same store.
type jarStore struct {
	mu  sync.Mutex
	jar *cookiejar.Jar
}

// New returns the reference Store implementation.
func New() Store {
	jar, _ := cookiejar.New(nil) // nil options: default public-suffix-unaware jar, matching net/http's own zero-value behavior
	return &jarStore{jar: jar}
}

func targetURL(host, path string, isHTTPS bool) *url.URL {
	scheme := "http"
	if isHTTPS {
		scheme = "https"
	}
	if path == "" {
		path = "/"
	}
	return &url.URL{Scheme: scheme, Host: host, Path: path}
}

// GenerateHeader returns the Cookie header value for host/path/scheme,
// or false if the store has nothing to send.
func (s *jarStore) GenerateHeader(host, path string, isHTTPS bool) (string, bool) {
	u := targetURL(host, path, isHTTPS)

	s.mu.Lock()
	cookies := s.jar.Cookies(u)
	s.mu.Unlock()

	if len(cookies) == 0 {
		return "", false
	}
	req := &http.Request{Header: make(http.Header)}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req.Header.Get("Cookie"), true
}

// AbsorbSetCookie parses a raw Set-Cookie header value and integrates
// it into the store for host, returning an error if the value didn't
// parse into a cookie at all.
func (s *jarStore) AbsorbSetCookie(headerValue, host string) error {
	header := http.Header{}
	header.Add("Set-Cookie", headerValue)
	resp := http.Response{Header: header}
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return fmt.Errorf("cookiejar: could not parse Set-Cookie value %q", headerValue)
	}
	// Scheme only affects cookiejar.Jar's domain-matching path here,
	// not the parsed cookie's own Secure attribute, so a fixed https
	// URL is safe regardless of which scheme the response actually
	// came over.
	u := targetURL(host, "/", true)
	s.mu.Lock()
	s.jar.SetCookies(u, cookies)
	s.mu.Unlock()
	return nil
}
