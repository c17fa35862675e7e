package impersonate

import (
	"net/url"
	"testing"

	"github.com/brightwire/impersonate/cookiejar"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestNextRedirectRequest302ChangesToGETAndDropsBody(t *testing.T) {
	prev := &Request{Method: "POST", URL: mustURL(t, "https://example.com/a"), Header: &Header{}, Body: []byte("payload")}
	resp := &Response{StatusCode: 302, Header: &Header{}}
	resp.Header.Add("Location", "/b")

	next, cookieErr, err := nextRedirectRequest(prev, resp, nil)
	if err != nil || cookieErr != nil {
		t.Fatal(err, cookieErr)
	}
	if next.Method != "GET" || next.Body != nil {
		t.Fatalf("expected GET with no body, got %s body=%q", next.Method, next.Body)
	}
	if next.URL.String() != "https://example.com/b" {
		t.Fatalf("got %s", next.URL)
	}
	if ref, _ := next.Header.Get("Referer"); ref != "https://example.com/a" {
		t.Fatalf("got Referer %q", ref)
	}
}

func TestNextRedirectRequest307PreservesMethodAndBody(t *testing.T) {
	prev := &Request{Method: "PUT", URL: mustURL(t, "https://example.com/a"), Header: &Header{}, Body: []byte("payload")}
	resp := &Response{StatusCode: 307, Header: &Header{}}
	resp.Header.Add("Location", "https://example.com/b")

	next, _, err := nextRedirectRequest(prev, resp, nil)
	if err != nil {
		t.Fatal(err)
	}
	if next.Method != "PUT" || string(next.Body) != "payload" {
		t.Fatalf("expected PUT with preserved body, got %s body=%q", next.Method, next.Body)
	}
}

func TestNextRedirectRequestMissingLocation(t *testing.T) {
	prev := &Request{Method: "GET", URL: mustURL(t, "https://example.com/a"), Header: &Header{}}
	resp := &Response{StatusCode: 302, Header: &Header{}}

	_, _, err := nextRedirectRequest(prev, resp, nil)
	if err == nil {
		t.Fatal("expected an error for a missing Location header")
	}
}

func TestNextRedirectRequestDropsPriorCookieHeader(t *testing.T) {
	prev := &Request{Method: "GET", URL: mustURL(t, "https://example.com/a"), Header: &Header{}}
	prev.Header.Add("Cookie", "stale=1")
	resp := &Response{StatusCode: 302, Header: &Header{}}
	resp.Header.Add("Location", "/b")

	next, _, err := nextRedirectRequest(prev, resp, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := next.Header.Get("Cookie"); ok {
		t.Fatal("expected no Cookie header to survive without a jar")
	}
}

func TestNextRedirectRequestRegeneratesCookieFromJar(t *testing.T) {
	jar := cookiejar.New()
	jar.AbsorbSetCookie("fresh=1", "example.com")

	prev := &Request{Method: "GET", URL: mustURL(t, "https://example.com/a"), Header: &Header{}}
	prev.Header.Add("Cookie", "stale=1")
	resp := &Response{StatusCode: 302, Header: &Header{}}
	resp.Header.Add("Location", "/b")

	next, _, err := nextRedirectRequest(prev, resp, jar)
	if err != nil {
		t.Fatal(err)
	}
	if val, ok := next.Header.Get("Cookie"); !ok || val != "fresh=1" {
		t.Fatalf("expected Cookie fresh=1, got %q ok=%v", val, ok)
	}
}

func TestRedirectChainDetectsLoop(t *testing.T) {
	c := newRedirectChain(10)
	u := mustURL(t, "https://example.com/a")
	if err := c.visit(u); err != nil {
		t.Fatal(err)
	}
	if err := c.visit(u); err == nil {
		t.Fatal("expected RedirectLoop on revisiting the same URL")
	}
}

func TestRedirectChainEnforcesBudget(t *testing.T) {
	// A chain of exactly budget redirects must succeed: the initial
	// request's own URL is visited but doesn't consume any of the
	// budget, only each hop actually followed does.
	c := newRedirectChain(2)
	if err := c.visit(mustURL(t, "https://example.com/0")); err != nil {
		t.Fatal(err)
	}
	if err := c.advance(); err != nil {
		t.Fatal("expected the first redirect to fit within the budget")
	}
	if err := c.visit(mustURL(t, "https://example.com/1")); err != nil {
		t.Fatal(err)
	}
	if err := c.advance(); err != nil {
		t.Fatal("expected the second redirect to fit within the budget")
	}
	if err := c.visit(mustURL(t, "https://example.com/2")); err != nil {
		t.Fatal(err)
	}
	if err := c.advance(); err == nil {
		t.Fatal("expected TooManyRedirects on the third redirect")
	}
}

func TestNextRedirectRequest303DropsContentLength(t *testing.T) {
	prev := &Request{Method: "POST", URL: mustURL(t, "https://example.com/a"), Header: &Header{}, Body: []byte("payload")}
	prev.Header.Add("Content-Length", "7")
	prev.Header.Add("X-Keep", "1")
	resp := &Response{StatusCode: 303, Header: &Header{}}
	resp.Header.Add("Location", "/b")

	next, _, err := nextRedirectRequest(prev, resp, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := next.Header.Get("Content-Length"); ok {
		t.Fatal("expected Content-Length to be dropped on a 303-to-GET redirect")
	}
	if v, ok := next.Header.Get("X-Keep"); !ok || v != "1" {
		t.Fatal("expected unrelated headers to survive the redirect")
	}
}
