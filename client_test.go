package impersonate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/brightwire/impersonate/profile"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	p, err := profile.Default.ByName("chrome120")
	if err != nil {
		t.Fatal(err)
	}
	return New(
		WithProfile(p),
		WithInsecureSkipVerify(),
		WithConnectTimeout(5*time.Second),
	)
}

func mustRequestURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestClientDoSimpleGET(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Echo-Path", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := testClient(t)
	req := &Request{Method: "GET", URL: mustRequestURL(t, srv.URL+"/hi"), Header: &Header{}}

	resp, err := c.Do(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d", resp.StatusCode)
	}
	if string(resp.Body) != "hello" {
		t.Fatalf("got body %q", resp.Body)
	}
}

func TestClientDoFollowsRedirect(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/start" {
			http.Redirect(w, r, "/end", http.StatusFound)
			return
		}
		w.Write([]byte("landed"))
	}))
	defer srv.Close()

	c := testClient(t)
	req := &Request{Method: "GET", URL: mustRequestURL(t, srv.URL+"/start"), Header: &Header{}}

	resp, err := c.Do(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if string(resp.Body) != "landed" {
		t.Fatalf("got body %q", resp.Body)
	}
}

func TestClientDoDefaultHeadersFloorLosesToRequestHeader(t *testing.T) {
	var gotUA, gotCustom string
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-From-Floor")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	floor := &Header{}
	floor.Add("User-Agent", "floor-agent/1.0")
	floor.Add("X-From-Floor", "yes")

	p, err := profile.Default.ByName("chrome120")
	if err != nil {
		t.Fatal(err)
	}
	c := New(
		WithProfile(p),
		WithInsecureSkipVerify(),
		WithConnectTimeout(5*time.Second),
		WithDefaultHeaders(floor),
	)
	req := &Request{Method: "GET", URL: mustRequestURL(t, srv.URL+"/"), Header: &Header{}}
	req.Header.Add("User-Agent", "request-agent/2.0")

	if _, err := c.Do(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if gotUA != "request-agent/2.0" {
		t.Fatalf("expected the per-request User-Agent to win over the default-headers floor, got %q", gotUA)
	}
	if gotCustom != "yes" {
		t.Fatalf("expected the floor to fill in a header the request didn't set, got %q", gotCustom)
	}
}

func TestClientDoRedirectLoopAborts(t *testing.T) {
	var mux http.HandlerFunc
	mux = func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.Path, http.StatusFound)
	}
	srv := httptest.NewTLSServer(mux)
	defer srv.Close()

	c := testClient(t)
	req := &Request{Method: "GET", URL: mustRequestURL(t, srv.URL+"/loop"), Header: &Header{}}

	_, err := c.Do(context.Background(), req)
	if err == nil {
		t.Fatal("expected a RedirectLoop error")
	}
	ierr, ok := err.(*Error)
	if !ok || ierr.Kind != KindRedirect {
		t.Fatalf("expected a KindRedirect error, got %v", err)
	}
}
