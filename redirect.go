package impersonate

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/brightwire/impersonate/cookiejar"
)

// redirectBudget is the default chain length ceiling (§6 "redirect
// budget (default 10)").
const redirectBudget = 10

// redirectStatusChangesToGET reports whether code is a 301/302/303
// (§6 "For 301/302/303: change method to GET and drop the body").
// 307/308 preserve method and body and are handled by the default
// branch in nextRedirectRequest.
func redirectStatusChangesToGET(code int) bool {
	switch code {
	case 301, 302, 303:
		return true
	default:
		return false
	}
}

func isRedirectStatus(code int) bool {
	switch code {
	case 301, 302, 303, 307, 308:
		return true
	default:
		return false
	}
}

// nextRedirectRequest builds the request for the next hop of a 3xx
// chain, per §6's Redirect policy. jar may be nil (§6 "cookie store
// (optional)"); when present it both generates the new Cookie header
// from scratch for the target and absorbs any Set-Cookie headers
// carried by resp.
//
// The returned cookieErr aggregates (via multierror) any individual
// Set-Cookie values that failed to parse; per SPEC_FULL's
// ambient-stack note this never aborts the redirect itself — the hop
// still proceeds with whichever cookies did absorb — callers surface
// cookieErr only through the optional Debugf hook.
func nextRedirectRequest(prev *Request, resp *Response, jar cookiejar.Store) (next *Request, cookieErr error, err error) {
	location, ok := resp.Header.Get("Location")
	if !ok {
		return nil, nil, newErr(KindRedirect, "MissingLocation", nil)
	}
	target, err := prev.URL.Parse(location)
	if err != nil {
		return nil, nil, newErr(KindRedirect, "InvalidLocation", err)
	}
	target.Fragment = ""

	next = &Request{
		Method: prev.Method,
		URL:    target,
		Header: &Header{},
		Body:   prev.Body,
	}
	if redirectStatusChangesToGET(resp.StatusCode) {
		next.Method = "GET"
		next.Body = nil
	}

	dropsBody := redirectStatusChangesToGET(resp.StatusCode)
	for _, p := range prev.Header.Items() {
		if strings.EqualFold(p.Name, "Cookie") {
			// §6 "never carry a previously-computed Cookie header
			// forward" — the jar (if any) regenerates it below.
			continue
		}
		if dropsBody && strings.EqualFold(p.Name, "Content-Length") {
			// §6 "same headers minus Content-Length" — the body is
			// gone, so the old length would lie about the new request.
			continue
		}
		next.Header.Add(p.Name, p.Value)
	}
	next.Header.Set("Referer", prev.URL.String())

	if jar != nil {
		var merr *multierror.Error
		for _, sc := range resp.Header.Items() {
			if !strings.EqualFold(sc.Name, "Set-Cookie") {
				continue
			}
			if absorbErr := jar.AbsorbSetCookie(sc.Value, prev.URL.Hostname()); absorbErr != nil {
				merr = multierror.Append(merr, absorbErr)
			}
		}
		if cookieHeader, ok := jar.GenerateHeader(target.Hostname(), target.Path, target.Scheme == "https"); ok {
			next.Header.Set("Cookie", cookieHeader)
		}
		cookieErr = merr.ErrorOrNil()
	}

	return next, cookieErr, nil
}

// redirectChain tracks visited URLs to detect loops and enforce the
// configured budget (§6 "Abort with RedirectLoop ... Abort with
// TooManyRedirects"). Loop detection and the budget count are tracked
// separately: the initial request's URL is visited but is not itself a
// redirect, so a chain of exactly budget redirects must succeed.
type redirectChain struct {
	budget    int
	visited   map[string]bool
	redirects int
}

func newRedirectChain(budget int) *redirectChain {
	if budget <= 0 {
		budget = redirectBudget
	}
	return &redirectChain{budget: budget, visited: make(map[string]bool)}
}

// visit records u as seen, failing with RedirectLoop if it was already
// visited earlier in the chain (including the initial request's URL).
func (c *redirectChain) visit(u *url.URL) error {
	key := u.String()
	if c.visited[key] {
		return newErr(KindRedirect, "RedirectLoop", fmt.Errorf("redirect loop at %s", key))
	}
	c.visited[key] = true
	return nil
}

// advance counts one more redirect actually followed, failing with
// TooManyRedirects once the budget is exhausted.
func (c *redirectChain) advance() error {
	if c.redirects >= c.budget {
		return newErr(KindRedirect, "TooManyRedirects", nil)
	}
	c.redirects++
	return nil
}
