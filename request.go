package impersonate

import "net/url"

// Header is an ordered multimap of header name to values. Order is
// fingerprint-visible (§4.4, §4.5), so it is a slice of pairs rather
// than a map.
type Header struct {
	pairs []headerPair
}

type headerPair struct {
	Name  string
	Value string
}

// Add appends a header in place, preserving caller order.
func (h *Header) Add(name, value string) {
	h.pairs = append(h.pairs, headerPair{Name: name, Value: value})
}

// Set replaces all existing values for name (case-insensitive) with a
// single value, keeping the position of the first existing occurrence
// or appending if absent.
func (h *Header) Set(name, value string) {
	for i := range h.pairs {
		if equalFold(h.pairs[i].Name, name) {
			h.pairs[i].Value = value
			h.pairs = append(h.pairs[:i+1], removeFold(h.pairs[i+1:], name)...)
			return
		}
	}
	h.Add(name, value)
}

func removeFold(pairs []headerPair, name string) []headerPair {
	out := pairs[:0]
	for _, p := range pairs {
		if !equalFold(p.Name, name) {
			out = append(out, p)
		}
	}
	return out
}

// Get returns the first value for name, case-insensitive.
func (h *Header) Get(name string) (string, bool) {
	for _, p := range h.pairs {
		if equalFold(p.Name, name) {
			return p.Value, true
		}
	}
	return "", false
}

// Del removes every occurrence of name, case-insensitive.
func (h *Header) Del(name string) {
	h.pairs = removeFold(h.pairs, name)
}

// Items returns the ordered (name, value) pairs as the wire order the
// driver must reproduce.
func (h *Header) Items() []headerPair {
	return h.pairs
}

// Clone returns an independent copy with the same order and values.
func (h *Header) Clone() *Header {
	if h == nil {
		return &Header{}
	}
	cp := make([]headerPair, len(h.pairs))
	copy(cp, h.pairs)
	return &Header{pairs: cp}
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Request is an absolute-URL HTTP request with caller-ordered headers,
// per §3 and §6.
type Request struct {
	Method  string
	URL     *url.URL
	Header  *Header
	Body    []byte
}

// Clone returns a deep-enough copy suitable for safe mutation during
// redirect handling (new Header, same Body slice since bodies are
// dropped rather than mutated on redirect).
func (r *Request) Clone() *Request {
	u := *r.URL
	return &Request{
		Method: r.Method,
		URL:    &u,
		Header: r.Header.Clone(),
		Body:   r.Body,
	}
}

// Response is the result of a completed request, per §3.
type Response struct {
	StatusCode  int
	HTTPVersion string // "HTTP/1.1" | "HTTP/2" | "HTTP/3"
	Header      *Header
	Body        []byte
}
