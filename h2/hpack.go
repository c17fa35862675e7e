package h2

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/net/http2/hpack"

	impersonate "github.com/brightwire/impersonate"
)

// encodeHeaders builds the HPACK block for one request, applying the
// profile's pseudo-header order and per-header indexing policy (§4.5):
// ":method" and incremental-indexed regular headers are left to the
// encoder's default static/dynamic-table matching, ":path" is forced
// to a never-indexed literal (it is almost always request-unique, so
// indexing it would only bloat the dynamic table for no reuse), and
// "cookie" and all other regular headers use the encoder's default
// incremental indexing so the dynamic table grows the way a real
// client's does. Grounded on
// `_examples/poxiao33-HttpCall/internal/http2/transport.go`'s
// encodeHeaders, generalized from a fixed pseudo-header order constant
// into `profile.HTTP2PseudoHeaderOrder`-driven ordering.
func encodeHeaders(authority, scheme string, req *impersonate.Request, order [4]string) ([]byte, error) {
	var buf bytes.Buffer
	enc := hpack.NewEncoder(&buf)

	path := req.URL.RequestURI()
	if path == "" {
		path = "/"
	}

	pseudo := map[string]string{
		":method":    req.Method,
		":authority": authority,
		":scheme":    scheme,
		":path":      path,
	}

	for _, name := range order {
		val, ok := pseudo[name]
		if !ok {
			continue
		}
		if err := enc.WriteField(hpack.HeaderField{
			Name:      name,
			Value:     val,
			Sensitive: name == ":path",
		}); err != nil {
			return nil, err
		}
	}

	for _, p := range req.Header.Items() {
		name := strings.ToLower(p.Name)
		if err := enc.WriteField(hpack.HeaderField{Name: name, Value: p.Value}); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// decodeHeaders turns an HPACK block into a status code plus an
// ordered Header, pulling out the ":status" pseudo-header.
func decodeHeaders(dec *hpack.Decoder, block []byte) (status int, hdr *impersonate.Header, err error) {
	fields, err := dec.DecodeFull(block)
	if err != nil {
		return 0, nil, err
	}
	hdr = &impersonate.Header{}
	for _, f := range fields {
		if f.Name == ":status" {
			status, _ = strconv.Atoi(f.Value)
			continue
		}
		hdr.Add(f.Name, f.Value)
	}
	return status, hdr, nil
}
