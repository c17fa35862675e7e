package h3

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/quic-go/qpack"

	impersonate "github.com/brightwire/impersonate"
)

// encodeHeaders QPACK-encodes req's pseudo-headers (in the profile's
// declared order, same policy as h2 since §4.6 "sensitivity per header
// follows the same policy as HPACK") followed by the caller's regular
// headers in caller order.
func encodeHeaders(authority, scheme string, req *impersonate.Request, order [4]string) ([]byte, error) {
	var buf bytes.Buffer
	enc := qpack.NewEncoder(&buf)

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
		if err := enc.WriteField(qpack.HeaderField{
			Name:      name,
			Value:     val,
			Sensitive: name == ":path",
		}); err != nil {
			return nil, err
		}
	}
	for _, p := range req.Header.Items() {
		if err := enc.WriteField(qpack.HeaderField{Name: strings.ToLower(p.Name), Value: p.Value}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// decodeHeaders mirrors h2's decodeHeaders but against a fresh qpack
// decoder that keeps no dynamic-table state between calls. Establish
// does not set SETTINGS_QPACK_BLOCKED_STREAMS, so it stays at its
// default of 0 and the peer may not send header blocks that wait on
// encoder-stream updates.
func decodeHeaders(block []byte) (status int, hdr *impersonate.Header, err error) {
	dec := qpack.NewDecoder(nil)
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
