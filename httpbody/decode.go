// Package httpbody implements response body decompression shared by
// all three protocol drivers (§4.4 "If Content-Encoding is gzip,
// deflate, or br, decompress before returning"). Grounded on the
// teacher's own content-encoding dependency stack: req/v3 imports both
// andybalholm/brotli and klauspost/compress for exactly this purpose.
package httpbody

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
)

// Decode decompresses body according to the Content-Encoding header
// value encoding. An empty or "identity" encoding returns body
// unchanged. Unrecognized encodings are returned as an error, per
// §4.4's failure mode (a decode step that can't proceed is a protocol
// error, not silently passed through).
func Decode(encoding string, body []byte) ([]byte, error) {
	switch encoding {
	case "", "identity":
		return body, nil
	case "gzip", "x-gzip":
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("httpbody: gzip: %w", err)
		}
		defer r.Close()
		return readAll(r)
	case "deflate":
		r := flate.NewReader(bytes.NewReader(body))
		defer r.Close()
		return readAll(r)
	case "br":
		r := brotli.NewReader(bytes.NewReader(body))
		return readAll(r)
	default:
		return nil, fmt.Errorf("httpbody: unsupported content-encoding %q", encoding)
	}
}

func readAll(r io.Reader) ([]byte, error) {
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("httpbody: decompress: %w", err)
	}
	return out, nil
}
