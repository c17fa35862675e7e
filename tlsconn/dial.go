// Package tlsconn wires the synthesized ClientHello bytes from synth
// into the actual TLS collaborator (§6 "External Interfaces": a TLS
// library does the real handshake; this module only builds the bytes
// it sends). Grounded on the teacher's own raw-fingerprint path —
// client_impersonate.go's ImpersonateCustomChrome/Firefox/Safari all
// take a caller-supplied rawClientHello []byte and call
// SetCustomTLSFingerprint, the same "give the TLS layer real bytes, not
// one of its presets" contract this package implements against
// `github.com/refraction-networking/utls`'s own `Fingerprinter` type.
package tlsconn

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	utls "github.com/refraction-networking/utls"

	"github.com/brightwire/impersonate/profile"
	"github.com/brightwire/impersonate/synth"
	"github.com/brightwire/impersonate/tlsext"
)

// Conn is a completed TLS connection whose ClientHello matched a
// profile's declared fingerprint, plus the negotiated ALPN protocol
// the caller needs to pick an HTTP driver.
type Conn struct {
	*utls.UConn
	NegotiatedProtocol string
}

// Dial runs the TLS handshake over rawConn, a pre-established TCP
// connection; serverName is the SNI/cert-verification hostname. Dial builds
// the ClientHello per §4.3 from p, converts it into a uTLS preset via
// Fingerprinter (the library's supported "apply a raw fingerprint"
// entry point), and completes the handshake.
func Dial(ctx context.Context, rawConn net.Conn, serverName string, p *profile.Profile, insecureSkipVerify bool) (*Conn, error) {
	hello, err := synth.Build(p.ClientHelloSpec, serverName)
	if err != nil {
		rawConn.Close()
		return nil, fmt.Errorf("tlsconn: synthesize clienthello: %w", err)
	}
	return dialWithRawHello(ctx, rawConn, serverName, hello.Bytes(), alpnProtocols(p), insecureSkipVerify)
}

// DialRaw is Dial's entry point for a caller-supplied raw ClientHello
// rather than one synthesized from a registered Profile (§9 "custom
// fingerprint" impersonation, grounded on the teacher's
// ImpersonateCustomChrome/Firefox/Safari taking a caller rawClientHello
// []byte straight through to SetCustomTLSFingerprint).
func DialRaw(ctx context.Context, rawConn net.Conn, serverName string, rawClientHello []byte, alpn []string, insecureSkipVerify bool) (*Conn, error) {
	return dialWithRawHello(ctx, rawConn, serverName, rawClientHello, alpn, insecureSkipVerify)
}

func dialWithRawHello(ctx context.Context, rawConn net.Conn, serverName string, rawHello []byte, alpn []string, insecureSkipVerify bool) (*Conn, error) {
	cfg := &utls.Config{
		ServerName:         serverName,
		NextProtos:         alpn,
		InsecureSkipVerify: insecureSkipVerify,
		MinVersion:         tls.VersionTLS12,
	}

	uConn := utls.UClient(rawConn, cfg, utls.HelloCustom)

	fingerprinter := &utls.Fingerprinter{AllowBluntMimicry: true}
	spec, err := fingerprinter.FingerprintClientHello(rawHello)
	if err != nil {
		rawConn.Close()
		return nil, fmt.Errorf("tlsconn: fingerprint raw clienthello: %w", err)
	}
	if err := uConn.ApplyPreset(spec); err != nil {
		rawConn.Close()
		return nil, fmt.Errorf("tlsconn: apply preset: %w", err)
	}

	if err := uConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, fmt.Errorf("tlsconn: handshake: %w", err)
	}

	return &Conn{
		UConn:              uConn,
		NegotiatedProtocol: uConn.ConnectionState().NegotiatedProtocol,
	}, nil
}

// alpnProtocols reads the ALPN extension out of the profile's spec, if
// present, falling back to the standard h2/http1.1 pair.
func alpnProtocols(p *profile.Profile) []string {
	for _, e := range p.ClientHelloSpec.Extensions {
		if alpn, ok := e.(*tlsext.ALPN); ok && len(alpn.Protocols) > 0 {
			protos := make([]string, len(alpn.Protocols))
			copy(protos, alpn.Protocols)
			return protos
		}
	}
	return []string{"h2", "http/1.1"}
}
