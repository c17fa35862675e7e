// Package synth assembles a wire-format TLS ClientHello body from a
// profile's declarative spec and a destination hostname (§4.3),
// grounded on the from_spec/serialize_extensions algorithm this module
// reimplements from the project's original TLS-handshake design notes.
package synth

import (
	"crypto/rand"
	"fmt"

	"github.com/brightwire/impersonate/profile"
	"github.com/brightwire/impersonate/tlsext"
)

// minClientVersion is the TLS 1.2 wire version, used as the floor for
// client_version so TLS 1.3 downgrade-detection still works (§4.3.1).
const minClientVersion uint16 = 0x0303

// echExtensionID is the encrypted_client_hello codepoint; the
// synthesizer drops every extension carrying it, a declared
// tlsext.GREASEECH placeholder included (§4.3).
const echExtensionID = 0xfe0d

const preSharedKeyID = 41
const pskKeyExchangeModesID = 45
const paddingID = 21
const keyShareID = 51
const sniID = 0

// ClientHello is the assembled, ready-to-wrap ClientHello body (no
// record or handshake header).
type ClientHello struct {
	ClientVersion      uint16
	Random             [32]byte
	SessionID          [32]byte
	CipherSuites       []uint16
	CompressionMethods []byte
	Extensions         []byte // serialized extension block
}

// Bytes serializes the full ClientHello body per RFC 5246/8446 wire
// layout: client_version, random, session_id, cipher_suites,
// compression_methods, extensions.
func (c *ClientHello) Bytes() []byte {
	n := 2 + 32 + 1 + len(c.SessionID) + 2 + 2*len(c.CipherSuites) + 1 + len(c.CompressionMethods) + 2 + len(c.Extensions)
	buf := make([]byte, 0, n)
	buf = append(buf, byte(c.ClientVersion>>8), byte(c.ClientVersion))
	buf = append(buf, c.Random[:]...)
	buf = append(buf, byte(len(c.SessionID)))
	buf = append(buf, c.SessionID[:]...)
	buf = append(buf, byte(len(c.CipherSuites)*2>>8), byte(len(c.CipherSuites)*2))
	for _, cs := range c.CipherSuites {
		buf = append(buf, byte(cs>>8), byte(cs))
	}
	buf = append(buf, byte(len(c.CompressionMethods)))
	buf = append(buf, c.CompressionMethods...)
	buf = append(buf, byte(len(c.Extensions)>>8), byte(len(c.Extensions)))
	buf = append(buf, c.Extensions...)
	return buf
}

// Build assembles a ClientHello from spec for the given server name
// (§4.3, steps 1-7). serverName may be empty for an IP-literal target,
// in which case no SNI extension is emitted even if the spec carries
// one with a placeholder host.
func Build(spec *profile.ClientHelloSpec, serverName string) (*ClientHello, error) {
	clientVersion := spec.TLSVersMax
	if clientVersion < minClientVersion {
		clientVersion = minClientVersion
	}

	var random [32]byte
	if _, err := rand.Read(random[:]); err != nil {
		return nil, fmt.Errorf("synth: random: %w", err)
	}
	var sessionID [32]byte
	if _, err := rand.Read(sessionID[:]); err != nil {
		return nil, fmt.Errorf("synth: session id: %w", err)
	}

	compression := spec.CompressionMethods
	if len(compression) == 0 {
		compression = []byte{0}
	}

	// base_len: the fixed ClientHello portion before the extensions
	// block, not counting the extensions-length field itself (§4.3
	// step 6's current_length computation depends on this).
	baseLen := 2 + 32 + 1 + len(sessionID) + 2 + 2*len(spec.CipherSuites) + 1 + len(compression)

	extBytes, err := serializeExtensions(spec.Extensions, serverName, baseLen)
	if err != nil {
		return nil, err
	}

	return &ClientHello{
		ClientVersion:      clientVersion,
		Random:             random,
		SessionID:          sessionID,
		CipherSuites:       spec.CipherSuites,
		CompressionMethods: compression,
		Extensions:         extBytes,
	}, nil
}

// serializeExtensions implements §4.3 step 6: SNI dedup/injection, PSK
// coupling, ECH drop, Boring padding, and real key-share generation
// (the last delegated to tlsext.KeyShare.WriteInto, which already
// generates real keys for empty non-GREASE entries).
func serializeExtensions(exts []tlsext.Extension, serverName string, baseLen int) ([]byte, error) {
	hasPSK := false
	for _, e := range exts {
		if e.ID() == preSharedKeyID {
			hasPSK = true
			break
		}
	}

	var out []byte
	sniWritten := false

	for _, e := range exts {
		switch {
		case e.ID() == sniID:
			if sniWritten {
				continue
			}
			sniWritten = true
			if serverName == "" {
				continue
			}
			sni := &tlsext.SNI{Host: serverName}
			b, err := appendExtension(out, sni)
			if err != nil {
				return nil, err
			}
			out = b

		case e.ID() == pskKeyExchangeModesID && !hasPSK:
			continue

		case e.ID() == echExtensionID:
			continue

		case e.ID() == paddingID:
			// unpaddedLen per §4.3: handshake header(4) + base_bytes +
			// extensions-length field(2) + bytes written so far, NOT
			// counting the padding extension's own header — that's
			// added back in by BoringPaddingLen's own +4 accounting.
			currentLen := 4 + baseLen + 2 + len(out)
			padLen, willPad := tlsext.BoringPaddingLen(currentLen)
			if !willPad {
				continue
			}
			pad := &tlsext.Padding{Len: padLen, WillPad: true}
			b, err := appendExtension(out, pad)
			if err != nil {
				return nil, err
			}
			out = b

		default:
			b, err := appendExtension(out, e)
			if err != nil {
				return nil, err
			}
			out = b
		}
	}

	if !sniWritten && serverName != "" {
		sni := &tlsext.SNI{Host: serverName}
		b, err := appendExtension(out, sni)
		if err != nil {
			return nil, err
		}
		out = b
	}

	return out, nil
}

// appendExtension grows dst by ext.ByteLength() and serializes ext
// into the new tail, returning the grown slice.
func appendExtension(dst []byte, ext tlsext.Extension) ([]byte, error) {
	n := ext.ByteLength()
	if n == 0 {
		return dst, nil
	}
	dst = append(dst, make([]byte, n)...)
	written, err := ext.WriteInto(dst[len(dst)-n:])
	if err != nil {
		return nil, err
	}
	if written != n {
		return nil, fmt.Errorf("synth: %T: WriteInto wrote %d bytes, ByteLength reported %d", ext, written, n)
	}
	return dst, nil
}
