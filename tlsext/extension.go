// Package tlsext models the closed set of TLS ClientHello extensions
// this client can emit, each with a byte-exact serialized form. It has
// no dependency on any TLS library: it is pure wire-format code, ported
// from the extension records described in the upstream fingerprinting
// engine this module reimplements (see tls_extensions.rs in the
// project's design notes).
package tlsext

import "fmt"

// Well-known extension type IDs (IANA TLS ExtensionType registry plus
// the non-standard codepoints browsers have shipped).
const (
	TypeServerName                  uint16 = 0
	TypeStatusRequest               uint16 = 5
	TypeSupportedGroups              uint16 = 10
	TypeECPointFormats               uint16 = 11
	TypeSignatureAlgorithms          uint16 = 13
	TypeALPN                         uint16 = 16
	TypeApplicationSettings          uint16 = 17513
	TypeSCT                          uint16 = 18
	TypePadding                      uint16 = 21
	TypeExtendedMasterSecret         uint16 = 23
	TypeCompressCertificate          uint16 = 27
	TypeSessionTicket                uint16 = 35
	TypePreSharedKey                 uint16 = 41
	TypeSupportedVersions            uint16 = 43
	TypePSKKeyExchangeModes          uint16 = 45
	TypeKeyShare                     uint16 = 51
	TypeRenegotiationInfo            uint16 = 0xff01
	TypeGREASEECH                    uint16 = 0xfe0d
)

// Extension is the sum-type contract every variant implements. Length
// and serialization must agree: WriteInto must write exactly
// ByteLength bytes, the full [type(2), length(2), body...] record
// (or zero bytes, for an extension that elects to vanish, such as an
// empty SNI).
type Extension interface {
	// ID returns the extension's wire type. For GREASE, this is its
	// configured Value, or 0x0a0a when the value is drawn at WriteInto
	// time.
	ID() uint16
	// ByteLength returns the number of bytes WriteInto will write.
	ByteLength() int
	// WriteInto serializes the full extension record (including the
	// 4-byte type+length header) into buf, which callers guarantee is
	// at least ByteLength() long. It returns the number of bytes
	// written, which must equal ByteLength().
	WriteInto(buf []byte) (int, error)
}

// ErrBufferTooShort is returned by WriteInto when the destination
// buffer is smaller than ByteLength reports; per the design's failure
// modes, this indicates a caller bug, not a runtime condition to
// recover from.
type ErrBufferTooShort struct {
	Need, Have int
}

func (e *ErrBufferTooShort) Error() string {
	return fmt.Sprintf("tlsext: buffer too short: need %d, have %d", e.Need, e.Have)
}

func checkBuf(buf []byte, need int) error {
	if len(buf) < need {
		return &ErrBufferTooShort{Need: need, Have: len(buf)}
	}
	return nil
}

func putUint16(buf []byte, off int, v uint16) {
	buf[off] = byte(v >> 8)
	buf[off+1] = byte(v)
}

// writeHeader writes the 4-byte [type, length] record header at buf[0:4].
func writeHeader(buf []byte, id uint16, bodyLen int) {
	putUint16(buf, 0, id)
	putUint16(buf, 2, uint16(bodyLen))
}

// IsGREASE reports whether v follows the reserved GREASE pattern
// (low nibble of each byte is 0xa, RFC 8701).
func IsGREASE(v uint16) bool {
	return v&0x0f0f == 0x0a0a
}

// Opaque passes through an extension this model doesn't have a typed
// variant for, verbatim. §4.2: "Open-ended extension IDs not in the
// closed variant set are permitted but must be passed through as
// opaque (id, bytes)."
type Opaque struct {
	Type uint16
	Body []byte
}

func (o *Opaque) ID() uint16        { return o.Type }
func (o *Opaque) ByteLength() int   { return 4 + len(o.Body) }
func (o *Opaque) WriteInto(buf []byte) (int, error) {
	n := o.ByteLength()
	if err := checkBuf(buf, n); err != nil {
		return 0, err
	}
	writeHeader(buf, o.Type, len(o.Body))
	copy(buf[4:], o.Body)
	return n, nil
}
