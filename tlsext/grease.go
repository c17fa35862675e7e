package tlsext

import "crypto/rand"

// greaseValues are the sixteen reserved GREASE values from RFC 8701:
// 0x?A?A for ? in 0x0..0xf.
var greaseValues = [16]uint16{
	0x0a0a, 0x1a1a, 0x2a2a, 0x3a3a,
	0x4a4a, 0x5a5a, 0x6a6a, 0x7a7a,
	0x8a8a, 0x9a9a, 0xaaaa, 0xbaba,
	0xcaca, 0xdada, 0xeaea, 0xfafa,
}

// RandomGREASE draws one of the sixteen reserved GREASE values
// uniformly at random.
func RandomGREASE() uint16 {
	var b [1]byte
	_, _ = rand.Read(b[:])
	return greaseValues[b[0]%16]
}

// GreasePlaceholder is a sentinel curve/version/group ID (the IANA
// reserved-unassigned 0) used inside SupportedGroups, SupportedVersions,
// and KeyShare entries to mean "substitute a freshly-drawn GREASE value
// at WriteInto time" rather than baking one fixed value into a profile
// at construction time — profiles are immutable and shared (§3), but
// real browsers draw a new GREASE value on every handshake, so the
// variant's own randomness must live in WriteInto, not in the stored
// spec.
const GreasePlaceholder uint16 = 0

// GREASE is a standalone GREASE extension: a randomly-chosen reserved
// extension type with a zero-length body (§4.2).
type GREASE struct {
	Value uint16 // 0 means "choose one at WriteInto time"
}

func (e *GREASE) ID() uint16 {
	if e.Value == 0 {
		return 0x0a0a // placeholder identity prior to serialization
	}
	return e.Value
}

func (e *GREASE) ByteLength() int { return 4 }

func (e *GREASE) WriteInto(buf []byte) (int, error) {
	if err := checkBuf(buf, 4); err != nil {
		return 0, err
	}
	v := e.Value
	if v == 0 {
		v = RandomGREASE()
	}
	writeHeader(buf, v, 0)
	return 4, nil
}

// GREASEECH is the ECH-shaped GREASE extension browsers send to
// exercise middlebox tolerance of the encrypted_client_hello
// codepoint (identifier 0xfe0d). Unlike generic GREASE, its extension
// ID is fixed and its body carries placeholder ECH-shaped bytes rather
// than being empty.
type GREASEECH struct {
	Body []byte
}

func (e *GREASEECH) ID() uint16 { return TypeGREASEECH }

func (e *GREASEECH) ByteLength() int { return 4 + len(e.Body) }

func (e *GREASEECH) WriteInto(buf []byte) (int, error) {
	n := e.ByteLength()
	if err := checkBuf(buf, n); err != nil {
		return 0, err
	}
	writeHeader(buf, TypeGREASEECH, len(e.Body))
	copy(buf[4:], e.Body)
	return n, nil
}
