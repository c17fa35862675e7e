package tlsext

import (
	"crypto/ecdh"
	"crypto/rand"
)

// TLS 1.3 named group IDs for the curves this synthesizer can generate
// ephemeral key material for.
const (
	GroupX25519  uint16 = 0x001d
	GroupP256    uint16 = 0x0017
	GroupP384    uint16 = 0x0018
	GroupP521    uint16 = 0x0019
)

// KeyShareEntry is one (group, public_key) pair of the key_share
// extension.
type KeyShareEntry struct {
	Group uint16
	Data  []byte
}

// KeyShare is the key_share extension. For each entry whose group is
// non-GREASE and whose Data is empty, a real ephemeral public key is
// generated for that curve at WriteInto time (§4.2, §4.3). GREASE
// entries keep their placeholder bytes verbatim.
type KeyShare struct {
	Entries []KeyShareEntry
}

func (e *KeyShare) ID() uint16 { return TypeKeyShare }

// generatedLen returns the public-key length WriteInto will produce
// for group if Data is empty and group is a real (non-GREASE) curve
// this synthesizer knows how to generate keys for; 0 if group is
// unrecognized (callers are then expected to have supplied Data
// themselves, e.g. for a post-quantum hybrid group).
func generatedLen(group uint16) int {
	switch group {
	case GroupX25519:
		return 32
	case GroupP256:
		return 65 // uncompressed SEC1: 0x04 || X(32) || Y(32)
	case GroupP384:
		return 97 // 0x04 || X(48) || Y(48)
	case GroupP521:
		return 133 // 0x04 || X(66) || Y(66)
	default:
		return 0
	}
}

func entryLen(entry KeyShareEntry) int {
	dataLen := len(entry.Data)
	if dataLen == 0 && !IsGREASE(entry.Group) {
		dataLen = generatedLen(entry.Group)
	}
	return 4 + dataLen // group(2) + length(2) + data
}

func (e *KeyShare) ByteLength() int {
	total := 4 + 2 // header + client_shares_length
	for _, entry := range e.Entries {
		total += entryLen(entry)
	}
	return total
}

// generateKey produces a fresh ephemeral public key for group using
// crypto/ecdh, or nil if group isn't one of the recognized curves.
func generateKey(group uint16) ([]byte, error) {
	var curve ecdh.Curve
	switch group {
	case GroupX25519:
		curve = ecdh.X25519()
	case GroupP256:
		curve = ecdh.P256()
	case GroupP384:
		curve = ecdh.P384()
	case GroupP521:
		curve = ecdh.P521()
	default:
		return nil, nil
	}
	priv, err := curve.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return priv.PublicKey().Bytes(), nil
}

func (e *KeyShare) WriteInto(buf []byte) (int, error) {
	n := e.ByteLength()
	if err := checkBuf(buf, n); err != nil {
		return 0, err
	}
	sharesLen := n - 6
	writeHeader(buf, TypeKeyShare, 2+sharesLen)
	putUint16(buf, 4, uint16(sharesLen))
	off := 6
	for _, entry := range e.Entries {
		group := entry.Group
		if group == GreasePlaceholder {
			group = RandomGREASE()
		}
		data := entry.Data
		if len(data) == 0 && !IsGREASE(group) {
			generated, err := generateKey(group)
			if err != nil {
				return 0, err
			}
			data = generated
		}
		putUint16(buf, off, group)
		putUint16(buf, off+2, uint16(len(data)))
		copy(buf[off+4:], data)
		off += 4 + len(data)
	}
	return n, nil
}
