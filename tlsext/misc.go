package tlsext

// The extensions in this file share one shape: a body that is a small
// static record with no per-instance variable-length fields beyond
// what's stored.

// StatusRequest is the status_request (OCSP stapling) extension; its
// body is a fixed 5-byte record requesting OCSP with no responder IDs
// or request extensions.
type StatusRequest struct{}

func (e *StatusRequest) ID() uint16      { return TypeStatusRequest }
func (e *StatusRequest) ByteLength() int { return 9 }
func (e *StatusRequest) WriteInto(buf []byte) (int, error) {
	if err := checkBuf(buf, 9); err != nil {
		return 0, err
	}
	writeHeader(buf, TypeStatusRequest, 5)
	buf[4] = 1 // status_type: ocsp
	putUint16(buf, 5, 0)
	putUint16(buf, 7, 0)
	return 9, nil
}

// SCT is the signed_certificate_timestamp extension, sent empty by
// clients to request SCTs in the server's response.
type SCT struct{}

func (e *SCT) ID() uint16              { return TypeSCT }
func (e *SCT) ByteLength() int         { return 4 }
func (e *SCT) WriteInto(buf []byte) (int, error) {
	if err := checkBuf(buf, 4); err != nil {
		return 0, err
	}
	writeHeader(buf, TypeSCT, 0)
	return 4, nil
}

// ExtendedMasterSecret is the extended_master_secret extension (RFC
// 7627), relevant to the TLS 1.2 fallback path; its body is empty.
type ExtendedMasterSecret struct{}

func (e *ExtendedMasterSecret) ID() uint16      { return TypeExtendedMasterSecret }
func (e *ExtendedMasterSecret) ByteLength() int { return 4 }
func (e *ExtendedMasterSecret) WriteInto(buf []byte) (int, error) {
	if err := checkBuf(buf, 4); err != nil {
		return 0, err
	}
	writeHeader(buf, TypeExtendedMasterSecret, 0)
	return 4, nil
}

// SessionTicket is the session_ticket extension. Ticket is normally
// empty on a fresh ClientHello (no prior session to resume by ticket);
// a non-empty Ticket is passed through verbatim.
type SessionTicket struct {
	Ticket []byte
}

func (e *SessionTicket) ID() uint16      { return TypeSessionTicket }
func (e *SessionTicket) ByteLength() int { return 4 + len(e.Ticket) }
func (e *SessionTicket) WriteInto(buf []byte) (int, error) {
	n := e.ByteLength()
	if err := checkBuf(buf, n); err != nil {
		return 0, err
	}
	writeHeader(buf, TypeSessionTicket, len(e.Ticket))
	copy(buf[4:], e.Ticket)
	return n, nil
}

// PSKKeyExchangeModes is the psk_key_exchange_modes extension (RFC
// 8446 §4.2.9). §4.3: if present but no PreSharedKey extension is
// also present in the spec, the synthesizer omits it entirely — they
// are coupled, so this type never decides that for itself.
type PSKKeyExchangeModes struct {
	Modes []byte
}

func (e *PSKKeyExchangeModes) ID() uint16      { return TypePSKKeyExchangeModes }
func (e *PSKKeyExchangeModes) ByteLength() int { return 5 + len(e.Modes) }
func (e *PSKKeyExchangeModes) WriteInto(buf []byte) (int, error) {
	n := e.ByteLength()
	if err := checkBuf(buf, n); err != nil {
		return 0, err
	}
	writeHeader(buf, TypePSKKeyExchangeModes, 1+len(e.Modes))
	buf[4] = byte(len(e.Modes))
	copy(buf[5:], e.Modes)
	return n, nil
}

// RenegotiationInfo is the renegotiation_info extension (RFC 5746),
// sent empty on an initial handshake.
type RenegotiationInfo struct {
	Data []byte
}

func (e *RenegotiationInfo) ID() uint16      { return TypeRenegotiationInfo }
func (e *RenegotiationInfo) ByteLength() int { return 5 + len(e.Data) }
func (e *RenegotiationInfo) WriteInto(buf []byte) (int, error) {
	n := e.ByteLength()
	if err := checkBuf(buf, n); err != nil {
		return 0, err
	}
	writeHeader(buf, TypeRenegotiationInfo, 1+len(e.Data))
	buf[4] = byte(len(e.Data))
	copy(buf[5:], e.Data)
	return n, nil
}

// CompressCertificate is the compress_certificate extension: an
// ordered list of certificate compression algorithm IDs the client
// supports receiving.
type CompressCertificate struct {
	Algorithms []uint16
}

func (e *CompressCertificate) ID() uint16      { return TypeCompressCertificate }
func (e *CompressCertificate) ByteLength() int { return 5 + 2*len(e.Algorithms) }
func (e *CompressCertificate) WriteInto(buf []byte) (int, error) {
	n := e.ByteLength()
	if err := checkBuf(buf, n); err != nil {
		return 0, err
	}
	algLen := 2 * len(e.Algorithms)
	writeHeader(buf, TypeCompressCertificate, 1+algLen)
	buf[4] = byte(algLen)
	for i, a := range e.Algorithms {
		putUint16(buf, 5+2*i, a)
	}
	return n, nil
}

// PreSharedKey is a placeholder for the pre_shared_key extension.
// §4.2: "actual PSK binders are not populated ... the core treats the
// extension as present but empty." When a real TLS collaborator
// resumes a session, it rewrites this extension's body with live
// binder data after the fact (§9); the core's job is only to reserve
// its slot as the final extension (§3 invariant).
type PreSharedKey struct{}

func (e *PreSharedKey) ID() uint16      { return TypePreSharedKey }
func (e *PreSharedKey) ByteLength() int { return 4 }
func (e *PreSharedKey) WriteInto(buf []byte) (int, error) {
	if err := checkBuf(buf, 4); err != nil {
		return 0, err
	}
	writeHeader(buf, TypePreSharedKey, 0)
	return 4, nil
}
