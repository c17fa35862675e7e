package tlsext

// Padding implements the BoringSSL padding extension. Its length is
// not fixed on the struct: it is computed at serialization time by the
// synthesizer (which knows the length of everything written so far)
// via BoringPaddingLen, then plugged into a Padding value before
// WriteInto is called. A Padding with Len == 0 and WillPad == false
// serializes to nothing, matching "otherwise, emit nothing" in §4.3.
type Padding struct {
	Len     int
	WillPad bool
}

func (e *Padding) ID() uint16 { return TypePadding }

func (e *Padding) ByteLength() int {
	if !e.WillPad {
		return 0
	}
	return 4 + e.Len
}

func (e *Padding) WriteInto(buf []byte) (int, error) {
	if !e.WillPad {
		return 0, nil
	}
	n := e.ByteLength()
	if err := checkBuf(buf, n); err != nil {
		return 0, err
	}
	writeHeader(buf, TypePadding, e.Len)
	// Padding body is all-zero, matching BoringSSL's implementation.
	for i := 4; i < n; i++ {
		buf[i] = 0
	}
	return n, nil
}

// BoringPaddingLen applies BoringSSL's ClientHello padding rule
// (§4.3, §9): unpaddedLen is the ClientHello length so far, NOT
// counting the padding extension itself (its 4-byte header is added
// separately by the caller once padLen is known). Whenever unpaddedLen
// falls strictly inside (0x100, 0x200), the body is padded so the
// final total — unpaddedLen + 4 (the padding extension's own header) +
// padLen — comes out to exactly 0x200; otherwise no padding is emitted.
func BoringPaddingLen(unpaddedLen int) (padLen int, willPad bool) {
	if unpaddedLen <= 0x100 || unpaddedLen >= 0x200 {
		return 0, false
	}
	padLen = 0x200 - unpaddedLen - 4
	if padLen < 1 {
		padLen = 1
	}
	return padLen, true
}
