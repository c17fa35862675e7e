package tlsext

// SignatureAlgorithms is the signature_algorithms extension: an
// ordered list of signature schemes.
type SignatureAlgorithms struct {
	Schemes []uint16
}

func (e *SignatureAlgorithms) ID() uint16 { return TypeSignatureAlgorithms }

func (e *SignatureAlgorithms) ByteLength() int {
	return 6 + 2*len(e.Schemes)
}

func (e *SignatureAlgorithms) WriteInto(buf []byte) (int, error) {
	n := e.ByteLength()
	if err := checkBuf(buf, n); err != nil {
		return 0, err
	}
	listLen := 2 * len(e.Schemes)
	writeHeader(buf, TypeSignatureAlgorithms, 2+listLen)
	putUint16(buf, 4, uint16(listLen))
	for i, s := range e.Schemes {
		putUint16(buf, 6+2*i, s)
	}
	return n, nil
}
