package tlsext

// SupportedVersions is the supported_versions extension: an ordered
// list of TLS versions, which may include GREASE entries.
type SupportedVersions struct {
	Versions []uint16
}

func (e *SupportedVersions) ID() uint16 { return TypeSupportedVersions }

func (e *SupportedVersions) ByteLength() int {
	return 5 + 2*len(e.Versions)
}

func (e *SupportedVersions) WriteInto(buf []byte) (int, error) {
	n := e.ByteLength()
	if err := checkBuf(buf, n); err != nil {
		return 0, err
	}
	listLen := 2 * len(e.Versions)
	writeHeader(buf, TypeSupportedVersions, 1+listLen)
	buf[4] = byte(listLen)
	for i, v := range e.Versions {
		if v == GreasePlaceholder {
			v = RandomGREASE()
		}
		putUint16(buf, 5+2*i, v)
	}
	return n, nil
}
