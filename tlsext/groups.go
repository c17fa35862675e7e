package tlsext

// SupportedGroups is the supported_groups (née elliptic_curves)
// extension: an ordered list of curve/group IDs, which may include
// GREASE markers verbatim (§4.2).
type SupportedGroups struct {
	Curves []uint16
}

func (e *SupportedGroups) ID() uint16 { return TypeSupportedGroups }

func (e *SupportedGroups) ByteLength() int {
	return 6 + 2*len(e.Curves)
}

func (e *SupportedGroups) WriteInto(buf []byte) (int, error) {
	n := e.ByteLength()
	if err := checkBuf(buf, n); err != nil {
		return 0, err
	}
	listLen := 2 * len(e.Curves)
	writeHeader(buf, TypeSupportedGroups, 2+listLen)
	putUint16(buf, 4, uint16(listLen))
	for i, c := range e.Curves {
		if c == GreasePlaceholder {
			c = RandomGREASE()
		}
		putUint16(buf, 6+2*i, c)
	}
	return n, nil
}

// ECPointFormats is the ec_point_formats extension: an ordered list of
// octet point formats.
type ECPointFormats struct {
	Formats []byte
}

func (e *ECPointFormats) ID() uint16 { return TypeECPointFormats }

func (e *ECPointFormats) ByteLength() int {
	return 5 + len(e.Formats)
}

func (e *ECPointFormats) WriteInto(buf []byte) (int, error) {
	n := e.ByteLength()
	if err := checkBuf(buf, n); err != nil {
		return 0, err
	}
	writeHeader(buf, TypeECPointFormats, 1+len(e.Formats))
	buf[4] = byte(len(e.Formats))
	copy(buf[5:], e.Formats)
	return n, nil
}
