package tlsext

// ALPN is the application_layer_protocol_negotiation extension: an
// ordered list of protocol strings, each length-prefixed.
type ALPN struct {
	Protocols []string
}

func (e *ALPN) ID() uint16 { return TypeALPN }

func (e *ALPN) ByteLength() int {
	total := 4 + 2 // header + protocol_name_list_length
	for _, p := range e.Protocols {
		total += 1 + len(p)
	}
	return total
}

func (e *ALPN) WriteInto(buf []byte) (int, error) {
	n := e.ByteLength()
	if err := checkBuf(buf, n); err != nil {
		return 0, err
	}
	listLen := 0
	for _, p := range e.Protocols {
		listLen += 1 + len(p)
	}
	writeHeader(buf, TypeALPN, 2+listLen)
	putUint16(buf, 4, uint16(listLen))
	off := 6
	for _, p := range e.Protocols {
		buf[off] = byte(len(p))
		off++
		copy(buf[off:], p)
		off += len(p)
	}
	return n, nil
}

// ApplicationSettings is the (non-standard, Chrome-shipped)
// application_settings / ALPS extension, same wire shape as ALPN.
type ApplicationSettings struct {
	Protocols []string
}

func (e *ApplicationSettings) ID() uint16 { return TypeApplicationSettings }

func (e *ApplicationSettings) ByteLength() int {
	total := 4 + 2
	for _, p := range e.Protocols {
		total += 1 + len(p)
	}
	return total
}

func (e *ApplicationSettings) WriteInto(buf []byte) (int, error) {
	n := e.ByteLength()
	if err := checkBuf(buf, n); err != nil {
		return 0, err
	}
	listLen := 0
	for _, p := range e.Protocols {
		listLen += 1 + len(p)
	}
	writeHeader(buf, TypeApplicationSettings, 2+listLen)
	putUint16(buf, 4, uint16(listLen))
	off := 6
	for _, p := range e.Protocols {
		buf[off] = byte(len(p))
		off++
		copy(buf[off:], p)
		off += len(p)
	}
	return n, nil
}
