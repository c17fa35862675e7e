package tlsext

// SNI carries the target hostname. It is fingerprint-invariant: its
// value is supplied per request, never embedded in a stored profile
// spec (§3). An empty Host serializes to zero bytes (nothing is
// written at all, not even a header), matching how the synthesizer
// treats a profile-declared SNI whose host is filled in later.
type SNI struct {
	Host string
}

func (s *SNI) ID() uint16 { return TypeServerName }

func (s *SNI) ByteLength() int {
	if s.Host == "" {
		return 0
	}
	// header(4) + server_name_list_length(2) + name_type(1) + host_name_length(2) + host
	return 4 + 2 + 1 + 2 + len(s.Host)
}

func (s *SNI) WriteInto(buf []byte) (int, error) {
	if s.Host == "" {
		return 0, nil
	}
	n := s.ByteLength()
	if err := checkBuf(buf, n); err != nil {
		return 0, err
	}
	hostLen := len(s.Host)
	bodyLen := 5 + hostLen
	writeHeader(buf, TypeServerName, bodyLen)
	putUint16(buf, 4, uint16(3+hostLen))
	buf[6] = 0 // name_type: host_name
	putUint16(buf, 7, uint16(hostLen))
	copy(buf[9:], s.Host)
	return n, nil
}
