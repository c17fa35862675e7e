package tlsext

import "testing"

func allExtensions() []Extension {
	return []Extension{
		&SNI{Host: "example.test"},
		&SNI{Host: ""},
		&SupportedGroups{Curves: []uint16{RandomGREASE(), GroupX25519, GroupP256}},
		&ECPointFormats{Formats: []byte{0}},
		&SignatureAlgorithms{Schemes: []uint16{0x0403, 0x0804}},
		&ALPN{Protocols: []string{"h2", "http/1.1"}},
		&ApplicationSettings{Protocols: []string{"h2"}},
		&SupportedVersions{Versions: []uint16{RandomGREASE(), 0x0304, 0x0303}},
		&KeyShare{Entries: []KeyShareEntry{
			{Group: RandomGREASE(), Data: []byte{0}},
			{Group: GroupX25519},
		}},
		&PSKKeyExchangeModes{Modes: []byte{1}},
		&SessionTicket{},
		&ExtendedMasterSecret{},
		&StatusRequest{},
		&SCT{},
		&RenegotiationInfo{},
		&ApplicationSettings{},
		&CompressCertificate{Algorithms: []uint16{2}},
		&PreSharedKey{},
		&GREASE{Value: 0x0a0a},
		&GREASEECH{Body: []byte{0, 1, 2}},
		&Padding{Len: 10, WillPad: true},
		&Padding{WillPad: false},
		&Opaque{Type: 0x9999, Body: []byte{1, 2, 3}},
	}
}

func TestExtensionLengthAgreement(t *testing.T) {
	for _, ext := range allExtensions() {
		n := ext.ByteLength()
		buf := make([]byte, n)
		written, err := ext.WriteInto(buf)
		if err != nil {
			t.Fatalf("%T: WriteInto error: %v", ext, err)
		}
		if written != n {
			t.Fatalf("%T: ByteLength()=%d but WriteInto wrote %d", ext, n, written)
		}
	}
}

func TestExtensionBufferTooShort(t *testing.T) {
	ext := &SNI{Host: "example.test"}
	buf := make([]byte, ext.ByteLength()-1)
	if _, err := ext.WriteInto(buf); err == nil {
		t.Fatal("expected buffer-too-short error")
	}
}

func TestSNIEmptyHostWritesNothing(t *testing.T) {
	ext := &SNI{Host: ""}
	if ext.ByteLength() != 0 {
		t.Fatalf("expected zero length, got %d", ext.ByteLength())
	}
	n, err := ext.WriteInto(nil)
	if err != nil || n != 0 {
		t.Fatalf("expected (0, nil), got (%d, %v)", n, err)
	}
}

func TestKeyShareGeneratesRealX25519Key(t *testing.T) {
	ext := &KeyShare{Entries: []KeyShareEntry{{Group: GroupX25519}}}
	buf := make([]byte, ext.ByteLength())
	if _, err := ext.WriteInto(buf); err != nil {
		t.Fatal(err)
	}
	// header(4) + client_shares_length(2) + group(2) + length(2) + data(32)
	if len(buf) != 4+2+2+2+32 {
		t.Fatalf("unexpected total length %d", len(buf))
	}
	dataLen := int(buf[4+2+2])<<8 | int(buf[4+2+3])
	if dataLen != 32 {
		t.Fatalf("expected 32-byte X25519 public key, got %d", dataLen)
	}
}

func TestKeyShareGreaseKeepsPlaceholder(t *testing.T) {
	ext := &KeyShare{Entries: []KeyShareEntry{{Group: 0x0a0a, Data: []byte{0x00}}}}
	buf := make([]byte, ext.ByteLength())
	if _, err := ext.WriteInto(buf); err != nil {
		t.Fatal(err)
	}
	if len(buf) != 4+2+2+2+1 {
		t.Fatalf("unexpected length %d", len(buf))
	}
	if buf[4+2+2+2] != 0x00 {
		t.Fatalf("GREASE entry data should be left verbatim")
	}
}

func TestBoringPaddingLenWorkedExample(t *testing.T) {
	// §8: pre-padding size 400 => final handshake message length 512.
	padLen, willPad := BoringPaddingLen(400)
	if !willPad {
		t.Fatal("expected padding to apply")
	}
	total := 400 + 4 + padLen
	if total != 512 {
		t.Fatalf("expected final length 512, got %d", total)
	}
}

func TestBoringPaddingLenOutOfRange(t *testing.T) {
	if _, willPad := BoringPaddingLen(0x100); willPad {
		t.Fatal("0x100 itself must not trigger padding")
	}
	if _, willPad := BoringPaddingLen(0x200); willPad {
		t.Fatal("0x200 itself must not trigger padding")
	}
	if _, willPad := BoringPaddingLen(50); willPad {
		t.Fatal("short hellos must not be padded")
	}
}

func TestIsGREASE(t *testing.T) {
	for _, v := range greaseValues {
		if !IsGREASE(v) {
			t.Fatalf("%#x should be recognized as GREASE", v)
		}
	}
	if IsGREASE(GroupX25519) {
		t.Fatal("X25519 must not be recognized as GREASE")
	}
}
