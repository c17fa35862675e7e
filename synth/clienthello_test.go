package synth

import (
	"testing"

	"github.com/brightwire/impersonate/profile"
	"github.com/brightwire/impersonate/tlsext"
)

func testSpec() *profile.ClientHelloSpec {
	return &profile.ClientHelloSpec{
		TLSVersMin:   0x0303,
		TLSVersMax:   0x0304,
		CipherSuites: []uint16{0xc02f, 0xc030, 0x1301},
		Extensions: []tlsext.Extension{
			&tlsext.SNI{},
			&tlsext.SupportedGroups{Curves: []uint16{tlsext.GroupX25519, tlsext.GroupP256}},
			&tlsext.KeyShare{Entries: []tlsext.KeyShareEntry{{Group: tlsext.GroupX25519}}},
			&tlsext.SupportedVersions{Versions: []uint16{0x0304, 0x0303}},
			&tlsext.PSKKeyExchangeModes{Modes: []byte{1}},
			&tlsext.GREASEECH{Body: make([]byte, 32)},
			&tlsext.Padding{},
		},
	}
}

func TestBuildBasic(t *testing.T) {
	hello, err := Build(testSpec(), "example.com")
	if err != nil {
		t.Fatal(err)
	}
	if hello.ClientVersion != 0x0304 {
		t.Fatalf("expected client_version 0x0304, got %#x", hello.ClientVersion)
	}
	if len(hello.CompressionMethods) != 1 || hello.CompressionMethods[0] != 0 {
		t.Fatalf("expected default compression [0], got %v", hello.CompressionMethods)
	}
	bytes := hello.Bytes()
	if len(bytes) < 41 {
		t.Fatalf("ClientHello suspiciously short: %d bytes", len(bytes))
	}
}

func TestBuildDropsECHAndCouplesPSK(t *testing.T) {
	hello, err := Build(testSpec(), "example.com")
	if err != nil {
		t.Fatal(err)
	}
	if containsExtensionID(hello.Extensions, 0xfe0d) {
		t.Fatal("ECH extension (0xfe0d) must be dropped")
	}
	// The spec has no PreSharedKey extension, so PSKKeyExchangeModes
	// (45) must be omitted even though it was declared.
	if containsExtensionID(hello.Extensions, 45) {
		t.Fatal("PSKKeyExchangeModes must be dropped without a PreSharedKey extension")
	}
}

func TestBuildInjectsSNIWhenAbsent(t *testing.T) {
	spec := &profile.ClientHelloSpec{
		TLSVersMax:   0x0303,
		CipherSuites: []uint16{0xc02f},
		Extensions:   []tlsext.Extension{&tlsext.SupportedGroups{Curves: []uint16{tlsext.GroupX25519}}},
	}
	hello, err := Build(spec, "example.com")
	if err != nil {
		t.Fatal(err)
	}
	if !containsExtensionID(hello.Extensions, 0) {
		t.Fatal("expected a synthesized SNI extension to be appended")
	}
}

func TestBuildDedupesSNI(t *testing.T) {
	spec := &profile.ClientHelloSpec{
		TLSVersMax:   0x0303,
		CipherSuites: []uint16{0xc02f},
		Extensions: []tlsext.Extension{
			&tlsext.SNI{Host: "placeholder"},
			&tlsext.SNI{Host: "placeholder2"},
		},
	}
	hello, err := Build(spec, "example.com")
	if err != nil {
		t.Fatal(err)
	}
	if count := countExtensionID(hello.Extensions, 0); count != 1 {
		t.Fatalf("expected exactly one SNI extension, got %d", count)
	}
}

func TestBuildNoSNIWhenHostnameEmpty(t *testing.T) {
	spec := &profile.ClientHelloSpec{
		TLSVersMax:   0x0303,
		CipherSuites: []uint16{0xc02f},
		Extensions:   []tlsext.Extension{&tlsext.SNI{}},
	}
	hello, err := Build(spec, "")
	if err != nil {
		t.Fatal(err)
	}
	if containsExtensionID(hello.Extensions, 0) {
		t.Fatal("empty server name must not produce an SNI extension")
	}
}

// containsExtensionID and countExtensionID walk a serialized
// extension block looking for a given 2-byte type.
func walkExtensions(b []byte, fn func(id uint16, body []byte)) {
	off := 0
	for off+4 <= len(b) {
		id := uint16(b[off])<<8 | uint16(b[off+1])
		length := int(b[off+2])<<8 | int(b[off+3])
		if off+4+length > len(b) {
			return
		}
		fn(id, b[off+4:off+4+length])
		off += 4 + length
	}
}

func containsExtensionID(b []byte, want uint16) bool {
	found := false
	walkExtensions(b, func(id uint16, _ []byte) {
		if id == want {
			found = true
		}
	})
	return found
}

func countExtensionID(b []byte, want uint16) int {
	n := 0
	walkExtensions(b, func(id uint16, _ []byte) {
		if id == want {
			n++
		}
	})
	return n
}
