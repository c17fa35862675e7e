package h3

import (
	"bytes"
	"testing"

	"github.com/quic-go/quic-go"
)

func TestSettingsFrameRoundTrip(t *testing.T) {
	in := &settingsFrame{
		QPACKMaxTableCapacity: 4096,
		QPACKBlockedStreams:   16,
		Datagram:              true,
	}
	encoded := in.Append(nil)

	parser := &frameParser{r: bytes.NewReader(encoded)}
	f, err := parser.ParseNext()
	if err != nil {
		t.Fatal(err)
	}
	out, ok := f.(*settingsFrame)
	if !ok {
		t.Fatalf("expected *settingsFrame, got %T", f)
	}
	if out.QPACKMaxTableCapacity != 4096 || out.QPACKBlockedStreams != 16 || !out.Datagram {
		t.Fatalf("round-trip mismatch: %+v", out)
	}
}

func TestDataAndHeadersFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	buf.Write((&headersFrame{Length: 3}).Append(nil))
	buf.WriteString("abc")
	buf.Write((&dataFrame{Length: 2}).Append(nil))
	buf.WriteString("xy")

	parser := &frameParser{r: &buf}

	f1, err := parser.ParseNext()
	if err != nil {
		t.Fatal(err)
	}
	hf, ok := f1.(*headersFrame)
	if !ok || hf.Length != 3 {
		t.Fatalf("expected headersFrame len 3, got %+v", f1)
	}
	skip := make([]byte, 3)
	buf.Read(skip)

	f2, err := parser.ParseNext()
	if err != nil {
		t.Fatal(err)
	}
	df, ok := f2.(*dataFrame)
	if !ok || df.Length != 2 {
		t.Fatalf("expected dataFrame len 2, got %+v", f2)
	}
}

func TestGoAwayFrameRoundTrip(t *testing.T) {
	in := &goAwayFrame{StreamID: quic.StreamID(12)}
	encoded := in.Append(nil)

	parser := &frameParser{r: bytes.NewReader(encoded)}
	f, err := parser.ParseNext()
	if err != nil {
		t.Fatal(err)
	}
	out, ok := f.(*goAwayFrame)
	if !ok || out.StreamID != 12 {
		t.Fatalf("round-trip mismatch: %+v", f)
	}
}

func TestReservedFrameTypeClosesConnection(t *testing.T) {
	closed := false
	parser := &frameParser{
		r: bytes.NewReader([]byte{0x2, 0x0}), // reserved type 0x2, length 0
		closeConn: func(code quic.ApplicationErrorCode, reason string) error {
			closed = true
			if code != errCodeFrameUnexpected {
				t.Fatalf("expected errCodeFrameUnexpected, got %v", code)
			}
			return nil
		},
	}
	if _, err := parser.ParseNext(); err == nil {
		t.Fatal("expected an error for a reserved frame type")
	}
	if !closed {
		t.Fatal("expected closeConn to be invoked for a reserved frame type")
	}
}
