// Package h3 implements the HTTP/3 Driver (§4.6): QUIC transport,
// unidirectional control/QPACK streams, and per-request bidirectional
// streams carrying HEADERS/DATA frames.
package h3

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/quicvarint"
)

// errCodeFrameUnexpected is the application error code used to close
// a connection that sends a reserved or out-of-place frame type,
// matching the codepoint HTTP/3 (RFC 9114 §8.1) reserves for this.
const errCodeFrameUnexpected quic.ApplicationErrorCode = 0x105

// frameType is the varint frame type prefix of an HTTP/3 frame
// (RFC 9114 §7.2).
type frameType uint64

type unknownFrameHandlerFunc func(frameType, error) (processed bool, err error)

type frame any

var errHijacked = errors.New("h3: hijacked")

// frameParser reads the DATA/HEADERS/SETTINGS/GOAWAY frames this
// driver understands off a stream, skipping other frame types except
// the HTTP/2-only reserved types 0x2/0x6/0x8/0x9, which close the
// connection with errCodeFrameUnexpected and return an error. Grounded
// on the teacher's `internal/http3/frames.go`, adapted from the
// teacher's h3-as-a-secondary-transport role (an optional extra inside
// a general HTTP client) to being this module's sole fingerprint-aware
// HTTP/3 path: package renamed from `http3` to `h3`, the
// `ErrCodeFrameUnexpected`/`countingByteReader` helpers the original
// file referenced from sibling files (not present in the retrieval
// pack's copy) are defined locally below instead of assumed to exist
// elsewhere.
type frameParser struct {
	r                   io.Reader
	closeConn           func(quic.ApplicationErrorCode, string) error
	unknownFrameHandler unknownFrameHandlerFunc
}

func (p *frameParser) ParseNext() (frame, error) {
	qr := quicvarint.NewReader(p.r)
	for {
		t, err := quicvarint.Read(qr)
		if err != nil {
			if p.unknownFrameHandler != nil {
				hijacked, err := p.unknownFrameHandler(0, err)
				if err != nil {
					return nil, err
				}
				if hijacked {
					return nil, errHijacked
				}
			}
			return nil, err
		}
		if t > 0xd && p.unknownFrameHandler != nil {
			hijacked, err := p.unknownFrameHandler(frameType(t), nil)
			if err != nil {
				return nil, err
			}
			if hijacked {
				return nil, errHijacked
			}
		}
		l, err := quicvarint.Read(qr)
		if err != nil {
			return nil, err
		}

		switch t {
		case 0x0:
			return &dataFrame{Length: l}, nil
		case 0x1:
			return &headersFrame{Length: l}, nil
		case 0x4:
			return parseSettingsFrame(p.r, l)
		case 0x3: // CANCEL_PUSH
		case 0x5: // PUSH_PROMISE
		case 0x7:
			return parseGoAwayFrame(qr, l)
		case 0xd: // MAX_PUSH_ID
		case 0x2, 0x6, 0x8, 0x9:
			if p.closeConn != nil {
				p.closeConn(errCodeFrameUnexpected, "")
			}
			return nil, fmt.Errorf("h3: reserved frame type: %d", t)
		}
		if _, err := io.CopyN(io.Discard, qr, int64(l)); err != nil {
			return nil, err
		}
	}
}

type dataFrame struct {
	Length uint64
}

func (f *dataFrame) Append(b []byte) []byte {
	b = quicvarint.Append(b, 0x0)
	return quicvarint.Append(b, f.Length)
}

type headersFrame struct {
	Length uint64
}

func (f *headersFrame) Append(b []byte) []byte {
	b = quicvarint.Append(b, 0x1)
	return quicvarint.Append(b, f.Length)
}

const (
	settingExtendedConnect = 0x8
	settingDatagram        = 0x33
	// settingQPACKMaxTableCapacity and settingQPACKBlockedStreams are
	// the two QPACK-specific SETTINGS this driver actually varies per
	// profile (§4.6 "QPACK dynamic table: driven by the profile's
	// declared capacity").
	settingQPACKMaxTableCapacity = 0x1
	settingQPACKBlockedStreams   = 0x7
)

// settingsFrame is the control-stream SETTINGS frame, extended from
// the teacher's Datagram/ExtendedConnect-only fields with the QPACK
// table settings this driver negotiates (the teacher's copy never
// sends SETTINGS itself — it only parses an incoming one — since req
// treats HTTP/3 as a secondary, less fingerprint-critical transport;
// this module's §4.6 scope requires emitting a profile-shaped SETTINGS
// frame on the control stream, so Append now also covers the QPACK
// fields).
type settingsFrame struct {
	Datagram        bool
	ExtendedConnect bool
	QPACKMaxTableCapacity uint64
	QPACKBlockedStreams   uint64

	Other map[uint64]uint64
}

func parseSettingsFrame(r io.Reader, l uint64) (*settingsFrame, error) {
	if l > 8*(1<<10) {
		return nil, fmt.Errorf("h3: unexpected size for SETTINGS frame: %d", l)
	}
	buf := make([]byte, l)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}
	frame := &settingsFrame{}
	b := bytes.NewReader(buf)
	seen := make(map[uint64]bool)
	for b.Len() > 0 {
		id, err := quicvarint.Read(b)
		if err != nil {
			return nil, err
		}
		val, err := quicvarint.Read(b)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			return nil, fmt.Errorf("h3: duplicate setting: %d", id)
		}
		seen[id] = true

		switch id {
		case settingExtendedConnect:
			if val != 0 && val != 1 {
				return nil, fmt.Errorf("h3: invalid value for SETTINGS_ENABLE_CONNECT_PROTOCOL: %d", val)
			}
			frame.ExtendedConnect = val == 1
		case settingDatagram:
			if val != 0 && val != 1 {
				return nil, fmt.Errorf("h3: invalid value for SETTINGS_H3_DATAGRAM: %d", val)
			}
			frame.Datagram = val == 1
		case settingQPACKMaxTableCapacity:
			frame.QPACKMaxTableCapacity = val
		case settingQPACKBlockedStreams:
			frame.QPACKBlockedStreams = val
		default:
			if frame.Other == nil {
				frame.Other = make(map[uint64]uint64)
			}
			frame.Other[id] = val
		}
	}
	return frame, nil
}

func (f *settingsFrame) Append(b []byte) []byte {
	b = quicvarint.Append(b, 0x4)
	var l int
	if f.QPACKMaxTableCapacity > 0 {
		l += quicvarint.Len(settingQPACKMaxTableCapacity) + quicvarint.Len(f.QPACKMaxTableCapacity)
	}
	if f.QPACKBlockedStreams > 0 {
		l += quicvarint.Len(settingQPACKBlockedStreams) + quicvarint.Len(f.QPACKBlockedStreams)
	}
	if f.Datagram {
		l += quicvarint.Len(settingDatagram) + quicvarint.Len(1)
	}
	if f.ExtendedConnect {
		l += quicvarint.Len(settingExtendedConnect) + quicvarint.Len(1)
	}
	for id, val := range f.Other {
		l += quicvarint.Len(id) + quicvarint.Len(val)
	}
	b = quicvarint.Append(b, uint64(l))
	if f.QPACKMaxTableCapacity > 0 {
		b = quicvarint.Append(b, settingQPACKMaxTableCapacity)
		b = quicvarint.Append(b, f.QPACKMaxTableCapacity)
	}
	if f.QPACKBlockedStreams > 0 {
		b = quicvarint.Append(b, settingQPACKBlockedStreams)
		b = quicvarint.Append(b, f.QPACKBlockedStreams)
	}
	if f.Datagram {
		b = quicvarint.Append(b, settingDatagram)
		b = quicvarint.Append(b, 1)
	}
	if f.ExtendedConnect {
		b = quicvarint.Append(b, settingExtendedConnect)
		b = quicvarint.Append(b, 1)
	}
	for id, val := range f.Other {
		b = quicvarint.Append(b, id)
		b = quicvarint.Append(b, val)
	}
	return b
}

type goAwayFrame struct {
	StreamID quic.StreamID
}

// countingByteReader wraps an io.ByteReader to track bytes consumed,
// so parseGoAwayFrame can validate the declared frame length against
// what it actually read.
type countingByteReader struct {
	io.ByteReader
	Read int
}

func (r *countingByteReader) ReadByte() (byte, error) {
	b, err := r.ByteReader.ReadByte()
	if err == nil {
		r.Read++
	}
	return b, err
}

func parseGoAwayFrame(r io.ByteReader, l uint64) (*goAwayFrame, error) {
	frame := &goAwayFrame{}
	cbr := countingByteReader{ByteReader: r}
	id, err := quicvarint.Read(&cbr)
	if err != nil {
		return nil, err
	}
	if cbr.Read != int(l) {
		return nil, errors.New("h3: GOAWAY frame: inconsistent length")
	}
	frame.StreamID = quic.StreamID(id)
	return frame, nil
}

func (f *goAwayFrame) Append(b []byte) []byte {
	b = quicvarint.Append(b, 0x7)
	b = quicvarint.Append(b, uint64(quicvarint.Len(uint64(f.StreamID))))
	return quicvarint.Append(b, uint64(f.StreamID))
}
