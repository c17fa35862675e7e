package impersonate

import "fmt"

// Kind identifies the category of an error returned by the client, per
// the error taxonomy in the design: errors are classified by kind, not
// by concrete Go type, so callers can switch on an Error's Kind field
// without depending on package-private error structs.
type Kind int

const (
	KindURL Kind = iota
	KindDNS
	KindConnect
	KindTLS
	KindH1Protocol
	KindH2Protocol
	KindH3Protocol
	KindStreamReset
	KindRedirect
	KindPool
	KindTimeout
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindURL:
		return "url"
	case KindDNS:
		return "dns"
	case KindConnect:
		return "connect"
	case KindTLS:
		return "tls"
	case KindH1Protocol:
		return "h1_protocol"
	case KindH2Protocol:
		return "h2_protocol"
	case KindH3Protocol:
		return "h3_protocol"
	case KindStreamReset:
		return "stream_reset"
	case KindRedirect:
		return "redirect"
	case KindPool:
		return "pool"
	case KindTimeout:
		return "timeout"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is the single error type surfaced across the client's public
// API. Reason holds a short machine-matchable tag such as
// "RedirectLoop", "TooManyRedirects", "AcquireTimeout", or a wire error
// code for StreamReset; it is empty when Kind alone is sufficient.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Reason != "" && e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// StreamResetError carries the wire error code of an RST_STREAM /
// STOP_SENDING, distinct from connection-level errors: the connection
// the stream lived on remains usable.
type StreamResetError struct {
	Code uint32
}

func (e *StreamResetError) Error() string {
	return fmt.Sprintf("stream reset: code=%d", e.Code)
}
