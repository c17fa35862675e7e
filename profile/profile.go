// Package profile defines the versioned browser fingerprint catalog:
// the TLS ClientHello spec, HTTP/2 settings, and header/UA templates
// that together make up one browser version's wire identity (§3, §4.1).
package profile

import (
	"golang.org/x/net/http2"

	"github.com/brightwire/impersonate/tlsext"
)

// Family identifies the browser or application a Profile impersonates.
type Family string

const (
	Chrome  Family = "chrome"
	Firefox Family = "firefox"
	Safari  Family = "safari"
	Edge    Family = "edge"
	Opera   Family = "opera"
	Mobile  Family = "mobile" // native apps (okhttp, CFNetwork, etc.)
)

// ClientHelloSpec is the declarative TLS ClientHello template a Profile
// carries: ordered extensions plus the fields outside the extension
// block (§3, §4.3). It contains no hostname; SNI is supplied per
// request.
type ClientHelloSpec struct {
	TLSVersMin       uint16
	TLSVersMax       uint16
	CipherSuites     []uint16
	CompressionMethods []byte
	Extensions       []tlsext.Extension
}

// PriorityFrame is one HTTP/2 PRIORITY frame a profile sends
// immediately after its initial SETTINGS (§4.5), e.g. Firefox's fixed
// stream-dependency tree.
type PriorityFrame struct {
	StreamID   uint32
	StreamDep  uint32
	Exclusive  bool
	Weight     uint8
}

// Profile is the complete fingerprint identity of one browser version
// (§3). It is immutable after construction and safe to share across
// concurrent requests.
type Profile struct {
	Name    string
	Family  Family
	Version string

	ClientHelloSpec *ClientHelloSpec

	HTTP2Settings           []http2.Setting
	HTTP2PseudoHeaderOrder  [4]string
	HTTP2ConnectionFlow     uint32
	HTTP2Priorities         []PriorityFrame
	HTTP2HeaderPriority     *http2.PriorityParam

	// HeaderOrder is the order the Header/UA Generator emits this
	// browser's regular (non-pseudo) headers in, before any
	// caller-supplied overrides or additions (§3 "ua_template ... and
	// matching header templates"). The wire drivers never reorder
	// headers themselves (§4.4/§4.5); this is what decides the order
	// they are handed in the first place.
	HeaderOrder []string

	UATemplate string
	RequiresOS bool
	SupportsHTTP3 bool

	// QPACKMaxTableCapacity is the dynamic table size this profile
	// advertises on its HTTP/3 control stream (§4.6 "QPACK dynamic
	// table: driven by the profile's declared capacity"). Zero means
	// "no declared preference" — the h3 driver falls back to a
	// conservative default.
	QPACKMaxTableCapacity uint64

	// MultipartBoundary, when set, generates the multipart/form-data
	// boundary string the way this browser's JS/native form encoder
	// does (§9), rather than Go's default boundary generator.
	MultipartBoundary func() string

	// VersionEntry carries the richer per-version metadata the
	// registry exposes through WithFeature and MigrationMap.
	VersionEntry VersionEntry

	// staticHeaders are the profile's fixed common headers (§4
	// chromeHeaders/firefoxHeaders/safariHeaders equivalents), merged
	// with caller-supplied headers by the client at request time.
	staticHeaders map[string]string
}

// StaticHeaders returns the profile's fixed common header set. Callers
// must not mutate the returned map.
func (p *Profile) StaticHeaders() map[string]string {
	return p.staticHeaders
}

// VersionEntry supplements a Profile with release metadata and
// capability flags used by family/feature lookups in the registry.
type VersionEntry struct {
	ReleaseDate    string // YYYY-MM-DD, "" if unknown
	TLS13          bool
	ECH            bool
	HTTP2          bool
	HTTP3          bool
	PSK            bool
	EarlyData      bool
	PostQuantum    bool
	Brotli         bool
	FallbackVersion string // version to use if this one is retired
}

// FingerprintKey returns a stable identifier for this Profile's wire
// fingerprint, for use as a connection-pool dedupe key (§4.7: "a
// connection is identified by (host, port, protocol,
// profile_fingerprint_hash)... two requests with different profiles
// never share a connection even to the same host, because the
// fingerprint would diverge on reconnect"). Profiles are constructed
// once by the registry and never mutated (§3), so the registered name
// already uniquely identifies one immutable ClientHelloSpec/HTTP2
// settings/header-order tuple — no separate content hash is needed.
func (p *Profile) FingerprintKey() string {
	return p.Name
}

// HasValidPseudoHeaderOrder reports whether order is exactly a permutation
// of the four standard pseudo-headers, per the §3 invariant.
func HasValidPseudoHeaderOrder(order [4]string) bool {
	want := map[string]bool{":method": true, ":authority": true, ":scheme": true, ":path": true}
	seen := map[string]bool{}
	for _, h := range order {
		if !want[h] || seen[h] {
			return false
		}
		seen[h] = true
	}
	return len(seen) == 4
}
