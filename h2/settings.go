package h2

import "golang.org/x/net/http2"

// defaultMaxConcurrentStreams is the fallback concurrency limit when
// the peer's SETTINGS frame omits SETTINGS_MAX_CONCURRENT_STREAMS
// (§4.5 "up to peer SETTINGS_MAX_CONCURRENT_STREAMS (or 100 if
// absent)").
const defaultMaxConcurrentStreams = 100

// peerSettings tracks the subset of the server's SETTINGS values this
// driver needs to behave correctly; everything else is accepted and
// ignored.
type peerSettings struct {
	maxConcurrentStreams uint32
	initialWindowSize    uint32
}

func newPeerSettings() *peerSettings {
	return &peerSettings{
		maxConcurrentStreams: defaultMaxConcurrentStreams,
		initialWindowSize:    65535,
	}
}

func (s *peerSettings) apply(f *http2.SettingsFrame) {
	if v, ok := f.Value(http2.SettingMaxConcurrentStreams); ok {
		s.maxConcurrentStreams = v
	}
	if v, ok := f.Value(http2.SettingInitialWindowSize); ok {
		s.initialWindowSize = v
	}
}
