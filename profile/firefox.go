package profile

import "golang.org/x/net/http2"

// Firefox HTTP/2 SETTINGS, priority-tree, pseudo-header order, and
// header set, ported verbatim from the teacher's ImpersonateFirefox
// (firefoxHttp2Settings, firefoxPriorityFrames, firefoxPseudoHeaderOrder,
// firefoxHeaderOrder, firefoxHeaders, firefoxHeaderPriority).
var (
	firefoxHTTP2Settings = []http2.Setting{
		{ID: http2.SettingHeaderTableSize, Val: 65536},
		{ID: http2.SettingEnablePush, Val: 0},
		{ID: http2.SettingInitialWindowSize, Val: 131072},
		{ID: http2.SettingMaxFrameSize, Val: 16384},
	}

	firefoxPriorityFrames = []PriorityFrame{
		{StreamID: 3, StreamDep: 0, Weight: 200},
		{StreamID: 5, StreamDep: 0, Weight: 100},
		{StreamID: 7, StreamDep: 0, Weight: 0},
		{StreamID: 9, StreamDep: 7, Weight: 0},
		{StreamID: 11, StreamDep: 3, Weight: 0},
		{StreamID: 13, StreamDep: 0, Weight: 240},
	}

	firefoxPseudoHeaderOrder = [4]string{":method", ":path", ":authority", ":scheme"}

	firefoxHeaderOrder = []string{
		"user-agent", "accept", "accept-language", "accept-encoding",
		"referer", "cookie", "upgrade-insecure-requests", "sec-fetch-dest",
		"sec-fetch-mode", "sec-fetch-site", "sec-fetch-user", "te",
	}

	firefoxHeaderPriority = http2.PriorityParam{StreamDep: 13, Exclusive: false, Weight: 41}
)

func firefoxHeaders(ua string) map[string]string {
	return map[string]string{
		"user-agent":                ua,
		"accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"accept-language":           "en-US,en;q=0.5",
		"upgrade-insecure-requests": "1",
		"sec-fetch-dest":            "document",
		"sec-fetch-mode":            "navigate",
		"sec-fetch-site":            "same-origin",
		"sec-fetch-user":            "?1",
	}
}

func firefoxProfile(version string) *Profile {
	return &Profile{
		Name:   "firefox" + version,
		Family: Firefox,
		Version: version,
		ClientHelloSpec: &ClientHelloSpec{
			TLSVersMin:         0x0301,
			TLSVersMax:         0x0304,
			CipherSuites:       firefoxCipherSuites,
			CompressionMethods: []byte{0},
			Extensions:         firefoxExtensions(),
		},
		HTTP2Settings:          firefoxHTTP2Settings,
		HTTP2PseudoHeaderOrder: firefoxPseudoHeaderOrder,
		HTTP2ConnectionFlow:    12517377,
		HTTP2Priorities:        firefoxPriorityFrames,
		HTTP2HeaderPriority:    &firefoxHeaderPriority,
		HeaderOrder:            firefoxHeaderOrder,
		UATemplate:             "Mozilla/5.0 ({{.OS}}; rv:" + version + ".0) Gecko/20100101 Firefox/" + version + ".0",
		RequiresOS:             true,
		SupportsHTTP3:          false,
		MultipartBoundary:      firefoxBoundary,
		VersionEntry: VersionEntry{
			TLS13: true, HTTP2: true, Brotli: true,
		},
	}
}

func firefoxProfiles() []*Profile {
	versions := []string{"115", "118", "120"}
	profiles := make([]*Profile, 0, len(versions))
	for _, v := range versions {
		p := firefoxProfile(v)
		ua := renderUA(p.UATemplate, "Windows NT 10.0; Win64; x64")
		p.staticHeaders = firefoxHeaders(ua)
		profiles = append(profiles, p)
	}
	return profiles
}
