package profile

import "golang.org/x/net/http2"

// Safari HTTP/2 SETTINGS, pseudo-header order, and header set, ported
// from the teacher's ImpersonateSafari (safariHttp2Settings,
// safariPseudoHeaderOrder, safariHeaderOrder, safariHeaders,
// safariHeaderPriority).
var (
	safariHTTP2Settings = []http2.Setting{
		{ID: http2.SettingInitialWindowSize, Val: 4194304},
		{ID: http2.SettingMaxConcurrentStreams, Val: 100},
	}

	safariPseudoHeaderOrder = [4]string{":method", ":scheme", ":path", ":authority"}

	safariHeaderOrder = []string{
		"accept", "sec-fetch-site", "cookie", "sec-fetch-dest",
		"accept-language", "sec-fetch-mode", "user-agent", "referer", "accept-encoding",
	}

	safariHeaderPriority = http2.PriorityParam{StreamDep: 0, Exclusive: false, Weight: 254}
)

func safariHeaders(ua string) map[string]string {
	return map[string]string{
		"accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"sec-fetch-site":  "same-origin",
		"sec-fetch-dest":  "document",
		"accept-language": "en-US,en;q=0.9",
		"sec-fetch-mode":  "navigate",
		"user-agent":      ua,
	}
}

func safariProfile(version string) *Profile {
	return &Profile{
		Name:   "safari" + version,
		Family: Safari,
		Version: version,
		ClientHelloSpec: &ClientHelloSpec{
			TLSVersMin:         0x0301,
			TLSVersMax:         0x0304,
			CipherSuites:       safariCipherSuites,
			CompressionMethods: []byte{0},
			Extensions:         safariExtensions(),
		},
		HTTP2Settings:          safariHTTP2Settings,
		HTTP2PseudoHeaderOrder: safariPseudoHeaderOrder,
		HTTP2ConnectionFlow:    10485760,
		HTTP2HeaderPriority:    &safariHeaderPriority,
		HeaderOrder:            safariHeaderOrder,
		UATemplate:             "Mozilla/5.0 ({{.OS}}) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/" + version + " Safari/605.1.15",
		RequiresOS:             true,
		SupportsHTTP3:          false,
		MultipartBoundary:      webkitBoundary,
		VersionEntry: VersionEntry{
			TLS13: true, HTTP2: true,
		},
	}
}

func safariProfiles() []*Profile {
	versions := []string{"15.6", "16.6", "17.0"}
	profiles := make([]*Profile, 0, len(versions))
	for _, v := range versions {
		p := safariProfile(v)
		ua := renderUA(p.UATemplate, "Macintosh; Intel Mac OS X 10_15_7")
		p.staticHeaders = safariHeaders(ua)
		profiles = append(profiles, p)
	}
	return profiles
}
