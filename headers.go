package impersonate

import (
	"strings"

	"github.com/brightwire/impersonate/profile"
)

// GenerateHeaders builds the ordered Header the wire drivers send: the
// profile's static header set (User-Agent, Accept, Sec-Fetch-*, and
// friends) laid out in the profile's declared HeaderOrder, with any
// value the caller already set in override taking precedence over the
// profile's default, followed by whatever other headers the caller set
// that the profile knows nothing about, in the caller's own relative
// order. This is the §2 "generate UA + standard headers" step — the
// wire drivers (h1/h2/h3) never reorder what they're handed, so this is
// the one place header order is actually decided.
func GenerateHeaders(p *profile.Profile, override *Header) *Header {
	static := p.StaticHeaders()
	used := map[string]bool{}

	out := &Header{}
	for _, name := range p.HeaderOrder {
		key := strings.ToLower(name)
		if v, ok := overrideGet(override, name); ok {
			out.Add(name, v)
			used[key] = true
			continue
		}
		if v, ok := static[key]; ok {
			out.Add(name, v)
			used[key] = true
		}
	}

	if override != nil {
		for _, pair := range override.Items() {
			if used[strings.ToLower(pair.Name)] {
				continue
			}
			out.Add(pair.Name, pair.Value)
		}
	}
	return out
}

func overrideGet(h *Header, name string) (string, bool) {
	if h == nil {
		return "", false
	}
	return h.Get(name)
}
