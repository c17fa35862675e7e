package profile

// Edge is a Chromium-engine browser: TLS/HTTP2 identity matches the
// Chrome entry of the same engine version, only the trailing UA token
// and sec-ch-ua differ. Grounded on the "Edg/<n>" UA pattern recorded
// by both `pv-udpv-go-gost-x/internal/util/fingerprint/profiles.go`
// and `other_examples/cf24d997_..._profiles.go.go` (the teacher itself
// has no Edge preset, so this reuses the teacher's Chromium template
// rather than inventing a new TLS identity).

func edgeProfile(chromiumVersion, edgeVersion string) *Profile {
	p := chromeProfile(chromiumVersion)
	p.Name = "edge" + edgeVersion
	p.Family = Edge
	p.Version = edgeVersion
	p.UATemplate = "Mozilla/5.0 ({{.OS}}) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/" +
		chromiumVersion + ".0.0.0 Safari/537.36 Edg/" + edgeVersion + ".0.0.0"
	return p
}

func edgeProfiles() []*Profile {
	pairs := [][2]string{{"118", "118"}, {"120", "120"}}
	profiles := make([]*Profile, 0, len(pairs))
	for _, pair := range pairs {
		p := edgeProfile(pair[0], pair[1])
		secChUA := `"Not_A Brand";v="8", "Chromium";v="` + pair[0] + `", "Microsoft Edge";v="` + pair[1] + `"`
		ua := renderUA(p.UATemplate, "Windows NT 10.0; Win64; x64")
		p.staticHeaders = chromeHeaders(secChUA, `"Windows"`, ua)
		profiles = append(profiles, p)
	}
	return profiles
}
