package profile

// Opera is also a Chromium-engine browser; same grounding rationale as
// edge.go. UA token is "OPR/<n>" per §4.1 detection rule 3.

func operaProfile(chromiumVersion, operaVersion string) *Profile {
	p := chromeProfile(chromiumVersion)
	p.Name = "opera" + operaVersion
	p.Family = Opera
	p.Version = operaVersion
	p.UATemplate = "Mozilla/5.0 ({{.OS}}) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/" +
		chromiumVersion + ".0.0.0 Safari/537.36 OPR/" + operaVersion + ".0.0.0"
	return p
}

func operaProfiles() []*Profile {
	pairs := [][2]string{{"118", "104"}, {"120", "106"}}
	profiles := make([]*Profile, 0, len(pairs))
	for _, pair := range pairs {
		p := operaProfile(pair[0], pair[1])
		secChUA := `"Not_A Brand";v="8", "Chromium";v="` + pair[0] + `", "Opera";v="` + pair[1] + `"`
		ua := renderUA(p.UATemplate, "Windows NT 10.0; Win64; x64")
		p.staticHeaders = chromeHeaders(secChUA, `"Windows"`, ua)
		profiles = append(profiles, p)
	}
	return profiles
}
