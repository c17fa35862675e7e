package profile

// Native-app profiles: engines embedded in mobile apps rather than a
// standalone browser chrome. Grounded on original_source/src/
// useragent.rs's okhttp_templates/zalando templates (SPEC_FULL's
// Supplemented Features section) — the Android entries carry a
// Chromium-engine TLS identity (most Android HTTP clients use the
// platform's embedded WebView/Chromium stack) and zalando_ios_mobile
// carries the Safari ClientHello spec. All of them use a fixed,
// OS-baked UA string with no {{.OS}} placeholder, so RequiresOS is
// false, and Family is the non-browser Mobile ("mobile") per the
// Profile model note in §3/§4.1.

var okhttpAndroidVersions = []string{"7", "8", "9", "10", "11", "12", "13"}

func okhttpProfile(androidVersion string) *Profile {
	p := chromeProfile("120")
	p.Name = "okhttp4_android_" + androidVersion
	p.Family = Mobile
	p.Version = androidVersion
	p.UATemplate = "Mozilla/5.0 (Linux; Android " + androidVersion +
		") AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	p.RequiresOS = false
	p.staticHeaders = map[string]string{
		"user-agent": p.UATemplate,
		"accept":     "*/*",
	}
	return p
}

func zalandoProfiles() []*Profile {
	ios := chromeProfile("120")
	ios.Name = "zalando_ios_mobile"
	ios.Family = Mobile
	ios.Version = "17.0"
	ios.UATemplate = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 " +
		"(KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	ios.RequiresOS = false
	ios.ClientHelloSpec = &ClientHelloSpec{
		TLSVersMin:         0x0301,
		TLSVersMax:         0x0304,
		CipherSuites:       safariCipherSuites,
		CompressionMethods: []byte{0},
		Extensions:         safariExtensions(),
	}
	ios.staticHeaders = map[string]string{"user-agent": ios.UATemplate, "accept": "*/*"}

	android := chromeProfile("120")
	android.Name = "zalando_android_mobile"
	android.Family = Mobile
	android.Version = "13"
	android.UATemplate = "Mozilla/5.0 (Linux; Android 13; SM-G991B) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	android.RequiresOS = false
	android.staticHeaders = map[string]string{"user-agent": android.UATemplate, "accept": "*/*"}

	return []*Profile{ios, android}
}

func mobileProfiles() []*Profile {
	profiles := make([]*Profile, 0, len(okhttpAndroidVersions)+2)
	for _, v := range okhttpAndroidVersions {
		profiles = append(profiles, okhttpProfile(v))
	}
	profiles = append(profiles, zalandoProfiles()...)
	return profiles
}
