package profile

import (
	"regexp"
	"strconv"
	"strings"
)

// RenderUA substitutes the {{.OS}} placeholder in a profile's
// UATemplate with the caller-selected OS string (§3 "ua_template: a
// User-Agent pattern with an OS placeholder"). Profiles with
// RequiresOS == false ignore os entirely.
func RenderUA(template, os string) string {
	return strings.ReplaceAll(template, "{{.OS}}", os)
}

// renderUA is the package-internal builtin-catalog spelling of RenderUA.
func renderUA(template, os string) string { return RenderUA(template, os) }

var (
	firefoxUARe = regexp.MustCompile(`Firefox/(\d+)`)
	edgUARe     = regexp.MustCompile(`Edg(?:e)?/(\d+)`)
	operaUARe   = regexp.MustCompile(`(?:OPR|Opera)/(\d+)`)
	chromeUARe  = regexp.MustCompile(`Chrome/(\d+)`)
	safariVerRe = regexp.MustCompile(`Version/(\d+(?:\.\d+)?)`)
	safariTagRe = regexp.MustCompile(`Safari/`)
)

// DetectFromUserAgent applies §4.1's ordered detection rules and
// returns the family and version string it finds, or ("", "") if none
// of the rules match.
func DetectFromUserAgent(ua string) (family Family, version string) {
	if m := firefoxUARe.FindStringSubmatch(ua); m != nil {
		return Firefox, m[1]
	}
	if m := edgUARe.FindStringSubmatch(ua); m != nil {
		return Edge, m[1]
	}
	if m := operaUARe.FindStringSubmatch(ua); m != nil {
		return Opera, m[1]
	}
	if m := chromeUARe.FindStringSubmatch(ua); m != nil {
		return Chrome, m[1]
	}
	if safariTagRe.MatchString(ua) {
		if m := safariVerRe.FindStringSubmatch(ua); m != nil {
			return Safari, m[1]
		}
	}
	return "", ""
}

// majorVersion parses the leading integer run of a version string,
// used by by_family_version's "greatest registered version ≤
// requested" comparison (§4.1). Non-numeric versions compare as 0.
func majorVersion(v string) int {
	end := 0
	for end < len(v) && v[end] >= '0' && v[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, _ := strconv.Atoi(v[:end])
	return n
}
