package profile

import (
	"math/rand"
	"testing"
)

func TestByNameExact(t *testing.T) {
	p, err := Default.ByName("chrome120")
	if err != nil {
		t.Fatal(err)
	}
	if p.Family != Chrome || p.Version != "120" {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestByNameNotFound(t *testing.T) {
	if _, err := Default.ByName("nonexistent-browser-9999"); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestByFamilyVersionExactAndFallback(t *testing.T) {
	// Exact match.
	p, err := Default.ByFamilyVersion(Chrome, "120")
	if err != nil || p.Version != "120" {
		t.Fatalf("expected exact match on 120, got %+v, %v", p, err)
	}

	// No exact match for 119 (registry has 116, 118, 120): nearest ≤
	// requested is 118.
	p, err = Default.ByFamilyVersion(Chrome, "119")
	if err != nil {
		t.Fatal(err)
	}
	if p.Version != "118" {
		t.Fatalf("expected fallback to 118, got %s", p.Version)
	}

	// Below the oldest registered version: falls back to the latest.
	p, err = Default.ByFamilyVersion(Chrome, "50")
	if err != nil {
		t.Fatal(err)
	}
	if p.Version != "120" {
		t.Fatalf("expected fallback to latest (120) for an out-of-range request, got %s", p.Version)
	}
}

func TestByFamilyVersionUnknownFamily(t *testing.T) {
	if _, err := Default.ByFamilyVersion(Family("no-such-family"), "1"); err == nil {
		t.Fatal("expected not-found error for unknown family")
	}
}

func TestFromUserAgentDetectionOrder(t *testing.T) {
	cases := []struct {
		ua     string
		family Family
	}{
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0", Firefox},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0", Edge},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 OPR/106.0.0.0", Opera},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", Chrome},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Safari/605.1.15", Safari},
	}
	for _, c := range cases {
		p, err := Default.FromUserAgent(c.ua)
		if err != nil {
			t.Fatalf("ua %q: %v", c.ua, err)
		}
		if p.Family != c.family {
			t.Fatalf("ua %q: expected family %s, got %s", c.ua, c.family, p.Family)
		}
	}
}

func TestFromUserAgentNoMatch(t *testing.T) {
	if _, err := Default.FromUserAgent("curl/8.0"); err == nil {
		t.Fatal("expected no-match error for a non-browser UA")
	}
}

func TestRandomIsDeterministicForSeed(t *testing.T) {
	p1, err := Default.Random(rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatal(err)
	}
	p2, err := Default.Random(rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatal(err)
	}
	if p1.Name != p2.Name {
		t.Fatalf("same seed produced different profiles: %s vs %s", p1.Name, p2.Name)
	}
}

func TestRandomByFamilyStaysInFamily(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		p, err := Default.RandomByFamily(rng, Firefox)
		if err != nil {
			t.Fatal(err)
		}
		if p.Family != Firefox {
			t.Fatalf("expected Firefox family, got %s", p.Family)
		}
	}
}

func TestPseudoHeaderOrderInvariant(t *testing.T) {
	for _, p := range builtinProfiles() {
		if !HasValidPseudoHeaderOrder(p.HTTP2PseudoHeaderOrder) {
			t.Fatalf("%s: invalid pseudo-header order %v", p.Name, p.HTTP2PseudoHeaderOrder)
		}
	}
}

func TestWithFeatureAndMigrationMap(t *testing.T) {
	http3Profiles := Default.WithFeature(Chrome, "http3")
	if len(http3Profiles) == 0 {
		t.Fatal("expected at least one Chrome profile flagged for http3")
	}
	for _, p := range http3Profiles {
		if !p.VersionEntry.HTTP3 {
			t.Fatalf("%s: WithFeature returned a profile without the flag set", p.Name)
		}
	}
	// No fallback chain configured in the built-in catalog yet; the
	// map should simply be empty rather than error.
	if m := Default.MigrationMap(Chrome); m == nil {
		t.Fatal("MigrationMap should return a non-nil (possibly empty) map")
	}
}
