package impersonate

import (
	"testing"

	"github.com/brightwire/impersonate/profile"
)

func TestGenerateHeadersAppliesProfileOrderAndOverrides(t *testing.T) {
	p, err := profile.Default.ByName("chrome120")
	if err != nil {
		t.Fatal(err)
	}

	override := &Header{}
	override.Add("accept-language", "fr-FR")
	override.Add("x-custom", "1")

	out := GenerateHeaders(p, override)

	if v, ok := out.Get("accept-language"); !ok || v != "fr-FR" {
		t.Fatalf("expected caller override to win, got %q ok=%v", v, ok)
	}
	if v, ok := out.Get("user-agent"); !ok || v == "" {
		t.Fatalf("expected a profile user-agent, got %q ok=%v", v, ok)
	}

	var lastKnownIdx, customIdx = -1, -1
	for i, pair := range out.Items() {
		if pair.Name == "accept-language" {
			lastKnownIdx = i
		}
		if pair.Name == "x-custom" {
			customIdx = i
		}
	}
	if customIdx < lastKnownIdx {
		t.Fatalf("expected x-custom (unknown to the profile) to be appended after known headers")
	}
}

func TestGenerateHeadersNilOverride(t *testing.T) {
	p, err := profile.Default.ByName("chrome120")
	if err != nil {
		t.Fatal(err)
	}
	out := GenerateHeaders(p, nil)
	if _, ok := out.Get("user-agent"); !ok {
		t.Fatal("expected a default user-agent with no override")
	}
}
