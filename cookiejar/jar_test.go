package cookiejar

import "testing"

func TestAbsorbThenGenerate(t *testing.T) {
	s := New()
	if err := s.AbsorbSetCookie("session=abc123; Path=/", "example.com"); err != nil {
		t.Fatal(err)
	}

	val, ok := s.GenerateHeader("example.com", "/", true)
	if !ok {
		t.Fatal("expected a Cookie header after absorbing a Set-Cookie")
	}
	if val != "session=abc123" {
		t.Fatalf("got %q", val)
	}
}

func TestAbsorbSetCookieRejectsUnparseableValue(t *testing.T) {
	s := New()
	if err := s.AbsorbSetCookie("", "example.com"); err == nil {
		t.Fatal("expected an error for an empty Set-Cookie value")
	}
}

func TestGenerateHeaderEmptyWhenNoCookies(t *testing.T) {
	s := New()
	if _, ok := s.GenerateHeader("example.com", "/", true); ok {
		t.Fatal("expected no Cookie header for an empty store")
	}
}

func TestCookieScopedToPath(t *testing.T) {
	s := New()
	if err := s.AbsorbSetCookie("a=1; Path=/admin", "example.com"); err != nil {
		t.Fatal(err)
	}

	if _, ok := s.GenerateHeader("example.com", "/public", true); ok {
		t.Fatal("expected the /admin-scoped cookie to be absent for /public")
	}
	if val, ok := s.GenerateHeader("example.com", "/admin/x", true); !ok || val != "a=1" {
		t.Fatalf("expected a=1 under /admin, got %q ok=%v", val, ok)
	}
}

func TestCookieNotLeakedToOtherHost(t *testing.T) {
	s := New()
	if err := s.AbsorbSetCookie("a=1", "example.com"); err != nil {
		t.Fatal(err)
	}

	if _, ok := s.GenerateHeader("other.com", "/", true); ok {
		t.Fatal("expected example.com's cookie not to be sent to other.com")
	}
}
