package urlnorm

import (
	"testing"
)

func TestNormalize_StripsTrackingParams(t *testing.T) {
	t.Parallel()
	got := Normalize("https://x.com/a?utm_source=y")
	if got != "https://x.com/a" {
		t.Errorf("expected bare URL, got %q", got)
	}
}

func TestNormalize_KeepsMeaningfulParams(t *testing.T) {
	t.Parallel()
	got := Normalize("https://x.com/a?id=42&utm_campaign=spring")
	if got != "https://x.com/a?id=42" {
		t.Errorf("expected id param preserved, got %q", got)
	}
}

func TestNormalize_TrailingArtifacts(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"entity amp", "https://example.com/page&amp;", "https://example.com/page"},
		{"bare amp", "https://example.com/page&", "https://example.com/page"},
		{"closing paren", "https://example.com/page)", "https://example.com/page"},
		{"sentence period", "https://example.com/page.", "https://example.com/page"},
		{"angle bracket", "https://example.com/page>", "https://example.com/page"},
		{"stacked", "https://example.com/page.,;", "https://example.com/page"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalize_UnwrapsSafeLinks(t *testing.T) {
	t.Parallel()
	wrapped := "https://eur01.safelinks.protection.outlook.com/?url=https%3A%2F%2Fevil.com%2Flogin&data=ignored"
	if got := Normalize(wrapped); got != "https://evil.com/login" {
		t.Errorf("expected unwrapped target, got %q", got)
	}
}

func TestNormalize_UnwrapsInflectionTracking(t *testing.T) {
	t.Parallel()
	wrapped := "https://tracking.inflection.io/t?redirect=https%3A%2F%2Fexample.org%2Foffer"
	if got := Normalize(wrapped); got != "https://example.org/offer" {
		t.Errorf("expected unwrapped target, got %q", got)
	}
}

func TestNormalize_UnwrapsGoogleRedirect(t *testing.T) {
	t.Parallel()
	wrapped := "https://www.google.com/url?q=https%3A%2F%2Fexample.net%2Fdoc"
	if got := Normalize(wrapped); got != "https://example.net/doc" {
		t.Errorf("expected unwrapped target, got %q", got)
	}
}

func TestNormalize_NestedWrappersBounded(t *testing.T) {
	t.Parallel()
	inner := "https://evil.com/final"
	wrapped := inner
	// wrap far past the depth cap; Normalize must terminate and still make progress
	for i := 0; i < 10; i++ {
		wrapped = "https://tracking.inflection.io/t?redirect=" + queryEscape(wrapped)
	}
	got := Normalize(wrapped)
	if got == wrapped {
		t.Errorf("expected at least partial unwrapping, got input back")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"https://x.com/a?utm_source=y",
		"https://eur01.safelinks.protection.outlook.com/?url=https%3A%2F%2Fevil.com%2Flogin",
		"https://example.com/page&amp;",
		"not a url at all",
		"http://192.168.1.1/login?a=1&b=2",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalize_MalformedFallsThrough(t *testing.T) {
	t.Parallel()
	if got := Normalize("::not-a-url::,"); got == "" {
		t.Error("malformed input should fall through, not vanish")
	}
	if got := Normalize("plain words"); got != "plain words" {
		t.Errorf("non-URL text should pass through unchanged, got %q", got)
	}
}

func TestNormalize_DifferentWrappersSameTarget(t *testing.T) {
	t.Parallel()
	a := Normalize("https://nam02.safelinks.protection.outlook.com/?url=https%3A%2F%2Fevil.com")
	b := Normalize("https://evil.com")
	if a != b {
		t.Errorf("wrapped and bare forms should normalize identically: %q vs %q", a, b)
	}
}

// queryEscape is a tiny local helper so the test file reads clearly.
func queryEscape(s string) string {
	r := ""
	for _, c := range []byte(s) {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.', c == '~':
			r += string(c)
		default:
			r += "%" + string("0123456789ABCDEF"[c>>4]) + string("0123456789ABCDEF"[c&15])
		}
	}
	return r
}
