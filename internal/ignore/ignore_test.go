package ignore

import (
	"testing"
)

func TestFilter_InfrastructureDomains(t *testing.T) {
	t.Parallel()
	f := NewFilter(nil, nil)

	cases := []struct {
		url  string
		want bool
	}{
		{"https://www.w3.org/1999/xhtml", true},
		{"http://schemas.microsoft.com/office/2004/12/omml", true},
		{"https://fonts.googleapis.com/css?family=Roboto", true},
		{"https://fonts.gstatic.com/s/roboto/v30/font.woff2", true},
		{"https://evil.com/login", false},
		{"https://notw3.org.evil.com/x", false},
	}
	for _, tc := range cases {
		if got := f.Ignored(tc.url); got != tc.want {
			t.Errorf("Ignored(%q) = %t, want %t", tc.url, got, tc.want)
		}
	}
}

func TestFilter_AssetExtensions(t *testing.T) {
	t.Parallel()
	f := NewFilter(nil, nil)

	cases := []struct {
		url  string
		want bool
	}{
		{"https://example.com/logo.png", true},
		{"https://example.com/banner.JPG", true},
		{"https://example.com/theme.css", true},
		{"https://example.com/app.js", true},
		{"https://example.com/favicon.ico", true},
		{"https://example.com/report.pdf", false},
		{"https://example.com/login", false},
		{"https://example.com/page.html?img=x.png", false},
	}
	for _, tc := range cases {
		if got := f.Ignored(tc.url); got != tc.want {
			t.Errorf("Ignored(%q) = %t, want %t", tc.url, got, tc.want)
		}
	}
}

func TestFilter_ExtraDomains(t *testing.T) {
	t.Parallel()
	f := NewFilter([]string{"cdn.internal.example"}, nil)

	if !f.Ignored("https://assets.cdn.internal.example/x") {
		t.Error("expected configured extra domain to be ignored")
	}
	if f.Ignored("https://cdn.other.example/x") {
		t.Error("unrelated domain should not be ignored")
	}
}

func TestFilter_UnparsableKept(t *testing.T) {
	t.Parallel()
	f := NewFilter(nil, nil)
	if f.Ignored("not a url") {
		t.Error("unparsable candidates must be kept for scoring")
	}
}
