// Package urlnorm canonicalizes candidate URLs pulled out of email bodies:
// it strips extraction artifacts, unwraps link-protection and tracking
// redirectors, and removes tracking query parameters so that differently
// wrapped forms of the same target collapse to one string.
package urlnorm

import (
	"net/url"
	"strings"
)

// maxUnwrapDepth bounds recursive redirector unwrapping so a wrapper that
// points at another wrapper cannot loop forever.
const maxUnwrapDepth = 5

// redirector describes a known link-wrapping service: a host suffix to
// recognize it by, an optional path prefix, and the query parameters that
// may carry the real target.
type redirector struct {
	hostSuffix string
	pathPrefix string
	params     []string
}

var redirectors = []redirector{
	{hostSuffix: "safelinks.protection.outlook.com", params: []string{"url"}},
	{hostSuffix: "tracking.inflection.io", params: []string{"redirect"}},
	{hostSuffix: "google.com", pathPrefix: "/url", params: []string{"q", "url"}},
}

// trackingParams are query parameters that only identify the campaign that
// produced the link, never the destination.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"inf_ver":      {},
	"inf_ctx":      {},
}

// trailing characters that upstream text extraction tends to glue onto URLs
const trailingArtifacts = ".,;)>"

// Normalize canonicalizes a raw URL string. It is total: malformed input is
// returned after artifact stripping rather than rejected, and feature
// extraction downstream treats it as suspicious. Normalize is idempotent.
func Normalize(raw string) string {
	cleaned := stripArtifacts(strings.TrimSpace(raw))

	u, err := url.Parse(cleaned)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return cleaned
	}

	u = unwrap(u)
	stripTracking(u)

	return u.String()
}

// stripArtifacts removes trailing entity fragments and punctuation that the
// text-pattern pass picks up from surrounding prose.
func stripArtifacts(s string) string {
	for {
		switch {
		case strings.HasSuffix(s, "&amp;"):
			s = strings.TrimSuffix(s, "&amp;")
		case strings.HasSuffix(s, "&amp"):
			s = strings.TrimSuffix(s, "&amp")
		case strings.HasSuffix(s, "&"):
			s = strings.TrimSuffix(s, "&")
		case s != "" && strings.ContainsRune(trailingArtifacts, rune(s[len(s)-1])):
			s = s[:len(s)-1]
		default:
			return s
		}
	}
}

// unwrap follows known redirector wrappers to the URL they actually point
// at, up to maxUnwrapDepth levels deep.
func unwrap(u *url.URL) *url.URL {
	for depth := 0; depth < maxUnwrapDepth; depth++ {
		target := unwrapOnce(u)
		if target == nil {
			return u
		}
		u = target
	}
	return u
}

func unwrapOnce(u *url.URL) *url.URL {
	host := strings.ToLower(u.Hostname())
	for _, r := range redirectors {
		if !hostMatches(host, r.hostSuffix) {
			continue
		}
		if r.pathPrefix != "" && !strings.HasPrefix(u.Path, r.pathPrefix) {
			continue
		}
		q := u.Query()
		for _, p := range r.params {
			raw := q.Get(p)
			if raw == "" {
				continue
			}
			target, err := url.Parse(raw)
			if err != nil || target.Scheme == "" || target.Host == "" {
				continue
			}
			return target
		}
	}
	return nil
}

func hostMatches(host, suffix string) bool {
	return host == suffix || strings.HasSuffix(host, "."+suffix)
}

// stripTracking drops tracking query parameters in place and re-serializes
// the query. An emptied query yields a bare URL with no trailing '?'.
func stripTracking(u *url.URL) {
	if u.RawQuery == "" {
		return
	}
	q := u.Query()
	for k := range q {
		if _, ok := trackingParams[k]; ok || strings.HasPrefix(k, "utm_") {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()
}
