// Package features computes the lexical and structural signals that the
// risk scorer consumes: per-URL features from the string itself and per-page
// features from optionally fetched destination markup.
package features

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/mikey/phishing-link-analyzer/internal/core"
)

// ipv4Pattern matches a host that is a bare dotted-quad address.
var ipv4Pattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

// suspiciousTLDs are top-level domains with outsized abuse rates.
var suspiciousTLDs = map[string]struct{}{
	"tk":    {},
	"ml":    {},
	"ga":    {},
	"cf":    {},
	"gq":    {},
	"xyz":   {},
	"top":   {},
	"work":  {},
	"click": {},
	"link":  {},
	"loan":  {},
	"zip":   {},
}

// shortenerDomains are services whose sole function is URL redirection.
var shortenerDomains = []string{
	"bit.ly",
	"tinyurl.com",
	"goo.gl",
	"t.co",
	"ow.ly",
	"is.gd",
	"buff.ly",
	"cutt.ly",
	"rb.gy",
	"shorturl.at",
}

// ExtractURLFeatures computes the feature set for a single URL. It is total:
// an unparsable URL gets conservative worst-case defaults with the lexical
// counts still taken from the raw string.
func ExtractURLFeatures(raw string) core.URLFeatures {
	f := core.URLFeatures{
		URLLength:  len(raw),
		NumDots:    strings.Count(raw, "."),
		NumHyphens: strings.Count(raw, "-"),
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		f.HasIPAddress = true
		f.IsHTTPS = false
		f.Protocol = "unknown:"
		f.SuspiciousTLD = true
		f.NumParameters = 0
		return f
	}

	f.Protocol = u.Scheme + ":"
	f.IsHTTPS = u.Scheme == "https"

	host := strings.ToLower(u.Hostname())
	if host == "" {
		// opaque URL (mailto: and friends): scheme is known, host signals are not
		return f
	}

	f.HasIPAddress = ipv4Pattern.MatchString(host)
	f.SuspiciousTLD = hasSuspiciousTLD(host)
	f.IsShortenedURL = isShortened(host)
	f.NumParameters = countParameters(u)

	return f
}

func hasSuspiciousTLD(host string) bool {
	idx := strings.LastIndex(host, ".")
	if idx < 0 || idx == len(host)-1 {
		return false
	}
	tld := host[idx+1:]
	_, ok := suspiciousTLDs[tld]
	return ok
}

func isShortened(host string) bool {
	for _, s := range shortenerDomains {
		if strings.Contains(host, s) {
			return true
		}
	}
	return false
}

// countParameters counts non-empty query key/value pairs.
func countParameters(u *url.URL) int {
	n := 0
	for key, values := range u.Query() {
		if key == "" {
			continue
		}
		for _, v := range values {
			if v != "" {
				n++
			}
		}
	}
	return n
}
