// Package ignore filters out infrastructure and asset URLs that appear in
// email markup but are never user-facing links worth scoring.
package ignore

import (
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// infrastructureDomains are schema, namespace, font and CDN hosts that show
// up in email HTML boilerplate.
var infrastructureDomains = []string{
	"w3.org",
	"xml.org",
	"schemas.microsoft.com",
	"purl.org",
	"xmlns.com",
	"fonts.googleapis.com",
	"fonts.gstatic.com",
}

// assetExtensions mark URLs that point at static resources rather than pages.
var assetExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".svg",
	".css", ".js",
	".woff", ".woff2", ".ico",
}

// Filter decides whether a candidate URL should be excluded from analysis
type Filter struct {
	domains []string
	logger  *zap.Logger
}

// NewFilter creates a new ignore filter. extraDomains extends the fixed
// infrastructure list with deployment-specific hosts.
func NewFilter(extraDomains []string, logger *zap.Logger) *Filter {
	domains := make([]string, 0, len(infrastructureDomains)+len(extraDomains))
	domains = append(domains, infrastructureDomains...)
	for _, d := range extraDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			domains = append(domains, d)
		}
	}

	if len(extraDomains) > 0 && logger != nil {
		logger.Info("Extended ignore filter", zap.Strings("extra_domains", extraDomains))
	}

	return &Filter{
		domains: domains,
		logger:  logger,
	}
}

// Ignored reports whether the URL points at infrastructure or a static asset.
func (f *Filter) Ignored(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		// unparsable candidates are kept; feature extraction flags them
		return false
	}

	host := strings.ToLower(u.Hostname())
	for _, d := range f.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			if f.logger != nil {
				f.logger.Debug("Ignoring infrastructure URL",
					zap.String("url", raw),
					zap.String("domain", d))
			}
			return true
		}
	}

	path := strings.ToLower(u.Path)
	for _, ext := range assetExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	return false
}
