// Package extract pulls candidate URLs out of an email's rendered content.
// Markup gets a structural pass (visible anchors plus a text scan over the
// noise-stripped document); anything else falls back to a plain text scan.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mikey/phishing-link-analyzer/internal/ignore"
	"github.com/mikey/phishing-link-analyzer/internal/urlnorm"
)

// noiseSelector matches elements whose contents are never user-visible links.
const noiseSelector = "script, style, meta, noscript, link, object, embed"

// urlPattern matches free-standing http(s) URLs in prose.
var urlPattern = regexp.MustCompile(`https?://(?:www\.)?[-a-zA-Z0-9@:%._\+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b(?:[-a-zA-Z0-9()@:%_\+.~#?&/=]*)`)

// skippedSchemes are anchor targets that are not web destinations.
var skippedSchemes = []string{"mailto:", "tel:", "javascript:", "data:", "cid:"}

// Extractor turns email content into a deduplicated set of candidate URLs
type Extractor struct {
	filter *ignore.Filter
}

// New creates a new extractor using the given ignore filter.
func New(filter *ignore.Filter) *Extractor {
	return &Extractor{filter: filter}
}

// ExtractURLs returns the normalized, deduplicated candidate URLs found in
// content. The result is sorted; set membership is what matters, not order.
func (e *Extractor) ExtractURLs(content string) []string {
	content = trimToMarkupStart(content)

	var raw []string
	if strings.HasPrefix(strings.TrimSpace(content), "<") {
		candidates, ok := e.extractFromMarkup(content)
		if ok {
			raw = candidates
		} else {
			raw = urlPattern.FindAllString(content, -1)
		}
	} else {
		raw = urlPattern.FindAllString(content, -1)
	}

	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, candidate := range raw {
		if skippedScheme(candidate) {
			continue
		}
		normalized := urlnorm.Normalize(candidate)
		if normalized == "" || e.filter.Ignored(normalized) {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}

	sort.Strings(out)
	return out
}

// extractFromMarkup collects visible anchor targets and free-standing URLs
// from the rendered text. The second return value is false when the markup
// could not be parsed at all.
func (e *Extractor) extractFromMarkup(content string) ([]string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, false
	}

	doc.Find(noiseSelector).Remove()

	var candidates []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		// anchors with no text and no image render as nothing; skip them
		if strings.TrimSpace(a.Text()) == "" && a.Find("img").Length() == 0 {
			return
		}
		candidates = append(candidates, strings.TrimSpace(href))
	})

	// catch addresses pasted as plain text; runs on the noise-stripped text
	text := doc.Text()
	candidates = append(candidates, urlPattern.FindAllString(text, -1)...)

	return candidates, true
}

// trimToMarkupStart drops leading bytes before an <html> or <!doctype html>
// marker so that encoding garbage ahead of the document does not defeat
// markup detection.
func trimToMarkupStart(content string) string {
	lower := strings.ToLower(content)
	if idx := strings.Index(lower, "<!doctype html"); idx > 0 {
		return content[idx:]
	}
	if idx := strings.Index(lower, "<html"); idx > 0 {
		return content[idx:]
	}
	return content
}

func skippedScheme(candidate string) bool {
	lower := strings.ToLower(strings.TrimSpace(candidate))
	if lower == "" || strings.HasPrefix(lower, "#") {
		return true
	}
	for _, s := range skippedSchemes {
		if strings.HasPrefix(lower, s) {
			return true
		}
	}
	return false
}
