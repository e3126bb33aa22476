package features

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mikey/phishing-link-analyzer/internal/core"
)

// hiddenSelectors are evaluated independently; an element matching several
// of them is counted once per selector. Over-counting biases toward
// suspicion, which is the intended direction.
var hiddenSelectors = []string{
	"[style*='display:none']",
	"[style*='visibility:hidden']",
	"[hidden]",
}

// ExtractPageFeatures computes structural features of fetched page markup.
// It is total: markup that cannot be parsed degrades to zero counts.
func ExtractPageFeatures(markup string) core.PageFeatures {
	var f core.PageFeatures

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return f
	}

	f.NumScriptTags = doc.Find("script").Length()
	f.NumIframeTags = doc.Find("iframe").Length()
	f.NumLinks = doc.Find("a[href]").Length()
	f.NumForms = doc.Find("form").Length()

	for _, sel := range hiddenSelectors {
		f.NumHiddenElements += doc.Find(sel).Length()
	}

	doc.Find("meta[http-equiv]").Each(func(_ int, m *goquery.Selection) {
		if v, _ := m.Attr("http-equiv"); strings.EqualFold(v, "refresh") {
			f.NumMetaRefresh++
		}
	})

	doc.Find("form[action]").EachWithBreak(func(_ int, form *goquery.Selection) bool {
		action, _ := form.Attr("action")
		action = strings.ToLower(strings.TrimSpace(action))
		if strings.HasPrefix(action, "http://") || strings.HasPrefix(action, "https://") {
			f.HasExternalFormAction = true
			return false
		}
		return true
	})

	return f
}
