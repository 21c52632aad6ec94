package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/metaverify"
	mvhtml "github.com/fwojciec/metaverify/html"
)

// Ensure Extractor implements metaverify.Extractor at compile time.
var _ metaverify.Extractor = (*Extractor)(nil)

// Extractor builds a full DOM with goquery and queries it for the title and
// meta tags. The HTML5 tree builder lower-cases attribute names, so the names
// as written are recovered from a token scan of the same body.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the first <title> and every <meta> element that carries
// at least one attribute, in document order.
func (e *Extractor) Extract(body string) *metaverify.ExtractionResult {
	result := &metaverify.ExtractionResult{Metadata: []metaverify.MetaTag{}}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return result
	}

	if sel := doc.Find("title").First(); sel.Length() > 0 {
		title := strings.TrimSpace(sel.Text())
		result.Title = &title
	}

	written := mvhtml.MetaAttributeNames(body)
	metas := doc.Find("meta")
	aligned := metas.Length() == len(written)

	metas.Each(func(i int, sel *goquery.Selection) {
		attr := sel.Get(0).Attr
		keys := make([]string, len(attr))
		for j, a := range attr {
			keys[j] = a.Key
		}
		if aligned && sameNames(keys, written[i]) {
			keys = written[i]
		}

		var attrs metaverify.MetaAttributeSet
		for j, a := range attr {
			attrs.Set(keys[j], a.Val)
		}
		if attrs.Len() > 0 {
			result.Metadata = append(result.Metadata, metaverify.MetaTag{Attributes: attrs})
		}
	})

	return result
}

// sameNames reports whether two attribute lists differ only in case.
func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}
