// Package html provides a streaming implementation of metaverify.Extractor
// built on the golang.org/x/net/html tokenizer.
package html

import (
	"bytes"
	"strings"

	"github.com/fwojciec/metaverify"
	"golang.org/x/net/html"
)

// Ensure Extractor implements metaverify.Extractor at compile time.
var _ metaverify.Extractor = (*Extractor)(nil)

// Extractor scans a document token by token. It accepts malformed markup the
// way browsers do and keeps attribute names in the case they were written.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the first <title> and every <meta> element that carries
// at least one attribute, in document order.
func (e *Extractor) Extract(body string) *metaverify.ExtractionResult {
	result := &metaverify.ExtractionResult{Metadata: []metaverify.MetaTag{}}

	z := html.NewTokenizer(strings.NewReader(body))
	inTitle := false
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or a tokenizer error; either way the scan is over.
			return result

		case html.StartTagToken, html.SelfClosingTagToken:
			inTitle = false

			// TagName and TagAttr lower-case the tokenizer's buffer in
			// place, so the raw bytes must be copied first.
			raw := bytes.Clone(z.Raw())
			name, hasAttr := z.TagName()

			switch string(name) {
			case "title":
				if result.Title == nil {
					title := ""
					result.Title = &title
					inTitle = true
				}
			case "meta":
				if !hasAttr {
					continue
				}
				if attrs := readAttributes(z, raw); attrs.Len() > 0 {
					result.Metadata = append(result.Metadata, metaverify.MetaTag{Attributes: attrs})
				}
			}

		case html.TextToken:
			if inTitle {
				title := strings.TrimSpace(string(z.Text()))
				result.Title = &title
				inTitle = false
			}

		default:
			inTitle = false
		}
	}
}

// readAttributes collects the attributes of the current tag.
func readAttributes(z *html.Tokenizer, raw []byte) metaverify.MetaAttributeSet {
	keys, vals := tagAttributes(z, raw)
	var attrs metaverify.MetaAttributeSet
	for i := range keys {
		attrs.Set(keys[i], vals[i])
	}
	return attrs
}

// tagAttributes returns every attribute of the current tag, duplicates
// included. Values come from the tokenizer (entity-decoded); names are
// recovered from the raw tag.
func tagAttributes(z *html.Tokenizer, raw []byte) (keys, vals []string) {
	for more := true; more; {
		var k, v []byte
		k, v, more = z.TagAttr()
		keys = append(keys, string(k))
		vals = append(vals, string(v))
	}
	if names := attributeNames(raw); len(names) == len(keys) {
		keys = names
	}
	return keys, vals
}

// MetaAttributeNames returns the attribute names of every <meta> tag in body
// as written, in document order and with duplicates included. Tags without
// attributes yield an empty list. DOM-based extractors use it to restore the
// case that tree builders fold away.
func MetaAttributeNames(body string) [][]string {
	out := [][]string{}
	z := html.NewTokenizer(strings.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return out
		case html.StartTagToken, html.SelfClosingTagToken:
			raw := bytes.Clone(z.Raw())
			name, hasAttr := z.TagName()
			if string(name) != "meta" {
				continue
			}
			names := []string{}
			if hasAttr {
				names, _ = tagAttributes(z, raw)
			}
			out = append(out, names)
		}
	}
}

// attributeNames scans a raw start tag such as `<meta Name="x" content=y>`
// and returns the attribute names exactly as written. It follows the same
// rules as the tokenizer so the names line up with TagAttr's results.
func attributeNames(raw []byte) []string {
	n := len(raw)

	// Skip "<" and the tag name.
	i := 1
	for i < n && !isSpace(raw[i]) && raw[i] != '/' && raw[i] != '>' {
		i++
	}
	i = skipSpace(raw, i)

	var names []string
	for i < n && raw[i] != '>' {
		start := i
		for i < n {
			c := raw[i]
			if c == '=' && i == start {
				// A leading "=" is part of the name.
				i++
				continue
			}
			if c == '=' || c == '/' || c == '>' || isSpace(c) {
				break
			}
			i++
		}
		if i > start {
			names = append(names, string(raw[start:i]))
		}

		i = skipSpace(raw, i)
		switch {
		case i < n && raw[i] == '/':
			i++
		case i < n && raw[i] == '=':
			i = skipValue(raw, skipSpace(raw, i+1))
		}
		i = skipSpace(raw, i)
	}
	return names
}

// skipValue advances past a quoted or unquoted attribute value.
func skipValue(raw []byte, i int) int {
	n := len(raw)
	if i >= n {
		return i
	}
	switch q := raw[i]; q {
	case '>':
		return i
	case '"', '\'':
		i++
		for i < n && raw[i] != q {
			i++
		}
		if i < n {
			i++
		}
		return i
	default:
		for i < n && !isSpace(raw[i]) && raw[i] != '>' {
			i++
		}
		return i
	}
}

func skipSpace(raw []byte, i int) int {
	for i < len(raw) && isSpace(raw[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\n', '\r', '\t', '\f':
		return true
	}
	return false
}
