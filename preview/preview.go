// Package preview groups extracted meta tags the way the verifier page shows
// them: general page metadata, Open Graph, Twitter Card and everything else.
package preview

import (
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/metaverify"
)

// Well-known keys listed even when a page does not set them.
var (
	GeneralKeys   = []string{"title", "description", "keywords", "author", "viewport", "charset"}
	OpenGraphKeys = []string{"og:title", "og:description", "og:image", "og:url", "og:type", "og:site_name"}
	TwitterKeys   = []string{"twitter:card", "twitter:title", "twitter:description", "twitter:image", "twitter:site"}
)

// Section names.
const (
	SectionGeneral   = "General"
	SectionOpenGraph = "Open Graph"
	SectionTwitter   = "Twitter Card"
)

// Entry is one key of a section. Set is false when the page has no value.
type Entry struct {
	Key   string
	Value string
	Set   bool
}

// Section is a named, ordered group of entries.
type Section struct {
	Name    string
	Entries []Entry
}

// Lookup returns the entry for key.
func (s *Section) Lookup(key string) (Entry, bool) {
	for _, e := range s.Entries {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}

func (s *Section) set(key, value string) {
	for i := range s.Entries {
		if s.Entries[i].Key == key {
			s.Entries[i].Value, s.Entries[i].Set = value, true
			return
		}
	}
	s.Entries = append(s.Entries, Entry{Key: key, Value: value, Set: true})
}

func newSection(name string, keys []string) Section {
	s := Section{Name: name, Entries: make([]Entry, len(keys))}
	for i, k := range keys {
		s.Entries[i].Key = k
	}
	return s
}

// Report is the categorized view of an extraction result.
type Report struct {
	General   Section
	OpenGraph Section
	Twitter   Section

	// Other holds tags that fit none of the sections, in document order.
	Other []metaverify.MetaTag

	// Total is the number of meta tags on the page.
	Total int
}

// Sections returns the named sections in display order.
func (r *Report) Sections() []Section {
	return []Section{r.General, r.OpenGraph, r.Twitter}
}

// Categorize sorts the tags of result into sections. Attribute names are
// matched case-insensitively; for repeated keys the last tag wins.
func Categorize(result *metaverify.ExtractionResult) *Report {
	r := &Report{
		General:   newSection(SectionGeneral, GeneralKeys),
		OpenGraph: newSection(SectionOpenGraph, OpenGraphKeys),
		Twitter:   newSection(SectionTwitter, TwitterKeys),
	}
	if result == nil {
		return r
	}
	if result.Title != nil && *result.Title != "" {
		r.General.set("title", *result.Title)
	}
	r.Total = len(result.Metadata)

	for _, tag := range result.Metadata {
		attrs := tag.Attributes
		content, _ := attrs.Get("content")
		property, _ := attrs.Get("property")
		name, _ := attrs.Get("name")

		switch {
		case strings.HasPrefix(property, "og:"):
			r.OpenGraph.set(property, content)
		case strings.HasPrefix(name, "twitter:"):
			r.Twitter.set(name, content)
		case isGeneral(strings.ToLower(name)):
			r.General.set(strings.ToLower(name), content)
		default:
			if charset, ok := attrs.Get("charset"); ok {
				r.General.set("charset", charset)
				continue
			}
			r.Other = append(r.Other, tag)
		}
	}
	return r
}

func isGeneral(name string) bool {
	switch name {
	case "description", "keywords", "author", "viewport":
		return true
	}
	return false
}

// Write renders r as a plain text report for url.
func Write(w io.Writer, url string, r *Report) error {
	ew := &errWriter{w: w}
	ew.printf("URL: %s\n", url)
	for _, s := range r.Sections() {
		ew.printf("\n%s\n", s.Name)
		for _, e := range s.Entries {
			value := e.Value
			if !e.Set {
				value = "(not set)"
			}
			ew.printf("  %-22s %s\n", e.Key, value)
		}
	}
	if len(r.Other) > 0 {
		ew.printf("\nOther\n")
		for _, tag := range r.Other {
			parts := make([]string, 0, len(tag.Attributes))
			for _, a := range tag.Attributes {
				parts = append(parts, fmt.Sprintf("%s=%q", a.Name, a.Value))
			}
			ew.printf("  %s\n", strings.Join(parts, " "))
		}
	}
	ew.printf("\n%d meta tags found\n", r.Total)
	return ew.err
}

// errWriter keeps the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
