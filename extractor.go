package metaverify

import (
	"bytes"
	"encoding/json"
	"strings"
)

// MetaAttribute is a single name/value pair found on a <meta> element.
type MetaAttribute struct {
	Name  string
	Value string
}

// MetaAttributeSet holds the attributes of one <meta> element in the order
// they were written. Names keep the case they were found in.
type MetaAttributeSet []MetaAttribute

// Get returns the value of the named attribute. Names compare
// case-insensitively, as in HTML.
func (s MetaAttributeSet) Get(name string) (string, bool) {
	for _, a := range s {
		if strings.EqualFold(a.Name, name) {
			return a.Value, true
		}
	}
	return "", false
}

// Len returns the number of attributes in the set.
func (s MetaAttributeSet) Len() int {
	return len(s)
}

// Set assigns value to name. Names that differ only in case are the same
// attribute: an existing entry keeps its position and spelling and takes the
// new value, so the last duplicate on an element wins.
func (s *MetaAttributeSet) Set(name, value string) {
	for i := range *s {
		if strings.EqualFold((*s)[i].Name, name) {
			(*s)[i].Value = value
			return
		}
	}
	*s = append(*s, MetaAttribute{Name: name, Value: value})
}

// MarshalJSON encodes the set as a JSON object, keeping document order.
func (s MetaAttributeSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, a := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := marshal(a.Name)
		if err != nil {
			return nil, err
		}
		value, err := marshal(a.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into the set, keeping key order.
func (s *MetaAttributeSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return Errorf(EINVALID, "meta attributes must be a JSON object")
	}

	out := MetaAttributeSet{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return err
		}
		out.Set(name, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

// MetaTag is one <meta> element that carried at least one attribute.
type MetaTag struct {
	Attributes MetaAttributeSet `json:"attributes"`
}

// ExtractionResult holds the title and meta tags found in a document.
type ExtractionResult struct {
	// Title is the trimmed text of the first <title> element, or nil if the
	// document has none.
	Title *string `json:"title"`

	// Metadata lists the <meta> elements in document order.
	Metadata []MetaTag `json:"metadata"`
}

// MarshalJSON always encodes Metadata as an array, never null.
func (r ExtractionResult) MarshalJSON() ([]byte, error) {
	type alias ExtractionResult
	out := alias(r)
	if out.Metadata == nil {
		out.Metadata = []MetaTag{}
	}
	return marshal(out)
}

// marshal is json.Marshal without HTML escaping, so "&" stays readable.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Extractor scans a document for its title and meta tags.
type Extractor interface {
	// Extract parses body as tolerant HTML. It never fails: empty or
	// non-HTML input yields a nil title and no meta tags.
	Extract(body string) *ExtractionResult
}
