// Package fs stores inspection reports as YAML files.
package fs

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/metaverify"
	"gopkg.in/yaml.v3"
)

// URLToPath converts a page address to a relative report path.
// Example: https://example.com/docs/api → example.com/docs/api.yaml
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", metaverify.Errorf(metaverify.EINVALID, "Invalid URL format provided: %s", rawURL)
	}
	host := strings.ReplaceAll(strings.ToLower(u.Host), ":", "_")

	p := u.Path
	if p == "" || strings.HasSuffix(p, "/") {
		p += "index"
	}
	// Clean against a root so ".." cannot leave the host directory.
	p = strings.TrimPrefix(path.Clean("/"+p), "/")

	return filepath.Join(host, filepath.FromSlash(p)+".yaml"), nil
}

// Ensure ReportStore implements metaverify.ReportStore at compile time.
var _ metaverify.ReportStore = (*ReportStore)(nil)

// ReportStore writes one YAML report per page under a base directory.
// Reports are written to a temporary file and renamed into place.
type ReportStore struct {
	baseDir string

	// Now returns the time recorded in reports. Defaults to time.Now.
	Now func() time.Time
}

// NewReportStore creates a new ReportStore rooted at baseDir.
func NewReportStore(baseDir string) *ReportStore {
	return &ReportStore{
		baseDir: baseDir,
		Now:     time.Now,
	}
}

// Save writes the report for inspection and returns its path.
func (s *ReportStore) Save(ctx context.Context, inspection *metaverify.Inspection) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	addr := inspection.URL
	if addr == "" {
		addr = inspection.RequestedURL
	}
	relPath, err := URLToPath(addr)
	if err != nil {
		return "", err
	}

	content, err := FormatReport(inspection, s.Now())
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(s.baseDir, relPath)
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, ".report-*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return "", err
	}
	return fullPath, nil
}

// FormatReport renders inspection as a YAML document. Meta tag attributes
// keep document order.
func FormatReport(inspection *metaverify.Inspection, checked time.Time) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value *yaml.Node) {
		doc.Content = append(doc.Content, scalar(key), value)
	}
	add("source", scalar(inspection.RequestedURL))
	add("url", scalar(inspection.URL))
	add("content_type", scalar(inspection.ContentType))
	add("checked", scalar(checked.UTC().Format(time.RFC3339)))

	result := inspection.Result
	if result == nil {
		result = &metaverify.ExtractionResult{}
	}
	title := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	if result.Title != nil {
		title = scalar(*result.Title)
	}
	tags := &yaml.Node{Kind: yaml.SequenceNode}
	for _, tag := range result.Metadata {
		attrs := &yaml.Node{Kind: yaml.MappingNode, Style: yaml.FlowStyle}
		for _, a := range tag.Attributes {
			attrs.Content = append(attrs.Content, scalar(a.Name), scalar(a.Value))
		}
		tags.Content = append(tags.Content, attrs)
	}
	add("title", title)
	add("metadata", tags)

	return yaml.Marshal(doc)
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
