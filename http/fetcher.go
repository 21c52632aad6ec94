// Package http provides the HTTP transport for metaverify: an outbound
// Fetcher built on net/http and the inbound Server exposing the /extract API.
package http

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/metaverify"
	"golang.org/x/net/html/charset"
)

// DefaultFetchTimeout is the default timeout for outbound requests.
const DefaultFetchTimeout = 15 * time.Second

// DefaultUserAgent identifies the fetcher to remote sites.
const DefaultUserAgent = "Mozilla/5.0 (compatible; MetaVerifierBot/1.1; +https://github.com/fwojciec/metaverify)"

// DefaultMaxBodySize caps how much of a response body is read.
const DefaultMaxBodySize = 10 << 20

// Ensure Fetcher implements metaverify.Fetcher at compile time.
var _ metaverify.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves documents using a single HTTP GET per call.
// Redirects are followed; nothing is retried.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	userAgent   string
	maxBodySize int64
	transport   http.RoundTripper
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the total timeout for a request, including reading the body.
// Defaults to DefaultFetchTimeout (15s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets how many bytes of a response body are read.
// Larger bodies are truncated.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// WithTransport sets the round tripper used by the underlying client.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) {
		f.transport = rt
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:     DefaultFetchTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout:   f.timeout,
		Transport: f.transport,
	}

	return f
}

// Fetch retrieves the document at rawURL. The body is converted to UTF-8
// using the declared or sniffed character set.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*metaverify.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, metaverify.Errorf(metaverify.EINVALID, "Invalid URL format provided: %s", rawURL)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyError(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, metaverify.HTTPErrorf(resp.StatusCode, "Server returned error %d for URL: %s.", resp.StatusCode, rawURL)
	}

	contentType := resp.Header.Get("Content-Type")

	body, err := charset.NewReader(io.LimitReader(resp.Body, f.maxBodySize), contentType)
	if errors.Is(err, io.EOF) {
		body = strings.NewReader("")
	} else if err != nil {
		return nil, classifyError(rawURL, err)
	}

	b, err := io.ReadAll(body)
	if err != nil {
		return nil, classifyError(rawURL, err)
	}

	return &metaverify.FetchResult{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        string(b),
	}, nil
}

// classifyError maps a transport failure onto the application error codes.
func classifyError(rawURL string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return metaverify.Errorf(metaverify.ETIMEOUT, "Request timed out fetching URL: %s", rawURL)
	case isConnectionError(err):
		return metaverify.Errorf(metaverify.ECONNECTION, "Could not connect to URL: %s. Check the address and network.", rawURL)
	default:
		return metaverify.Errorf(metaverify.EUNEXPECTED, "Could not fetch or process URL: %s. Error: %s", rawURL, unwrapURLError(err))
	}
}

func isConnectionError(err error) bool {
	var (
		dnsErr      *net.DNSError
		opErr       *net.OpError
		certErr     *tls.CertificateVerificationError
		recordErr   tls.RecordHeaderError
		unknownAuth x509.UnknownAuthorityError
		hostErr     x509.HostnameError
		invalidCert x509.CertificateInvalidError
	)
	return errors.As(err, &dnsErr) ||
		errors.As(err, &opErr) ||
		errors.As(err, &certErr) ||
		errors.As(err, &recordErr) ||
		errors.As(err, &unknownAuth) ||
		errors.As(err, &hostErr) ||
		errors.As(err, &invalidCert)
}

// unwrapURLError drops the "Get <url>:" prefix added by net/http.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
