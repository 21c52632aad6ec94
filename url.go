package metaverify

import (
	"net/url"
	"strings"
)

// NormalizeURL turns a user-supplied address into one with an explicit
// scheme. Addresses that already start with http:// or https:// are returned
// unchanged. Scheme-less addresses that look like a domain (contain a dot and
// do not start with "/") get "https://" prepended. Anything else is rejected
// with EINVALID before any network activity takes place.
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", Errorf(EINVALID, "URL parameter is missing")
	}

	if !hasHTTPScheme(s) {
		if !strings.Contains(s, ".") || strings.HasPrefix(s, "/") {
			return "", Errorf(EINVALID, "Invalid URL format: %s", s)
		}
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return "", Errorf(EINVALID, "Invalid URL format provided: %s", s)
	}

	return s, nil
}

func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
