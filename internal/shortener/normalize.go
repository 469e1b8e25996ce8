package shortener

import (
	"fmt"
	"net/url"
	"strings"
)

// InvalidURLError reports a target URL that failed validation.
type InvalidURLError struct {
	Raw    string
	Reason string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid url %q: %s", e.Raw, e.Reason)
}

// NormalizeURL validates and canonicalizes a submitted target URL.
// - Trims surrounding whitespace; blank input is rejected
// - Prepends "http://" when no scheme is present
// - Accepts only http and https schemes
// - Requires a dotted hostname (bare hosts like "localhost" are rejected)
// - Lowercases the scheme and host
// - Removes default ports (80 for http, 443 for https)
// - Removes trailing slashes from path (unless path is just "/")
func NormalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &InvalidURLError{Raw: raw, Reason: "empty url"}
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", &InvalidURLError{Raw: raw, Reason: err.Error()}
	}

	if u.Scheme == "" {
		u, err = url.Parse("http://" + trimmed)
		if err != nil {
			return "", &InvalidURLError{Raw: raw, Reason: err.Error()}
		}
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &InvalidURLError{Raw: raw, Reason: "scheme must be http or https"}
	}

	u.Host = strings.ToLower(u.Host)

	host := u.Hostname()
	if host == "" {
		return "", &InvalidURLError{Raw: raw, Reason: "missing host"}
	}

	if !strings.Contains(host, ".") {
		return "", &InvalidURLError{Raw: raw, Reason: "host must contain a dot"}
	}

	// Remove default ports
	if strings.HasSuffix(u.Host, ":80") && u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	} else if strings.HasSuffix(u.Host, ":443") && u.Scheme == "https" {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	// Remove trailing slash from path (but keep "/" for root)
	if len(u.Path) > 1 && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String(), nil
}
