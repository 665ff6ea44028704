package util

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

func GetClientIPAddress(r *http.Request) string {
	if forwardedIP := r.Header.Get("X-Forwarded-For"); forwardedIP != "" {
		return strings.TrimSpace(strings.Split(forwardedIP, ",")[0])
	}
	return r.RemoteAddr
}

var urlPattern = regexp.MustCompile(`^(https?://)?([a-zA-Z0-9.-]+)(:[0-9]+)?(/.*)?$`)

// IsValidURL accepts absolute http(s) URLs with a host.
func IsValidURL(input string) bool {
	if input == "" || !urlPattern.MatchString(input) {
		return false
	}

	u, err := url.Parse(input)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// JoinURL resolves a page path against the base URL. A path that is
// already an absolute URL is returned unchanged.
func JoinURL(base, path string) string {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	if base == "" {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a page name into a file-name-safe token.
func Slug(name string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if s == "" {
		return "page"
	}
	return s
}
