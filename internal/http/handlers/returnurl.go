package handlers

import (
	"net/url"
	"strings"
)

// safeReturnURL accepts only local paths: a single leading slash, no
// scheme or host, no control characters. Anything else becomes "/".
func safeReturnURL(raw string) string {
	if raw == "" || raw[0] != '/' {
		return "/"
	}

	if len(raw) > 1 && (raw[1] == '/' || raw[1] == '\\') {
		return "/"
	}

	if strings.ContainsFunc(raw, func(r rune) bool { return r < 0x20 || r == 0x7f }) {
		return "/"
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}

	return raw
}
