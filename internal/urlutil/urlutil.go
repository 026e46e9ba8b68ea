package urlutil

import (
	"net/url"
	"strconv"
	"strings"
)

// PagePlaceholder marks where the page number goes in a listing URL template.
const PagePlaceholder = "{page}"

// Resolve turns href into an absolute URL against base. Absolute hrefs are
// returned unchanged; empty, mailto: and javascript: hrefs resolve to "".
func Resolve(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") || strings.HasPrefix(lower, "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() && ref.Host != "" {
		return ref.String()
	}
	b, err := url.Parse(base)
	if err != nil || base == "" {
		return ref.String()
	}
	u := b.ResolveReference(ref)
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	return u.String()
}

// PageURL substitutes page into a listing URL template.
func PageURL(template string, page int) string {
	return strings.ReplaceAll(template, PagePlaceholder, strconv.Itoa(page))
}

// Host returns the lower-cased host of raw without a leading "www.".
func Host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return normalizeHost(u.Hostname())
}

func normalizeHost(host string) string {
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	return host
}
