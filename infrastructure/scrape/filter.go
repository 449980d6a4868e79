package scrape

import (
	"net/url"
	"strings"
)

// DefaultExcludedHosts lists the search engine and social media hosts whose
// links are never treated as articles.
var DefaultExcludedHosts = []string{
	"google", "twitter", "youtube", "facebook", "instagram", "tiktok", "linkedin", "x.com",
}

// HostFilter rejects links whose host matches an excluded pattern.
//
// A pattern without a dot matches any label of the host ("google" matches
// www.google.co.uk). A dotted pattern matches the host itself or any
// subdomain of it ("x.com" matches mobile.x.com but not box.com).
type HostFilter struct {
	labels   map[string]struct{}
	suffixes []string
}

// NewHostFilter creates a filter. A nil list uses DefaultExcludedHosts.
func NewHostFilter(patterns []string) HostFilter {
	if patterns == nil {
		patterns = DefaultExcludedHosts
	}
	f := HostFilter{labels: map[string]struct{}{}}
	for _, p := range patterns {
		p = strings.Trim(strings.ToLower(strings.TrimSpace(p)), ".")
		if p == "" {
			continue
		}
		if strings.Contains(p, ".") {
			f.suffixes = append(f.suffixes, p)
			continue
		}
		f.labels[p] = struct{}{}
	}
	return f
}

// Allowed reports whether rawURL is an absolute http(s) URL on a host that
// is not excluded.
func (f HostFilter) Allowed(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	return !f.Excluded(host)
}

// Excluded reports whether host matches an excluded pattern.
func (f HostFilter) Excluded(host string) bool {
	host = strings.ToLower(host)
	for _, label := range strings.Split(host, ".") {
		if _, ok := f.labels[label]; ok {
			return true
		}
	}
	for _, s := range f.suffixes {
		if host == s || strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}
