// Package urls normalizes page and asset URLs against a base origin.
package urls

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/jonathan/site-cloner/internal/types"
)

var (
	slugUnsafe  = regexp.MustCompile(`[^a-zA-Z0-9]`)
	slugRepeats = regexp.MustCompile(`-+`)
)

// Resolve turns a raw reference into an absolute URL against baseHref.
// Surrounding quotes are stripped and data:/blob: URIs are returned as-is.
// A reference that cannot be resolved is returned unchanged.
func Resolve(raw, baseHref string) string {
	t := stripQuotes(strings.TrimSpace(raw))
	if IsInline(t) {
		return t
	}

	base, err := url.Parse(strings.TrimSpace(baseHref))
	if err != nil || !base.IsAbs() {
		return raw
	}
	ref, err := url.Parse(t)
	if err != nil {
		return raw
	}
	// String drops an empty fragment or query, so clean absolute URLs are kept verbatim.
	if ref.IsAbs() && !hasDotSegments(ref.EscapedPath()) {
		return t
	}
	return base.ResolveReference(ref).String()
}

func hasDotSegments(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == "." || seg == ".." {
			return true
		}
	}
	return false
}

// IsInline reports whether the reference is a data: or blob: URI.
func IsInline(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "blob:")
}

// IsSameOrigin reports whether rawURL shares the hostname of referenceOrigin.
// The reference may be a full URL or a bare hostname.
func IsSameOrigin(rawURL, referenceOrigin string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return false
	}
	return strings.EqualFold(u.Hostname(), hostOf(referenceOrigin))
}

// ToPathNoFragment drops everything from the first '#'.
func ToPathNoFragment(rawURL string) string {
	if i := strings.Index(rawURL, "#"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// PathOf resolves ref against base and returns its escaped path without fragment.
// An empty path is reported as "/".
func PathOf(ref, base string) (string, bool) {
	b, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", false
	}
	p := ToPathNoFragment(b.ResolveReference(r).EscapedPath())
	if p == "" {
		p = "/"
	}
	return p, true
}

// Origin returns scheme://host for an absolute URL.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %s (must have scheme and host)", ErrInvalidURL, rawURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// Slug derives a filesystem-safe identifier from the URL's hostname.
func Slug(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: %s has no hostname", ErrInvalidURL, rawURL)
	}
	return slugRepeats.ReplaceAllString(slugUnsafe.ReplaceAllString(u.Hostname(), "-"), "-"), nil
}

// NewSite builds the Site for a source URL.
func NewSite(rawURL string) (types.Site, error) {
	origin, err := Origin(rawURL)
	if err != nil {
		return types.Site{}, err
	}
	slug, err := Slug(rawURL)
	if err != nil {
		return types.Site{}, err
	}
	return types.Site{Origin: origin, Slug: slug}, nil
}

// HasWebScheme reports whether the argument starts with http:// or https://.
func HasWebScheme(arg string) bool {
	lower := strings.ToLower(arg)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func stripQuotes(s string) string {
	if s != "" && (s[0] == '\'' || s[0] == '"') {
		s = s[1:]
	}
	if s != "" && (s[len(s)-1] == '\'' || s[len(s)-1] == '"') {
		s = s[:len(s)-1]
	}
	return s
}

func hostOf(reference string) string {
	if u, err := url.Parse(reference); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return reference
}
