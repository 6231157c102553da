// Package styles rewrites stylesheet references so offline copies keep working asset links.
package styles

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"regexp"
	"strings"

	"github.com/jonathan/site-cloner/internal/urls"
)

// Separator is placed between stylesheets in the combined output.
const Separator = "\n\n/* ---- */\n\n"

var (
	urlToken    = regexp.MustCompile(`url\(([^)]+)\)`)
	importToken = regexp.MustCompile(`@import\s+(['"][^'"]+['"])`)
)

// Fetcher retrieves a stylesheet body.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Rewrite resolves every url(...) and quoted @import reference in cssText against baseHref.
// Rewriting an already rewritten stylesheet yields the same text.
func Rewrite(cssText, baseHref string) string {
	cssText = urlToken.ReplaceAllStringFunc(cssText, func(match string) string {
		inner := urlToken.FindStringSubmatch(match)[1]
		return "url(" + urls.Resolve(inner, baseHref) + ")"
	})
	return importToken.ReplaceAllStringFunc(cssText, func(match string) string {
		ref := importToken.FindStringSubmatch(match)[1]
		return "@import " + jsonString(urls.Resolve(ref, baseHref))
	})
}

// Combine joins stylesheet bodies with the separator comment.
func Combine(parts []string) string {
	return strings.Join(parts, Separator)
}

// Result is the combined stylesheet text plus the sheets that could not be fetched.
type Result struct {
	CSS     string
	Skipped []string
}

// Collect fetches each external stylesheet, rewrites it against its own URL and appends
// the inline blocks verbatim. A stylesheet that fails to fetch is omitted.
func Collect(ctx context.Context, fetcher Fetcher, stylesheetURLs, inline []string, verbose bool) (*Result, error) {
	parts := make([]string, 0, len(stylesheetURLs)+len(inline))
	var skipped []string

	for _, href := range stylesheetURLs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, err := fetcher.Fetch(ctx, href)
		if err != nil {
			if verbose {
				log.Printf("[STYLES] Skipping stylesheet %s: %v", href, err)
			}
			skipped = append(skipped, href)
			continue
		}
		parts = append(parts, Rewrite(string(body), href))
	}
	parts = append(parts, inline...)

	return &Result{CSS: Combine(parts), Skipped: skipped}, nil
}

// jsonString quotes s as a JSON string literal without HTML escaping.
func jsonString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return `"` + s + `"`
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
