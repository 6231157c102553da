package clone

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/site-cloner/internal/types"
	"github.com/jonathan/site-cloner/internal/urls"
)

// assetAttrs lists the elements and attributes that reference page assets.
var assetAttrs = []struct {
	selector string
	attr     string
}{
	{"img[src]", "src"},
	{"source[src]", "src"},
	{"video[src]", "src"},
	{"video[poster]", "poster"},
	{"audio[src]", "src"},
	{`link[rel="icon"][href]`, "href"},
}

// Extract builds a PageSnapshot from serialized document HTML. References are
// resolved against pageURL (or the document's <base href>); anchors and assets
// are restricted to the hostname of origin.
func Extract(html, pageURL, origin string) (*types.PageSnapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	base := pageURL
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		base = urls.Resolve(href, pageURL)
	}

	body, err := doc.Find("body").First().Html()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize body: %w", err)
	}

	snap := &types.PageSnapshot{
		URL:          pageURL,
		Title:        strings.TrimSpace(doc.Find("title").First().Text()),
		BodyMarkup:   body,
		Stylesheets:  []string{},
		InlineStyles: []string{},
		Anchors:      []string{},
		Assets:       []string{},
	}

	doc.Find(`link[rel="stylesheet"][href]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.TrimSpace(href) == "" {
			return
		}
		snap.Stylesheets = append(snap.Stylesheets, urls.Resolve(href, base))
	})

	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		snap.InlineStyles = append(snap.InlineStyles, s.Text())
	})

	seenAnchors := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs := urls.Resolve(href, base)
		if !urls.IsSameOrigin(abs, origin) {
			return
		}
		p, ok := urls.PathOf(abs, base)
		if !ok || p == "" || seenAnchors[p] {
			return
		}
		seenAnchors[p] = true
		snap.Anchors = append(snap.Anchors, p)
	})

	seenAssets := map[string]bool{}
	for _, a := range assetAttrs {
		doc.Find(a.selector).Each(func(_ int, s *goquery.Selection) {
			v, _ := s.Attr(a.attr)
			if strings.TrimSpace(v) == "" {
				return
			}
			abs := urls.Resolve(v, base)
			if !urls.IsSameOrigin(abs, origin) || seenAssets[abs] {
				return
			}
			seenAssets[abs] = true
			snap.Assets = append(snap.Assets, abs)
		})
	}

	return snap, nil
}
