package server

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/site-cloner/internal/assets"
	"github.com/jonathan/site-cloner/internal/clone"
	"github.com/jonathan/site-cloner/internal/types"
	"github.com/jonathan/site-cloner/internal/urls"
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// mediaAttrs are the attributes rewritten to local asset paths.
var mediaAttrs = []struct {
	selector string
	attr     string
}{
	{"img[src]", "src"},
	{"source[src]", "src"},
	{"video[src]", "src"},
	{"video[poster]", "poster"},
	{"audio[src]", "src"},
}

// ValidSlug reports whether slug can name a site directory.
func ValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

// RenderPage builds the preview document for the site cloned under outDir/slug.
// Media that was downloaded is pointed at /{slug}/{localPath}; everything else
// keeps its original URL.
func RenderPage(outDir, slug, title string) (string, error) {
	if !ValidSlug(slug) {
		return "", &ErrSiteNotFound{Slug: slug}
	}
	siteDir := filepath.Join(outDir, slug)

	markup, err := os.ReadFile(filepath.Join(siteDir, filepath.FromSlash(clone.OriginalHTMLFile)))
	if errors.Is(err, os.ErrNotExist) {
		return "", &ErrSiteNotFound{Slug: slug}
	}
	if err != nil {
		return "", fmt.Errorf("failed to read captured markup: %w", err)
	}

	assetMap, err := assets.ReadMap(siteDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		"<!DOCTYPE html><html><head></head><body>" + string(markup) + "</body></html>"))
	if err != nil {
		return "", fmt.Errorf("failed to parse captured markup: %w", err)
	}

	if assetMap != nil {
		rewriteMedia(doc, slug, assetMap)
	}

	if title == "" {
		title = slug
	}
	head := doc.Find("head")
	head.AppendHtml(`<meta charset="utf-8"><title></title>`)
	head.Find("title").SetText(title)
	head.AppendHtml(fmt.Sprintf(`<link rel="stylesheet" href="/%s/%s">`, slug, clone.StylesFile))

	page, err := goquery.OuterHtml(doc.Find("html"))
	if err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}
	return "<!DOCTYPE html>\n" + page, nil
}

func rewriteMedia(doc *goquery.Document, slug string, m *types.AssetMap) {
	base := strings.TrimRight(m.BaseURL, "/") + "/"
	for _, a := range mediaAttrs {
		doc.Find(a.selector).Each(func(_ int, s *goquery.Selection) {
			v, _ := s.Attr(a.attr)
			rec, ok := m.Lookup(urls.Resolve(v, base))
			if !ok {
				return
			}
			s.SetAttr(a.attr, (&url.URL{Path: "/" + slug + "/" + rec.LocalPath}).EscapedPath())
		})
	}
}
