package fingerprint

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/site-cloner/internal/types"
	"github.com/jonathan/site-cloner/internal/urls"
)

var ctaPattern = regexp.MustCompile(`(?i)demo|pricing|sign in|get a demo|view pricing`)

// FromHTML computes a fingerprint from markup alone, without a layout engine.
// Every bounding box is zero and visibility is not filtered, so geometry
// comparisons against a rendered fingerprint are meaningless.
func FromHTML(html, pageURL string) (*types.StructuralFingerprint, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	count := func(sel string) int { return doc.Find(sel).Length() }
	exists := func(sel string) bool { return doc.Find(sel).Length() > 0 }
	hero := doc.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		return strings.Contains(strings.ToLower(class), "hero")
	})

	navLinks := nonEmptyTexts(doc.Find(".w-nav a, nav a"))
	buttons := nonEmptyTexts(doc.Find(`button, a[role="button"], .button`))

	fp := &types.StructuralFingerprint{
		URL:   pageURL,
		Title: doc.Find("title").First().Text(),
		Landmarks: map[string]bool{
			types.LandmarkHeader:     exists("header, .w-nav, nav"),
			types.LandmarkFooter:     exists("footer"),
			types.LandmarkHeroLikely: hero.Length() > 0,
		},
		Counts: map[string]int{
			types.CountH1:        count("h1"),
			types.CountH2:        count("h2"),
			types.CountH3:        count("h3"),
			types.CountLinks:     count("a[href]"),
			types.CountImages:    count("img"),
			types.CountVideos:    count("video"),
			types.CountSections:  count("section"),
			types.CountButtons:   len(buttons),
			types.CountNavLinks:  len(navLinks),
			types.CountNavbars:   count(".w-nav, nav"),
			types.CountDropdowns: count(".w-dropdown"),
		},
		KeyTexts: map[string]*string{
			types.KeyTextH1:         firstText(doc.Find("h1")),
			types.KeyTextPrimaryCTA: firstMatching(buttons),
			types.KeyTextNavFirst:   first(navLinks),
		},
		Components: map[string]bool{
			types.ComponentWNav:            exists(".w-nav, .navbar_link, .navbar_menu"),
			types.ComponentNavbarLinkClass: exists(".navbar_link"),
			types.ComponentWebflowScripts:  webflowScripts(doc),
		},
		Boxes: map[string]*types.BBox{
			types.BoxHeader: zeroBoxIf(exists("header, .w-nav, nav")),
			types.BoxHero:   zeroBoxIf(hero.Length() > 0),
			types.BoxFooter: zeroBoxIf(exists("footer")),
		},
	}

	doc.Find(`a[href], button, [role="button"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		fp.Interactive = append(fp.Interactive, types.InteractiveElement{
			Tag:  goquery.NodeName(s),
			Text: s.Text(),
			Href: hrefPath(s, pageURL),
		})
		return len(fp.Interactive) < types.MaxInteractive
	})

	doc.Find("section").EachWithBreak(func(i int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		fp.SectionBoxes = append(fp.SectionBoxes, types.SectionBox{Index: i, ClassName: class})
		return len(fp.SectionBoxes) < types.MaxSectionBoxes
	})

	doc.Find("header, main, section, footer").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		fp.Sections = append(fp.Sections, types.Section{Tag: goquery.NodeName(s), ClassName: class})
		return len(fp.Sections) < types.MaxSections
	})

	Normalize(fp)
	if err := fp.Validate(); err != nil {
		return nil, &ShapeError{Message: "constraint check failed", Cause: err}
	}
	return fp, nil
}

func nonEmptyTexts(sel *goquery.Selection) []string {
	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if t := normText(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

func firstText(sel *goquery.Selection) *string {
	if sel.Length() == 0 {
		return nil
	}
	t := clip(sel.First().Text(), types.MaxTextLength)
	return &t
}

func firstMatching(texts []string) *string {
	for _, t := range texts {
		if ctaPattern.MatchString(t) {
			v := truncate(t, types.MaxTextLength)
			return &v
		}
	}
	return nil
}

func first(texts []string) *string {
	if len(texts) == 0 {
		return nil
	}
	v := truncate(texts[0], types.MaxTextLength)
	return &v
}

func webflowScripts(doc *goquery.Document) bool {
	found := false
	doc.Find("script[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		found = strings.Contains(src, "webflow")
		return !found
	})
	return found
}

func hrefPath(s *goquery.Selection, pageURL string) *string {
	href, ok := s.Attr("href")
	if !ok || href == "" {
		return nil
	}
	p, ok := urls.PathOf(href, pageURL)
	if !ok {
		return nil
	}
	return &p
}

func zeroBoxIf(present bool) *types.BBox {
	if !present {
		return nil
	}
	return &types.BBox{}
}
