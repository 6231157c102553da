package types

// Site identifies the page being cloned.
type Site struct {
	Origin string `json:"origin"`
	Slug   string `json:"slug"`
}

// PageSnapshot is the raw material extracted from a rendered page.
// Anchors and Assets are same-origin only, de-duplicated, in first-seen order.
type PageSnapshot struct {
	URL          string   `json:"url"`
	Title        string   `json:"title"`
	BodyMarkup   string   `json:"bodyMarkup"`
	Stylesheets  []string `json:"stylesheets"`
	InlineStyles []string `json:"inlineStyles"`
	Anchors      []string `json:"anchors"`
	Assets       []string `json:"assets"`
}

// AssetRecord maps one downloaded same-origin asset to its local representation.
type AssetRecord struct {
	OriginalURL string `json:"url"`
	LocalPath   string `json:"localPath"`
	Identifier  string `json:"identifier"`
}

// AssetSkip records an asset that was not materialized and why.
type AssetSkip struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// AssetMap is the persisted URL -> identifier mapping consumed by the rendering layer.
type AssetMap struct {
	BaseURL string        `json:"baseUrl"`
	Assets  []AssetRecord `json:"assets"`
}

// Lookup returns the record for an absolute URL.
func (m *AssetMap) Lookup(absURL string) (AssetRecord, bool) {
	if m == nil {
		return AssetRecord{}, false
	}
	for _, rec := range m.Assets {
		if rec.OriginalURL == absURL {
			return rec, true
		}
	}
	return AssetRecord{}, false
}

// CaptureReport is the summary written to compare/report.json.
type CaptureReport struct {
	Title                 string   `json:"title"`
	BaseURL               string   `json:"baseUrl"`
	When                  string   `json:"when"`
	Anchors               []string `json:"anchors"`
	SameOriginAssetsCount int      `json:"sameOriginAssetsCount"`
	SampleAssets          []string `json:"sampleAssets"`
}

// RunSummary is written to clone-run.json at the end of a run.
type RunSummary struct {
	RunID              string  `json:"runId"`
	URL                string  `json:"url"`
	Slug               string  `json:"slug"`
	When               string  `json:"when"`
	CloneMs            int64   `json:"cloneMs"`
	CloneSeconds       float64 `json:"cloneSeconds"`
	Compared           bool    `json:"compared"`
	AlsoLocal          bool    `json:"alsoLocal"`
	BlockAnalytics     bool    `json:"blockAnalytics"`
	AssetsDownloaded   int     `json:"assetsDownloaded"`
	AssetsSkipped      int     `json:"assetsSkipped"`
	StylesheetsSkipped int     `json:"stylesheetsSkipped"`
}

// PageEntry is one discovered page in the manifest.
type PageEntry struct {
	Path   string `json:"path"`
	Cloned bool   `json:"cloned"`
}

// Manifest lists the landing route and the pages discovered from its anchors.
type Manifest struct {
	BaseURL     string      `json:"baseUrl"`
	LandingPath string      `json:"landingPath"`
	Pages       []PageEntry `json:"pages"`
}

// RegistryEntry is one cloned site in the registry.
type RegistryEntry struct {
	Slug    string `json:"slug"`
	BaseURL string `json:"baseUrl"`
	Title   string `json:"title"`
}

// Upsert replaces the entry with the same slug or appends it.
func Upsert(entries []RegistryEntry, entry RegistryEntry) []RegistryEntry {
	for i := range entries {
		if entries[i].Slug == entry.Slug {
			entries[i] = entry
			return entries
		}
	}
	return append(entries, entry)
}
