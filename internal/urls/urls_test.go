package urls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Relative(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		base string
		want string
	}{
		{"sibling file", "x/y.css", "https://ex.com/a/", "https://ex.com/a/x/y.css"},
		{"parent dir", "../img/logo.png", "https://ex.com/css/site.css", "https://ex.com/img/logo.png"},
		{"root relative", "/fonts/a.woff2", "https://ex.com/css/site.css", "https://ex.com/fonts/a.woff2"},
		{"single quoted", "'bg.png'", "https://ex.com/a/", "https://ex.com/a/bg.png"},
		{"double quoted with spaces", `  "bg.png" `, "https://ex.com/a/", "https://ex.com/a/bg.png"},
		{"protocol relative", "//cdn.ex.com/x.js", "https://ex.com/", "https://cdn.ex.com/x.js"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.raw, tt.base))
		})
	}
}

func TestResolve_AbsoluteIsIdempotent(t *testing.T) {
	absolute := []string{
		"https://ex.com/a/b.png",
		"http://other.org/x/y.css?v=2",
		"https://ex.com/",
		"https://ex.com/#",
		"https://ex.com/a?#",
		"https://ex.com/a?",
	}
	bases := []string{"https://ex.com/", "https://elsewhere.net/deep/path/", "http://localhost:5173/x"}

	for _, u := range absolute {
		for _, b := range bases {
			assert.Equal(t, u, Resolve(u, b), "resolve(%q, %q)", u, b)
		}
	}
}

func TestResolve_AbsoluteDotSegmentsAreCleaned(t *testing.T) {
	assert.Equal(t, "https://ex.com/b.css", Resolve("https://ex.com/a/../b.css", "https://other.net/"))
	assert.Equal(t, "https://ex.com/a/b.css", Resolve(`"https://ex.com/a/./b.css"`, "https://other.net/"))
}

func TestResolve_InlineURIsUnchanged(t *testing.T) {
	inline := []string{
		"data:image/png;base64,iVBORw0KGgo=",
		"DATA:image/svg+xml;utf8,<svg></svg>",
		"blob:https://ex.com/550e8400-e29b-41d4-a716-446655440000",
	}
	for _, d := range inline {
		assert.Equal(t, d, Resolve(d, "https://ex.com/a/"))
		assert.Equal(t, d, Resolve(d, "not a base"))
	}
}

func TestResolve_MalformedPassesThrough(t *testing.T) {
	assert.Equal(t, "%zz", Resolve("%zz", "https://ex.com/"))
	assert.Equal(t, "img.png", Resolve("img.png", "relative/base"))
	assert.Equal(t, " 'a.png' ", Resolve(" 'a.png' ", "::::"))
}

func TestIsSameOrigin(t *testing.T) {
	assert.True(t, IsSameOrigin("https://ex.com/a.png", "https://ex.com"))
	assert.True(t, IsSameOrigin("http://EX.com:8080/a.png", "https://ex.com/page"))
	assert.True(t, IsSameOrigin("https://ex.com/a.png", "ex.com"))
	assert.False(t, IsSameOrigin("https://cdn.ex.com/a.png", "https://ex.com"))
	assert.False(t, IsSameOrigin("/relative.png", "https://ex.com"))
	assert.False(t, IsSameOrigin("%zz", "https://ex.com"))
}

func TestToPathNoFragment(t *testing.T) {
	assert.Equal(t, "/pricing", ToPathNoFragment("/pricing#plans"))
	assert.Equal(t, "/pricing", ToPathNoFragment("/pricing"))
	assert.Equal(t, "", ToPathNoFragment("#top"))
}

func TestPathOf(t *testing.T) {
	p, ok := PathOf("/pricing#plans", "https://ex.com/a/b")
	require.True(t, ok)
	assert.Equal(t, "/pricing", p)

	p, ok = PathOf("contact", "https://ex.com/a/b")
	require.True(t, ok)
	assert.Equal(t, "/a/contact", p)

	p, ok = PathOf("https://ex.com", "https://ex.com/a")
	require.True(t, ok)
	assert.Equal(t, "/", p)

	_, ok = PathOf("%zz", "https://ex.com/")
	assert.False(t, ok)
}

func TestSlug(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.legendsofbasketball.com/", "www-legendsofbasketball-com"},
		{"http://localhost:5173/x", "localhost"},
		{"https://my--site.example.co.uk", "my-site-example-co-uk"},
	}
	for _, tt := range tests {
		got, err := Slug(tt.url)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := Slug("not-a-url")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestNewSite(t *testing.T) {
	site, err := NewSite("https://www.ex.com/landing?x=1")
	require.NoError(t, err)
	assert.Equal(t, "https://www.ex.com", site.Origin)
	assert.Equal(t, "www-ex-com", site.Slug)

	_, err = NewSite("/just/a/path")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestHasWebScheme(t *testing.T) {
	assert.True(t, HasWebScheme("https://ex.com"))
	assert.True(t, HasWebScheme("HTTP://ex.com"))
	assert.False(t, HasWebScheme("ftp://ex.com"))
	assert.False(t, HasWebScheme("ex.com"))
}
