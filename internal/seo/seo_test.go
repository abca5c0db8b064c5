package seo

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/fekuna/scistore-service/internal/category"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/pkg/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func newBuilder() *Builder {
	return NewBuilder("https://sciequip.com.bd/", "BDT", i18n.MustNew())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short text", Truncate("short  text", 160))
	assert.Equal(t, "a b c", Truncate("  a\n b\tc ", 160))

	long := strings.Repeat("microscope ", 30)
	out := Truncate(long, DescriptionLimit)
	assert.LessOrEqual(t, utf8.RuneCountInString(out), DescriptionLimit)
	assert.True(t, strings.HasSuffix(out, "microscope…"), out)

	bn := strings.Repeat("অণুবীক্ষণ যন্ত্র, ", 20)
	out = Truncate(bn, DescriptionLimit)
	assert.LessOrEqual(t, utf8.RuneCountInString(out), DescriptionLimit)
	assert.False(t, strings.Contains(out, ",…"), "trailing punctuation is dropped")

	unbroken := strings.Repeat("x", 200)
	assert.Equal(t, strings.Repeat("x", 159)+"…", Truncate(unbroken, DescriptionLimit))
}

func TestStaticMeta(t *testing.T) {
	b := newBuilder()

	m, ok := b.Static(RouteProducts, "en")
	require.True(t, ok)
	assert.Equal(t, "All Products | SciEquip Bangladesh", m.Title)
	assert.Equal(t, "https://sciequip.com.bd/products", m.Canonical)
	assert.Equal(t, "index, follow", m.Robots)
	assert.Equal(t, []Alternate{
		{HrefLang: "en", Href: "https://sciequip.com.bd/products"},
		{HrefLang: "bn", Href: "https://sciequip.com.bd/products?lang=bn"},
		{HrefLang: "x-default", Href: "https://sciequip.com.bd/products"},
	}, m.Alternates)

	m, ok = b.Static(RouteCart, "bn")
	require.True(t, ok)
	assert.Equal(t, "https://sciequip.com.bd/cart?lang=bn", m.Canonical)
	assert.Equal(t, "noindex, nofollow", m.Robots)
	assert.Equal(t, "bn_BD", m.OpenGraph.Locale)
	assert.NotEmpty(t, m.Description, "falls back to the site description")

	_, ok = b.Static("admin", "en")
	assert.False(t, ok)
}

func TestProductMeta(t *testing.T) {
	b := newBuilder()
	p := &model.Product{
		SKU:           "PH-200",
		Slug:          "ph-meter",
		NameEn:        "Digital pH Meter",
		NameBn:        "ডিজিটাল পিএইচ মিটার",
		DescriptionEn: ptr("Bench top pH meter with <b>auto</b> calibration."),
		Brand:         ptr("Hanna"),
		Price:         18500,
		Stock:         0,
		ImageURL:      ptr("https://cdn.example.com/ph.png"),
		MetaKeywords:  ptr("ph meter, lab"),
	}
	root := model.Category{Slug: "lab", NameEn: "Lab Equipment"}
	leaf := model.Category{Slug: "meters", NameEn: "Meters"}

	m := b.Product(p, []model.Category{leaf, root}, "en")
	assert.Equal(t, "Digital pH Meter | SciEquip Bangladesh", m.Title)
	assert.Equal(t, "product", m.OpenGraph.Type)
	assert.Equal(t, "ph meter, lab", m.Keywords)
	require.Len(t, m.JSONLD, 2)

	ld := m.JSONLD[0]
	assert.Equal(t, "Product", ld["@type"])
	offers := ld["offers"].(map[string]any)
	assert.Equal(t, "18500.00", offers["price"])
	assert.Equal(t, "BDT", offers["priceCurrency"])
	assert.Equal(t, "https://schema.org/OutOfStock", offers["availability"])

	crumbs := m.JSONLD[1]["itemListElement"].([]map[string]any)
	require.Len(t, crumbs, 4)
	assert.Equal(t, "Lab Equipment", crumbs[1]["name"])
	assert.Equal(t, "https://sciequip.com.bd/categories/meters", crumbs[2]["item"])
	assert.Equal(t, 4, crumbs[3]["position"])

	bn := b.Product(p, nil, "bn")
	assert.True(t, strings.HasPrefix(bn.Title, "ডিজিটাল পিএইচ মিটার | "))
	assert.Equal(t, "https://sciequip.com.bd/products/ph-meter?lang=bn", bn.Canonical)
	assert.Equal(t, p.NameBn, bn.JSONLD[0]["name"])
}

func TestRenderHeadEscapes(t *testing.T) {
	b := newBuilder()
	p := &model.Product{
		Slug:            "evil",
		NameEn:          `Beaker "500ml" </title><script>alert(1)</script>`,
		MetaDescription: ptr("Glass & plastic"),
		Price:           120,
		Stock:           4,
	}
	head, err := RenderHead(b.Product(p, nil, "en"))
	require.NoError(t, err)

	assert.NotContains(t, head, "<script>alert(1)</script>")
	assert.Contains(t, head, `<meta name="description" content="Glass &amp; plastic">`)
	assert.Contains(t, head, `<link rel="alternate" hreflang="bn" href="https://sciequip.com.bd/products/evil?lang=bn">`)
	assert.Contains(t, head, `<script type="application/ld+json">{"@context":"https://schema.org"`)
	assert.Equal(t, 2, strings.Count(head, "application/ld+json"))
	assert.Contains(t, head, `</script>`)
}

func TestSitemap(t *testing.T) {
	b := newBuilder()
	updated := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

	cats := []model.Category{
		{Slug: "lab", IsActive: true, Children: []model.Category{{Slug: "meters", IsActive: true}}},
		{Slug: "old", IsActive: false},
	}
	products := []model.Product{
		{Slug: "ph-meter", IsActive: true},
		{Slug: "hidden", IsActive: false},
	}
	products[0].UpdatedAt = updated

	flat := category.Flatten(cats)
	require.Len(t, flat, 3)
	assert.Nil(t, flat[0].Children)

	set := b.Sitemap(flat, products)
	require.Len(t, set.URLs, len(sitemapOrder)+3)
	assert.Equal(t, "https://sciequip.com.bd/", set.URLs[0].Loc)
	assert.Equal(t, "1.0", set.URLs[0].Priority)
	assert.Equal(t, "0.8", set.URLs[1].Priority)

	last := set.URLs[len(set.URLs)-1]
	assert.Equal(t, "https://sciequip.com.bd/products/ph-meter", last.Loc)
	assert.Equal(t, "2025-02-01", last.LastMod)
	assert.Equal(t, "0.6", last.Priority)

	out, err := set.Encode()
	require.NoError(t, err)
	body := string(out)
	assert.True(t, strings.HasPrefix(body, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, body, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:xhtml="http://www.w3.org/1999/xhtml">`)
	assert.Contains(t, body, `<xhtml:link rel="alternate" hreflang="bn" href="https://sciequip.com.bd/categories/meters?lang=bn"></xhtml:link>`)
	assert.NotContains(t, body, "hidden")
	assert.NotContains(t, body, "/categories/old")

	var decoded struct {
		URLs []struct {
			Loc string `xml:"loc"`
		} `xml:"url"`
	}
	require.NoError(t, xml.Unmarshal(out, &decoded))
	assert.Len(t, decoded.URLs, len(set.URLs))
}
