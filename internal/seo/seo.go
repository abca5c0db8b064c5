// Package seo builds per-route head metadata (title, description, canonical
// and language alternates, OpenGraph, JSON-LD) and the XML sitemap.
package seo

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/pkg/i18n"
)

const DescriptionLimit = 160

// Route names accepted by Meta.
const (
	RouteHome       = "home"
	RouteProducts   = "products"
	RouteCategories = "categories"
	RouteQuote      = "quote"
	RouteAbout      = "about"
	RouteContact    = "contact"
	RouteCart       = "cart"
	RouteCheckout   = "checkout"
	RouteWishlist   = "wishlist"
	RouteProduct    = "product"
	RouteCategory   = "category"
)

type staticRoute struct {
	path       string
	private    bool
	priority   float64
	changeFreq string
}

var staticRoutes = map[string]staticRoute{
	RouteHome:       {path: "/", priority: 1.0, changeFreq: "daily"},
	RouteProducts:   {path: "/products", priority: 0.8, changeFreq: "daily"},
	RouteCategories: {path: "/categories", priority: 0.8, changeFreq: "weekly"},
	RouteQuote:      {path: "/quote", priority: 0.5, changeFreq: "monthly"},
	RouteAbout:      {path: "/about", priority: 0.5, changeFreq: "monthly"},
	RouteContact:    {path: "/contact", priority: 0.5, changeFreq: "monthly"},
	RouteCart:       {path: "/cart", private: true},
	RouteCheckout:   {path: "/checkout", private: true},
	RouteWishlist:   {path: "/wishlist", private: true},
}

// sitemapOrder fixes the order static routes appear in the sitemap.
var sitemapOrder = []string{RouteHome, RouteProducts, RouteCategories, RouteQuote, RouteAbout, RouteContact}

func IsStatic(route string) bool {
	_, ok := staticRoutes[route]
	return ok
}

type Alternate struct {
	HrefLang string `json:"hreflang"`
	Href     string `json:"href"`
}

type OpenGraph struct {
	Type            string `json:"type"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	URL             string `json:"url"`
	Image           string `json:"image,omitempty"`
	SiteName        string `json:"site_name"`
	Locale          string `json:"locale"`
	LocaleAlternate string `json:"locale_alternate"`
}

type Meta struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Keywords    string           `json:"keywords,omitempty"`
	Canonical   string           `json:"canonical"`
	Robots      string           `json:"robots"`
	Language    string           `json:"language"`
	Alternates  []Alternate      `json:"alternates"`
	OpenGraph   OpenGraph        `json:"open_graph"`
	JSONLD      []map[string]any `json:"json_ld,omitempty"`
}

// Builder turns catalog rows into Meta for one site.
type Builder struct {
	BaseURL  string
	Currency string
	tr       *i18n.Translator
}

func NewBuilder(baseURL, currency string, tr *i18n.Translator) *Builder {
	return &Builder{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Currency: currency,
		tr:       tr,
	}
}

// URL is the absolute address of path; Bengali pages carry ?lang=bn.
func (b *Builder) URL(path, lang string) string {
	u := b.BaseURL + path
	if i18n.Normalize(lang) == i18n.Bengali {
		u += "?lang=bn"
	}
	return u
}

func (b *Builder) alternates(path string) []Alternate {
	return []Alternate{
		{HrefLang: i18n.English, Href: b.URL(path, i18n.English)},
		{HrefLang: i18n.Bengali, Href: b.URL(path, i18n.Bengali)},
		{HrefLang: "x-default", Href: b.URL(path, i18n.English)},
	}
}

func ogLocale(lang string) (string, string) {
	if lang == i18n.Bengali {
		return "bn_BD", "en_US"
	}
	return "en_US", "bn_BD"
}

func (b *Builder) siteName(lang string) string {
	return b.tr.T(lang, "seo.site_name", nil)
}

// translate returns "" when id has no message.
func (b *Builder) translate(lang, id string) string {
	if s := b.tr.T(lang, id, nil); s != id {
		return s
	}
	return ""
}

func (b *Builder) base(lang, path, title, description string) *Meta {
	lang = i18n.Normalize(lang)
	site := b.siteName(lang)
	full := site
	if title != "" && title != site {
		full = title + " | " + site
	}
	description = Truncate(description, DescriptionLimit)
	if description == "" {
		description = b.tr.T(lang, "seo.default.description", nil)
	}
	canonical := b.URL(path, lang)
	locale, alt := ogLocale(lang)
	return &Meta{
		Title:       full,
		Description: description,
		Canonical:   canonical,
		Robots:      "index, follow",
		Language:    lang,
		Alternates:  b.alternates(path),
		OpenGraph: OpenGraph{
			Type:            "website",
			Title:           full,
			Description:     description,
			URL:             canonical,
			SiteName:        site,
			Locale:          locale,
			LocaleAlternate: alt,
		},
	}
}

// Static builds Meta for a named page without an entity.
func (b *Builder) Static(route, lang string) (*Meta, bool) {
	r, ok := staticRoutes[route]
	if !ok {
		return nil, false
	}
	lang = i18n.Normalize(lang)
	m := b.base(lang, r.path, b.translate(lang, "seo."+route+".title"), b.translate(lang, "seo."+route+".description"))
	if r.private {
		m.Robots = "noindex, nofollow"
	}
	if route == RouteHome {
		m.JSONLD = append(m.JSONLD, map[string]any{
			"@context": "https://schema.org",
			"@type":    "Organization",
			"name":     m.OpenGraph.SiteName,
			"url":      b.BaseURL + "/",
		})
	}
	return m, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func ProductPath(slug string) string  { return "/products/" + slug }
func CategoryPath(slug string) string { return "/categories/" + slug }

// Product builds Meta for a product page. trail is the product's category
// followed by its ancestors, nearest first; it may be empty.
func (b *Builder) Product(p *model.Product, trail []model.Category, lang string) *Meta {
	lang = i18n.Normalize(lang)
	name := i18n.Pick(lang, p.NameEn, p.NameBn)
	desc := firstNonEmpty(deref(p.MetaDescription), i18n.Pick(lang, deref(p.DescriptionEn), deref(p.DescriptionBn)))

	path := ProductPath(p.Slug)
	m := b.base(lang, path, firstNonEmpty(deref(p.MetaTitle), name), desc)
	m.Keywords = deref(p.MetaKeywords)
	m.OpenGraph.Type = "product"
	m.OpenGraph.Image = deref(p.ImageURL)

	availability := "https://schema.org/OutOfStock"
	if p.InStock() {
		availability = "https://schema.org/InStock"
	}
	ld := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "Product",
		"name":        name,
		"sku":         p.SKU,
		"description": m.Description,
		"url":         m.Canonical,
		"offers": map[string]any{
			"@type":         "Offer",
			"url":           m.Canonical,
			"priceCurrency": b.Currency,
			"price":         fmt.Sprintf("%.2f", p.Price),
			"availability":  availability,
		},
	}
	if img := deref(p.ImageURL); img != "" {
		ld["image"] = img
	}
	if brand := deref(p.Brand); brand != "" {
		ld["brand"] = map[string]any{"@type": "Brand", "name": brand}
	}
	if mpn := deref(p.ModelNumber); mpn != "" {
		ld["mpn"] = mpn
	}
	m.JSONLD = append(m.JSONLD, ld, b.breadcrumbs(lang, trail, &crumb{name: name, path: path}))
	return m
}

// Category builds Meta for a category page; ancestors are nearest first.
func (b *Builder) Category(c *model.Category, ancestors []model.Category, lang string) *Meta {
	lang = i18n.Normalize(lang)
	name := i18n.Pick(lang, c.NameEn, c.NameBn)
	desc := firstNonEmpty(deref(c.MetaDescription), i18n.Pick(lang, deref(c.DescriptionEn), deref(c.DescriptionBn)))

	path := CategoryPath(c.Slug)
	m := b.base(lang, path, firstNonEmpty(deref(c.MetaTitle), name), desc)
	m.OpenGraph.Image = deref(c.ImageURL)
	m.JSONLD = append(m.JSONLD, b.breadcrumbs(lang, ancestors, &crumb{name: name, path: path}))
	return m
}

type crumb struct {
	name string
	path string
}

func (b *Builder) breadcrumbs(lang string, trail []model.Category, last *crumb) map[string]any {
	crumbs := []crumb{{name: b.translate(lang, "seo.home.title"), path: "/"}}
	if crumbs[0].name == "" {
		crumbs[0].name = b.siteName(lang)
	}
	for i := len(trail) - 1; i >= 0; i-- {
		c := trail[i]
		crumbs = append(crumbs, crumb{name: i18n.Pick(lang, c.NameEn, c.NameBn), path: CategoryPath(c.Slug)})
	}
	crumbs = append(crumbs, *last)

	items := make([]map[string]any, len(crumbs))
	for i, c := range crumbs {
		items[i] = map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     c.name,
			"item":     b.URL(c.path, lang),
		}
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": items,
	}
}

// Truncate collapses whitespace and shortens s to at most limit runes,
// cutting on a word boundary and ending with an ellipsis when it cuts.
func Truncate(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	// Leave room for the ellipsis.
	cut := limit - 1
	if !unicode.IsSpace(runes[cut]) {
		for i := cut - 1; i > 0; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
	}
	out := strings.TrimRightFunc(string(runes[:cut]), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	return out + "…"
}
