package seo

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/pkg/i18n"
)

const (
	sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"
	xhtmlNS   = "http://www.w3.org/1999/xhtml"
)

type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	XHTML   string   `xml:"xmlns:xhtml,attr"`
	URLs    []URL    `xml:"url"`
}

type URL struct {
	Loc        string      `xml:"loc"`
	LastMod    string      `xml:"lastmod,omitempty"`
	ChangeFreq string      `xml:"changefreq,omitempty"`
	Priority   string      `xml:"priority,omitempty"`
	Links      []XHTMLLink `xml:"xhtml:link"`
}

type XHTMLLink struct {
	Rel      string `xml:"rel,attr"`
	HrefLang string `xml:"hreflang,attr"`
	Href     string `xml:"href,attr"`
}

func (b *Builder) entry(path string, lastMod time.Time, changeFreq string, priority float64) URL {
	u := URL{
		Loc:        b.URL(path, i18n.English),
		ChangeFreq: changeFreq,
		Priority:   fmt.Sprintf("%.1f", priority),
	}
	if !lastMod.IsZero() {
		u.LastMod = lastMod.UTC().Format(time.DateOnly)
	}
	for _, a := range b.alternates(path) {
		u.Links = append(u.Links, XHTMLLink{Rel: "alternate", HrefLang: a.HrefLang, Href: a.Href})
	}
	return u
}

// Sitemap lists the public static pages, then active categories and
// active products. Inactive rows are skipped.
func (b *Builder) Sitemap(categories []model.Category, products []model.Product) *URLSet {
	set := &URLSet{XMLNS: sitemapNS, XHTML: xhtmlNS}
	for _, name := range sitemapOrder {
		r := staticRoutes[name]
		set.URLs = append(set.URLs, b.entry(r.path, time.Time{}, r.changeFreq, r.priority))
	}
	for _, c := range categories {
		if !c.IsActive || c.Slug == "" {
			continue
		}
		set.URLs = append(set.URLs, b.entry(CategoryPath(c.Slug), c.UpdatedAt, "weekly", 0.7))
	}
	for _, p := range products {
		if !p.IsActive || p.Slug == "" {
			continue
		}
		set.URLs = append(set.URLs, b.entry(ProductPath(p.Slug), p.UpdatedAt, "weekly", 0.6))
	}
	return set
}

// Encode renders the set with the XML declaration.
func (s *URLSet) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
