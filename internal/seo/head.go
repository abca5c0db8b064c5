package seo

import (
	"bytes"
	"encoding/json"
	"html/template"
)

var headTmpl = template.Must(template.New("head").Parse(`<title>{{.Title}}</title>
<meta name="description" content="{{.Description}}">
{{- if .Keywords}}
<meta name="keywords" content="{{.Keywords}}">
{{- end}}
<meta name="robots" content="{{.Robots}}">
<link rel="canonical" href="{{.Canonical}}">
{{- range .Alternates}}
<link rel="alternate" hreflang="{{.HrefLang}}" href="{{.Href}}">
{{- end}}
<meta property="og:type" content="{{.OpenGraph.Type}}">
<meta property="og:title" content="{{.OpenGraph.Title}}">
<meta property="og:description" content="{{.OpenGraph.Description}}">
<meta property="og:url" content="{{.OpenGraph.URL}}">
<meta property="og:site_name" content="{{.OpenGraph.SiteName}}">
<meta property="og:locale" content="{{.OpenGraph.Locale}}">
<meta property="og:locale:alternate" content="{{.OpenGraph.LocaleAlternate}}">
{{- if .OpenGraph.Image}}
<meta property="og:image" content="{{.OpenGraph.Image}}">
{{- end}}
{{- range .LD}}
<script type="application/ld+json">{{.}}</script>
{{- end}}
`))

// RenderHead renders m as escaped <head> elements.
func RenderHead(m *Meta) (string, error) {
	data := struct {
		*Meta
		LD []template.JS
	}{Meta: m}
	for _, ld := range m.JSONLD {
		// json.Marshal escapes <, > and &, so the payload cannot close the script element.
		raw, err := json.Marshal(ld)
		if err != nil {
			return "", err
		}
		data.LD = append(data.LD, template.JS(raw))
	}

	var buf bytes.Buffer
	if err := headTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
