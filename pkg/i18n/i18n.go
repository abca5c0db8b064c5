package i18n

import (
	"embed"
	"encoding/json"
	"strings"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

const (
	English = "en"
	Bengali = "bn"
)

//go:embed locales/*.json
var localeFS embed.FS

var supported = []language.Tag{language.English, language.Bengali}

type Translator struct {
	bundle  *goi18n.Bundle
	matcher language.Matcher
}

// New loads the embedded English and Bengali catalogs.
func New() (*Translator, error) {
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, f := range []string{"locales/active.en.json", "locales/active.bn.json"} {
		if _, err := bundle.LoadMessageFileFS(localeFS, f); err != nil {
			return nil, err
		}
	}
	return &Translator{bundle: bundle, matcher: language.NewMatcher(supported)}, nil
}

// MustNew is New for package init and tests.
func MustNew() *Translator {
	t, err := New()
	if err != nil {
		panic(err)
	}
	return t
}

// T localizes id. Unknown ids render as the id itself so a missing
// translation never turns into a blank toast.
func (t *Translator) T(lang, id string, data map[string]any) string {
	loc := goi18n.NewLocalizer(t.bundle, Normalize(lang), English)
	msg, err := loc.Localize(&goi18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil || msg == "" {
		return id
	}
	return msg
}

// Negotiate picks en or bn. An explicit ?lang= value wins over Accept-Language.
func (t *Translator) Negotiate(explicit, acceptLanguage string) string {
	if l := strings.ToLower(strings.TrimSpace(explicit)); l == English || l == Bengali {
		return l
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return English
	}
	_, idx, conf := t.matcher.Match(tags...)
	if conf == language.No {
		return English
	}
	if supported[idx] == language.Bengali {
		return Bengali
	}
	return English
}

// Normalize maps anything that is not bn to en.
func Normalize(lang string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(lang)), Bengali) {
		return Bengali
	}
	return English
}

// Pick returns the Bengali text when lang is bn and bn is non-empty, else the English text.
func Pick(lang, en, bn string) string {
	if Normalize(lang) == Bengali && strings.TrimSpace(bn) != "" {
		return bn
	}
	return en
}
