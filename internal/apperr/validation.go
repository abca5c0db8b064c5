package apperr

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"google.golang.org/grpc/codes"
)

var (
	slugRe   = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	bdMobile = regexp.MustCompile(`^(?:\+?880|0)1[3-9]\d{8}$`)
)

// Validator collects field errors; the first error per field wins.
type Validator struct {
	fields map[string]string
}

func NewValidator() *Validator {
	return &Validator{fields: map[string]string{}}
}

func (v *Validator) Add(field, messageID string) {
	if _, ok := v.fields[field]; !ok {
		v.fields[field] = messageID
	}
}

func (v *Validator) Check(ok bool, field, messageID string) {
	if !ok {
		v.Add(field, messageID)
	}
}

func (v *Validator) Required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "validation.required")
		return false
	}
	return true
}

func (v *Validator) Email(field, value string) {
	if !v.Required(field, value) {
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != strings.TrimSpace(value) || !strings.Contains(addr.Address, ".") {
		v.Add(field, "validation.email")
	}
}

func (v *Validator) Phone(field, value string) {
	if !v.Required(field, value) {
		return
	}
	if !bdMobile.MatchString(NormalizePhone(value)) {
		v.Add(field, "validation.phone")
	}
}

func (v *Validator) Slug(field, value string) {
	if !v.Required(field, value) {
		return
	}
	if !slugRe.MatchString(value) {
		v.Add(field, "validation.slug")
	}
}

func (v *Validator) MaxLen(field, value string, n int) {
	if utf8.RuneCountInString(value) > n {
		v.Add(field, "validation.too_long")
	}
}

func (v *Validator) OneOf(field, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.Add(field, "validation.enum")
}

func (v *Validator) Fields() map[string]string { return v.fields }

func (v *Validator) Valid() bool { return len(v.fields) == 0 }

// Err returns nil when no field failed.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return &Error{Code: codes.InvalidArgument, MessageID: "validation.failed", Fields: v.fields}
}

// NormalizePhone strips spaces and dashes.
func NormalizePhone(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(s))
}

func IsSlug(s string) bool { return slugRe.MatchString(s) }
