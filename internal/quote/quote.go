// Package quote captures requests for quotation through a four step wizard.
package quote

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/google/uuid"
)

type Step string

const (
	StepContact      Step = "contact"
	StepInstitution  Step = "institution"
	StepRequirements Step = "requirements"
	StepReview       Step = "review"
)

// Steps is the wizard order.
var Steps = []Step{StepContact, StepInstitution, StepRequirements, StepReview}

const maxItems = 50

// Draft is what the wizard has collected so far.
type Draft struct {
	ContactName     string            `json:"contact_name"`
	Email           string            `json:"email"`
	Phone           string            `json:"phone"`
	Designation     string            `json:"designation"`
	Institution     string            `json:"institution"`
	InstitutionType string            `json:"institution_type"`
	Department      string            `json:"department"`
	City            string            `json:"city"`
	Items           []model.QuoteItem `json:"items"`
	Budget          string            `json:"budget"`
	RequiredBy      string            `json:"required_by"` // YYYY-MM-DD
	Notes           string            `json:"notes"`
}

func (d Draft) Normalize() Draft {
	out := Draft{
		ContactName:     strings.TrimSpace(d.ContactName),
		Email:           strings.TrimSpace(d.Email),
		Phone:           apperr.NormalizePhone(d.Phone),
		Designation:     strings.TrimSpace(d.Designation),
		Institution:     strings.TrimSpace(d.Institution),
		InstitutionType: strings.ToLower(strings.TrimSpace(d.InstitutionType)),
		Department:      strings.TrimSpace(d.Department),
		City:            strings.TrimSpace(d.City),
		Budget:          strings.TrimSpace(d.Budget),
		RequiredBy:      strings.TrimSpace(d.RequiredBy),
		Notes:           strings.TrimSpace(d.Notes),
	}
	out.Items = make([]model.QuoteItem, len(d.Items))
	for i, it := range d.Items {
		it.Name = strings.TrimSpace(it.Name)
		it.Notes = strings.TrimSpace(it.Notes)
		if it.ProductID != nil && strings.TrimSpace(*it.ProductID) == "" {
			it.ProductID = nil
		}
		out.Items[i] = it
	}
	return out
}

func (d Draft) validateContact(v *apperr.Validator) {
	v.Required("contact_name", d.ContactName)
	v.MaxLen("contact_name", d.ContactName, 120)
	v.Email("email", d.Email)
	v.Phone("phone", d.Phone)
	v.MaxLen("designation", d.Designation, 120)
}

func (d Draft) validateInstitution(v *apperr.Validator) {
	v.Required("institution", d.Institution)
	v.MaxLen("institution", d.Institution, 200)
	v.OneOf("institution_type", d.InstitutionType, model.InstitutionTypes...)
	v.MaxLen("department", d.Department, 200)
}

func (d Draft) validateRequirements(v *apperr.Validator, today time.Time) {
	switch {
	case len(d.Items) == 0:
		v.Add("items", "quote.items_required")
	case len(d.Items) > maxItems:
		v.Add("items", "quote.too_many_items")
	}
	for i, it := range d.Items {
		prefix := "items." + strconv.Itoa(i)
		v.Required(prefix+".name", it.Name)
		v.MaxLen(prefix+".name", it.Name, 200)
		v.Check(it.Quantity >= 1, prefix+".quantity", "validation.min_quantity")
	}
	if d.RequiredBy != "" {
		due, err := time.Parse(time.DateOnly, d.RequiredBy)
		if err != nil {
			v.Add("required_by", "validation.date")
		} else {
			y, m, day := today.Date()
			v.Check(!due.Before(time.Date(y, m, day, 0, 0, 0, 0, time.UTC)), "required_by", "validation.past_date")
		}
	}
	v.MaxLen("notes", d.Notes, 2000)
}

// ValidateStep checks the fields a step owns. Review checks every step.
func ValidateStep(step Step, d Draft, today time.Time) error {
	v := apperr.NewValidator()
	switch step {
	case StepContact:
		d.validateContact(v)
	case StepInstitution:
		d.validateInstitution(v)
	case StepRequirements:
		d.validateRequirements(v, today)
	case StepReview:
		d.validateContact(v)
		d.validateInstitution(v)
		d.validateRequirements(v, today)
	default:
		return apperr.Invalid("quote.invalid_step")
	}
	return v.Err()
}

// ReferenceNumber formats RFQ-YYYYMMDD-XXXX with four uppercase hex digits.
func ReferenceNumber(now time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("RFQ-%s-%X", now.Format("20060102"), id[:2])
}

// RequiredByDate parses an already validated required_by value.
func (d Draft) RequiredByDate() *time.Time {
	if d.RequiredBy == "" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, d.RequiredBy)
	if err != nil {
		return nil
	}
	return &t
}

var transitions = map[model.QuoteStatus][]model.QuoteStatus{
	model.QuoteNew:       {model.QuoteReviewing, model.QuoteClosed},
	model.QuoteReviewing: {model.QuoteQuoted, model.QuoteClosed},
	model.QuoteQuoted:    {model.QuoteClosed},
}

func validStatus(s model.QuoteStatus) bool {
	switch s {
	case model.QuoteNew, model.QuoteReviewing, model.QuoteQuoted, model.QuoteClosed:
		return true
	}
	return false
}

// CheckTransition allows new -> reviewing -> quoted -> closed and closing
// from any open status.
func CheckTransition(from, to model.QuoteStatus) error {
	if !validStatus(to) {
		v := apperr.NewValidator()
		v.Add("status", "validation.enum")
		return v.Err()
	}
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return apperr.Precondition("quote.invalid_transition").
		WithData(map[string]any{"From": string(from), "To": string(to)})
}
