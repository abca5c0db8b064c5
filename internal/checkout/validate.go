package checkout

import (
	"regexp"
	"strings"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/model"
)

var postalCode = regexp.MustCompile(`^\d{4}$`)

// Normalize trims every field and canonicalizes the phone number.
func (sh Shipping) Normalize() Shipping {
	return Shipping{
		FullName:    strings.TrimSpace(sh.FullName),
		Email:       strings.TrimSpace(sh.Email),
		Phone:       apperr.NormalizePhone(sh.Phone),
		Institution: strings.TrimSpace(sh.Institution),
		Address:     strings.TrimSpace(sh.Address),
		City:        strings.TrimSpace(sh.City),
		PostalCode:  strings.TrimSpace(sh.PostalCode),
		Notes:       strings.TrimSpace(sh.Notes),
	}
}

// ValidateDetails checks the details step. Purchase orders need an institution.
func ValidateDetails(sh Shipping, pm model.PaymentMethod) error {
	v := apperr.NewValidator()
	v.Required("full_name", sh.FullName)
	v.MaxLen("full_name", sh.FullName, 120)
	v.Phone("phone", sh.Phone)
	v.Email("email", sh.Email)
	v.Required("address", sh.Address)
	v.MaxLen("address", sh.Address, 500)
	v.Required("city", sh.City)
	if sh.PostalCode != "" {
		v.Check(postalCode.MatchString(sh.PostalCode), "postal_code", "validation.postal_code")
	}
	v.MaxLen("notes", sh.Notes, 1000)
	if !pm.Valid() {
		v.Add("payment_method", "validation.enum")
	}
	if pm == model.PaymentPurchaseOrder && sh.Institution == "" {
		v.Add("institution", "checkout.institution_required")
	}
	return v.Err()
}
