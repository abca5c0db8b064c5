package quote

import (
	"testing"
	"time"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

var today = time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)

func validDraft() Draft {
	return Draft{
		ContactName:     "Dr. Farhana Islam",
		Email:           "farhana@du.ac.bd",
		Phone:           "01711 223344",
		Institution:     "University of Dhaka",
		InstitutionType: "University",
		Department:      "Biochemistry",
		Items: []model.QuoteItem{
			{Name: " PCR thermal cycler ", Quantity: 1},
			{Name: "Micropipette set", Quantity: 10, Notes: "10-100 µl"},
		},
		RequiredBy: "2025-06-10",
	}.Normalize()
}

func fields(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, codes.InvalidArgument, apperr.CodeOf(err))
	return apperr.From(err).Fields
}

func TestValidateStepValidDraft(t *testing.T) {
	d := validDraft()
	assert.Equal(t, "01711223344", d.Phone)
	assert.Equal(t, "university", d.InstitutionType)
	assert.Equal(t, "PCR thermal cycler", d.Items[0].Name)
	for _, step := range Steps {
		assert.NoError(t, ValidateStep(step, d, today), step)
	}
}

func TestValidateStepOnlyChecksItsOwnFields(t *testing.T) {
	d := Draft{ContactName: "A", Email: "a@b.co", Phone: "01811000000"}

	require.NoError(t, ValidateStep(StepContact, d, today))

	f := fields(t, ValidateStep(StepInstitution, d, today))
	assert.Equal(t, map[string]string{
		"institution":      "validation.required",
		"institution_type": "validation.enum",
	}, f)

	f = fields(t, ValidateStep(StepRequirements, d, today))
	assert.Equal(t, map[string]string{"items": "quote.items_required"}, f)

	f = fields(t, ValidateStep(StepReview, d, today))
	assert.Len(t, f, 3)
}

func TestValidateRequirements(t *testing.T) {
	d := validDraft()
	d.Items = []model.QuoteItem{{Name: "", Quantity: 0}, {Name: "Autoclave", Quantity: 2}}
	d.RequiredBy = "2025-06-09"
	f := fields(t, ValidateStep(StepRequirements, d, today))
	assert.Equal(t, map[string]string{
		"items.0.name":     "validation.required",
		"items.0.quantity": "validation.min_quantity",
		"required_by":      "validation.past_date",
	}, f)

	d = validDraft()
	d.RequiredBy = "10/06/2025"
	f = fields(t, ValidateStep(StepRequirements, d, today))
	assert.Equal(t, "validation.date", f["required_by"])

	d = validDraft()
	d.Items = make([]model.QuoteItem, maxItems+1)
	for i := range d.Items {
		d.Items[i] = model.QuoteItem{Name: "Beaker", Quantity: 1}
	}
	f = fields(t, ValidateStep(StepRequirements, d, today))
	assert.Equal(t, "quote.too_many_items", f["items"])
}

func TestValidateContact(t *testing.T) {
	d := validDraft()
	d.Email = "farhana"
	d.Phone = "+1 555 0100"
	f := fields(t, ValidateStep(StepContact, d, today))
	assert.Equal(t, "validation.email", f["email"])
	assert.Equal(t, "validation.phone", f["phone"])
}

func TestUnknownStep(t *testing.T) {
	err := ValidateStep("payment", validDraft(), today)
	assert.Equal(t, "quote.invalid_step", apperr.From(err).MessageID)
}

func TestReferenceNumber(t *testing.T) {
	assert.Regexp(t, `^RFQ-20250610-[0-9A-F]{4}$`, ReferenceNumber(today))
}

func TestRequiredByDate(t *testing.T) {
	d := validDraft()
	require.NotNil(t, d.RequiredByDate())
	assert.Equal(t, 10, d.RequiredByDate().Day())
	d.RequiredBy = ""
	assert.Nil(t, d.RequiredByDate())
}

func TestCheckTransition(t *testing.T) {
	ok := [][2]model.QuoteStatus{
		{model.QuoteNew, model.QuoteReviewing},
		{model.QuoteReviewing, model.QuoteQuoted},
		{model.QuoteQuoted, model.QuoteClosed},
		{model.QuoteNew, model.QuoteClosed},
		{model.QuoteReviewing, model.QuoteClosed},
	}
	for _, tc := range ok {
		assert.NoError(t, CheckTransition(tc[0], tc[1]), "%s -> %s", tc[0], tc[1])
	}

	bad := [][2]model.QuoteStatus{
		{model.QuoteNew, model.QuoteQuoted},
		{model.QuoteQuoted, model.QuoteReviewing},
		{model.QuoteClosed, model.QuoteNew},
		{model.QuoteClosed, model.QuoteClosed},
		{model.QuoteNew, model.QuoteNew},
	}
	for _, tc := range bad {
		err := CheckTransition(tc[0], tc[1])
		assert.Equal(t, codes.FailedPrecondition, apperr.CodeOf(err), "%s -> %s", tc[0], tc[1])
	}

	assert.Equal(t, codes.InvalidArgument, apperr.CodeOf(CheckTransition(model.QuoteNew, "archived")))
}
