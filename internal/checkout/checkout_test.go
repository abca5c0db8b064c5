package checkout

import (
	"regexp"
	"testing"
	"time"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestStepMachine(t *testing.T) {
	s := NewSession("cart-1", time.Now())
	assert.Equal(t, StepLogin, s.Step)

	assert.Equal(t, codes.FailedPrecondition, apperr.CodeOf(s.Back()))
	assert.Equal(t, codes.FailedPrecondition, apperr.CodeOf(s.Confirm(&model.Order{})))
	assert.Equal(t, codes.Unauthenticated, apperr.CodeOf(s.AuthenticatedAs(" ", "")))
	assert.Equal(t, codes.InvalidArgument, apperr.CodeOf(s.ContinueAsGuest("not-an-email")))

	require.NoError(t, s.ContinueAsGuest(" lab@example.com "))
	assert.Equal(t, StepDetails, s.Step)
	assert.True(t, s.Guest)
	assert.Equal(t, "lab@example.com", s.Shipping.Email)

	assert.Equal(t, codes.FailedPrecondition, apperr.CodeOf(s.ContinueAsGuest("lab@example.com")))

	require.NoError(t, s.Back())
	assert.Equal(t, StepLogin, s.Step)
	assert.False(t, s.Guest)

	require.NoError(t, s.AuthenticatedAs("u1", "u1@example.com"))
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, "lab@example.com", s.Shipping.Email, "an email already entered is kept")

	o := &model.Order{OrderNumber: "ORD-20250101-ABCDEF"}
	o.ID = "o1"
	require.NoError(t, s.Confirm(o))
	assert.Equal(t, StepConfirmation, s.Step)
	assert.Equal(t, "o1", s.OrderID)

	// confirmation is terminal
	assert.Error(t, s.Back())
	assert.Error(t, s.AuthenticatedAs("u1", ""))
	assert.Error(t, s.ContinueAsGuest("a@b.co"))
	assert.Error(t, s.Confirm(o))
}

func validShipping() Shipping {
	return Shipping{
		FullName: "Rahim Uddin",
		Email:    "rahim@du.ac.bd",
		Phone:    "01712-345678",
		Address:  "Curzon Hall, University of Dhaka",
		City:     "Dhaka",
	}.Normalize()
}

func TestValidateDetails(t *testing.T) {
	require.NoError(t, ValidateDetails(validShipping(), model.PaymentCashOnDelivery))
	assert.Equal(t, "01712345678", validShipping().Phone)

	cases := []struct {
		name   string
		mutate func(*Shipping)
		pm     model.PaymentMethod
		field  string
		msg    string
	}{
		{"name", func(s *Shipping) { s.FullName = "" }, model.PaymentCashOnDelivery, "full_name", "validation.required"},
		{"phone", func(s *Shipping) { s.Phone = "12345" }, model.PaymentCashOnDelivery, "phone", "validation.phone"},
		{"email", func(s *Shipping) { s.Email = "rahim@" }, model.PaymentCashOnDelivery, "email", "validation.email"},
		{"address", func(s *Shipping) { s.Address = " " }, model.PaymentCashOnDelivery, "address", "validation.required"},
		{"city", func(s *Shipping) { s.City = "" }, model.PaymentCashOnDelivery, "city", "validation.required"},
		{"postal code", func(s *Shipping) { s.PostalCode = "12a4" }, model.PaymentCashOnDelivery, "postal_code", "validation.postal_code"},
		{"payment", func(s *Shipping) {}, "cheque", "payment_method", "validation.enum"},
		{"purchase order", func(s *Shipping) {}, model.PaymentPurchaseOrder, "institution", "checkout.institution_required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sh := validShipping()
			tc.mutate(&sh)
			err := ValidateDetails(sh, tc.pm)
			require.Error(t, err)
			assert.Equal(t, tc.msg, apperr.From(err).Fields[tc.field])
		})
	}

	sh := validShipping()
	sh.Institution = "BUET"
	sh.PostalCode = "1000"
	assert.NoError(t, ValidateDetails(sh, model.PaymentPurchaseOrder))
}

func TestOrderNumberFormat(t *testing.T) {
	re := regexp.MustCompile(`^ORD-20250314-[0-9A-F]{6}$`)
	now := time.Date(2025, 3, 14, 23, 0, 0, 0, time.UTC)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		n := OrderNumber(now)
		require.Regexp(t, re, n)
		seen[n] = true
	}
	assert.Greater(t, len(seen), 1)
}
