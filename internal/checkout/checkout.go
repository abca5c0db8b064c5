// Package checkout drives a cart through login, details and confirmation
// and turns it into an order.
package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/google/uuid"
)

type Step string

const (
	StepLogin        Step = "login"
	StepDetails      Step = "details"
	StepConfirmation Step = "confirmation"
)

type Shipping struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Institution string `json:"institution"`
	Address     string `json:"address"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	Notes       string `json:"notes"`
}

type Session struct {
	ID            string              `json:"id"`
	CartID        string              `json:"cart_id"`
	Step          Step                `json:"step"`
	Guest         bool                `json:"guest"`
	UserID        string              `json:"user_id,omitempty"`
	Shipping      Shipping            `json:"shipping"`
	PaymentMethod model.PaymentMethod `json:"payment_method,omitempty"`
	OrderID       string              `json:"order_id,omitempty"`
	OrderNumber   string              `json:"order_number,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func NewSession(cartID string, now time.Time) *Session {
	return &Session{
		ID:        uuid.New().String(),
		CartID:    cartID,
		Step:      StepLogin,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func invalidStep() error {
	return apperr.Precondition("checkout.invalid_step")
}

// AuthenticatedAs moves login -> details for a signed-in customer.
func (s *Session) AuthenticatedAs(userID, email string) error {
	if s.Step != StepLogin {
		return invalidStep()
	}
	if strings.TrimSpace(userID) == "" {
		return apperr.Unauthenticated()
	}
	s.Step = StepDetails
	s.Guest = false
	s.UserID = userID
	if s.Shipping.Email == "" {
		s.Shipping.Email = email
	}
	return nil
}

// ContinueAsGuest moves login -> details with only an email address.
func (s *Session) ContinueAsGuest(email string) error {
	if s.Step != StepLogin {
		return invalidStep()
	}
	v := apperr.NewValidator()
	v.Email("email", strings.TrimSpace(email))
	if err := v.Err(); err != nil {
		return err
	}
	s.Step = StepDetails
	s.Guest = true
	s.UserID = ""
	s.Shipping.Email = strings.TrimSpace(email)
	return nil
}

// Back returns details -> login and forgets who was checking out.
func (s *Session) Back() error {
	if s.Step != StepDetails {
		return invalidStep()
	}
	s.Step = StepLogin
	s.Guest = false
	s.UserID = ""
	return nil
}

// Confirm is reached only through a placed order; confirmation is terminal.
func (s *Session) Confirm(o *model.Order) error {
	if s.Step != StepDetails {
		return invalidStep()
	}
	s.Step = StepConfirmation
	s.OrderID = o.ID
	s.OrderNumber = o.OrderNumber
	return nil
}

// OrderNumber formats ORD-YYYYMMDD-XXXXXX with six uppercase hex digits.
func OrderNumber(now time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("ORD-%s-%X", now.Format("20060102"), id[:3])
}
