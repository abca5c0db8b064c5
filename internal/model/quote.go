package model

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

type QuoteStatus string

const (
	QuoteNew       QuoteStatus = "new"
	QuoteReviewing QuoteStatus = "reviewing"
	QuoteQuoted    QuoteStatus = "quoted"
	QuoteClosed    QuoteStatus = "closed"
)

var InstitutionTypes = []string{"university", "research", "hospital", "industry", "government", "other"}

type QuoteRequest struct {
	BaseModel
	ReferenceNumber string         `db:"reference_number" json:"reference_number"`
	Status          QuoteStatus    `db:"status" json:"status"`
	UserID          *string        `db:"user_id" json:"user_id"`
	ContactName     string         `db:"contact_name" json:"contact_name"`
	Email           string         `db:"email" json:"email"`
	Phone           string         `db:"phone" json:"phone"`
	Designation     *string        `db:"designation" json:"designation"`
	Institution     string         `db:"institution" json:"institution"`
	InstitutionType string         `db:"institution_type" json:"institution_type"`
	Department      *string        `db:"department" json:"department"`
	City            *string        `db:"city" json:"city"`
	Items           types.JSONText `db:"items" json:"items"`
	Budget          *string        `db:"budget" json:"budget"`
	RequiredBy      *time.Time     `db:"required_by" json:"required_by"`
	Notes           *string        `db:"notes" json:"notes"`
	Language        string         `db:"language" json:"language"`
}

// QuoteItem is one requested line, stored inside QuoteRequest.Items.
type QuoteItem struct {
	ProductID *string `json:"product_id,omitempty"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Notes     string  `json:"notes,omitempty"`
}
