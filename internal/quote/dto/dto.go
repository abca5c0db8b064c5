package dto

import "github.com/fekuna/scistore-service/internal/model"

type QuoteFilters struct {
	Status   model.QuoteStatus
	Search   string // reference, contact name, email or institution
	Page     int
	PageSize int
}
