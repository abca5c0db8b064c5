package quote

import (
	"context"
	"errors"

	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/quote/dto"
)

// ErrDuplicateReference is returned by Create when the reference number is taken.
var ErrDuplicateReference = errors.New("quote: duplicate reference number")

type Repository interface {
	Create(ctx context.Context, q *model.QuoteRequest) error
	FindByID(ctx context.Context, id string) (*model.QuoteRequest, error)
	FindAll(ctx context.Context, filters *dto.QuoteFilters) ([]model.QuoteRequest, int, error)
	// UpdateStatus reports false when the stored status no longer equals from.
	UpdateStatus(ctx context.Context, id string, from, to model.QuoteStatus) (bool, error)
}
