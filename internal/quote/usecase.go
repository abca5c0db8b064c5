package quote

import (
	"context"

	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/quote/dto"
)

type SubmitInput struct {
	Draft    Draft
	UserID   string
	Language string
}

type UseCase interface {
	ValidateStep(ctx context.Context, step Step, draft Draft) error
	Submit(ctx context.Context, input *SubmitInput) (*model.QuoteRequest, error)
	GetQuote(ctx context.Context, id string) (*model.QuoteRequest, error)
	ListQuotes(ctx context.Context, filters *dto.QuoteFilters) ([]model.QuoteRequest, int, error)
	UpdateStatus(ctx context.Context, id string, to model.QuoteStatus) (*model.QuoteRequest, error)
	// SendNotification mails the customer and the sales inbox about a quote.
	SendNotification(ctx context.Context, id string) error
}

// Notifier delivers the submission emails.
type Notifier interface {
	QuoteSubmitted(ctx context.Context, q *model.QuoteRequest) error
}
