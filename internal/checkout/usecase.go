package checkout

import (
	"context"

	"github.com/fekuna/scistore-service/internal/checkout/dto"
	"github.com/fekuna/scistore-service/internal/model"
)

type UseCase interface {
	StartSession(ctx context.Context, cartID string) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	Login(ctx context.Context, id, userID, email string) (*Session, error)
	ContinueAsGuest(ctx context.Context, id, email string) (*Session, error)
	Back(ctx context.Context, id string) (*Session, error)
	PlaceOrder(ctx context.Context, input *dto.PlaceOrderInput) (*Session, *model.Order, error)
	// CreateOrder turns a cart into an order. Repeating a completed
	// idempotency key returns the original order.
	CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error)
}
