package order

import (
	"context"
	"errors"

	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/order/dto"
)

// ErrDuplicateNumber is returned by Create when the order number is taken.
var ErrDuplicateNumber = errors.New("order: duplicate order number")

type Repository interface {
	// Create inserts the order and its items; it joins the caller's transaction.
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*model.Order, error)
	FindAll(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)
	// UpdateStatus moves id from one status to another and reports false
	// when the stored status no longer equals from.
	UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus) (bool, error)
}
