package order

import (
	"context"

	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/order/dto"
)

type UseCase interface {
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	// GetOrderFor returns the order when userID owns it or holds orders.view.
	GetOrderFor(ctx context.Context, userID, id string) (*model.Order, error)
	ListMine(ctx context.Context, userID string, page, pageSize int) ([]model.Order, int, error)
	ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)
	UpdateStatus(ctx context.Context, id string, to model.OrderStatus) (*model.Order, error)
	// CancelMine lets a customer cancel their own order while it is pending.
	CancelMine(ctx context.Context, userID, id string) (*model.Order, error)
}
