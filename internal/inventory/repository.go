package inventory

import (
	"context"
	"errors"

	"github.com/fekuna/scistore-service/internal/inventory/dto"
	"github.com/fekuna/scistore-service/internal/model"
)

var (
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	ErrProductNotFound   = errors.New("inventory: product not found")
)

type Repository interface {
	GetStock(ctx context.Context, productID string) (*model.StockLevel, error)
	ListLowStock(ctx context.Context, filters *dto.LowStockFilters) ([]model.StockLevel, int, error)

	// ApplyMovement locks the product row, applies m.QuantityChange and
	// records m with its before/after quantities. It must run inside a
	// transaction and returns ErrInsufficientStock instead of going negative.
	ApplyMovement(ctx context.Context, m *model.InventoryMovement) error
	HasMovement(ctx context.Context, productID, movementType, referenceID string) (bool, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
}
