package inventory

import (
	"context"

	"github.com/fekuna/scistore-service/internal/inventory/dto"
	"github.com/fekuna/scistore-service/internal/model"
)

type UseCase interface {
	GetStock(ctx context.Context, productID string) (*model.StockLevel, error)
	ListLowStock(ctx context.Context, threshold, page, pageSize int) ([]model.StockLevel, int, error)
	AdjustInventory(ctx context.Context, input *dto.AdjustInventoryInput) (*model.InventoryMovement, error)
	// Reserve decrements stock for an order. Called inside the order transaction.
	Reserve(ctx context.Context, orderID string, lines []dto.StockLine) error
	// Restock returns a cancelled order's lines. Repeated calls for the same order are no-ops.
	Restock(ctx context.Context, orderID string, lines []dto.StockLine) error
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
}
