package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/inventory"
	"github.com/fekuna/scistore-service/internal/inventory/dto"
	"github.com/fekuna/scistore-service/internal/metrics"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/pkg/cache"
	"github.com/fekuna/scistore-service/pkg/database/postgres"
	"github.com/fekuna/scistore-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	lockAttempts = 3
	lockTTL      = 5 * time.Second
	orderRefType = "order"
)

type inventoryUseCase struct {
	repo    inventory.Repository
	tx      postgres.Transactor
	cache   cache.Store
	metrics *metrics.Metrics
	logger  logger.ZapLogger

	lockBackoff time.Duration
}

func NewInventoryUseCase(repo inventory.Repository, tx postgres.Transactor, store cache.Store, m *metrics.Metrics, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:        repo,
		tx:          tx,
		cache:       store,
		metrics:     m,
		logger:      log,
		lockBackoff: 100 * time.Millisecond,
	}
}

func (uc *inventoryUseCase) GetStock(ctx context.Context, productID string) (*model.StockLevel, error) {
	level, err := uc.repo.GetStock(ctx, productID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if level == nil {
		return nil, apperr.NotFound("product.not_found")
	}
	return level, nil
}

func (uc *inventoryUseCase) ListLowStock(ctx context.Context, threshold, page, pageSize int) ([]model.StockLevel, int, error) {
	items, total, err := uc.repo.ListLowStock(ctx, &dto.LowStockFilters{
		Threshold: threshold,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	items, total, err := uc.repo.ListMovements(ctx, filters)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (uc *inventoryUseCase) AdjustInventory(ctx context.Context, input *dto.AdjustInventoryInput) (*model.InventoryMovement, error) {
	if input.MovementType == "" {
		input.MovementType = model.MovementAdjustment
	}
	v := apperr.NewValidator()
	v.Required("product_id", input.ProductID)
	v.Check(input.QuantityChange != 0, "quantity_change", "validation.required")
	v.OneOf("movement_type", input.MovementType, model.MovementAdjustment, model.MovementRestock)
	if input.MovementType == model.MovementRestock {
		v.Check(input.QuantityChange > 0, "quantity_change", "validation.min_quantity")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	lockKey := "lock:inventory:" + input.ProductID
	lockValue := uuid.New().String()
	acquired := false
	for i := 0; i < lockAttempts; i++ {
		ok, err := uc.cache.AcquireLock(ctx, lockKey, lockValue, lockTTL)
		if err != nil {
			uc.logger.Error("failed to acquire inventory lock", zap.String("product_id", input.ProductID), zap.Error(err))
		}
		if ok {
			acquired = true
			break
		}
		time.Sleep(uc.lockBackoff)
	}
	if !acquired {
		return nil, apperr.Aborted("inventory.busy")
	}
	defer func() {
		if err := uc.cache.ReleaseLock(ctx, lockKey, lockValue); err != nil {
			uc.logger.Warn("failed to release inventory lock", zap.String("product_id", input.ProductID), zap.Error(err))
		}
	}()

	movement := &model.InventoryMovement{
		ID:             uuid.New().String(),
		ProductID:      input.ProductID,
		MovementType:   input.MovementType,
		QuantityChange: input.QuantityChange,
		ReferenceType:  optional(input.ReferenceType),
		ReferenceID:    optional(input.ReferenceID),
		Notes:          strings.TrimSpace(input.Reason),
		CreatedBy:      optional(input.UserID),
		CreatedAt:      time.Now(),
	}

	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		return uc.repo.ApplyMovement(ctx, movement)
	})
	if err != nil {
		return nil, uc.mapStockError(err, input.ProductID)
	}

	uc.logger.Info("inventory adjusted",
		zap.String("product_id", movement.ProductID),
		zap.Int("change", movement.QuantityChange),
		zap.Int("stock", movement.QuantityAfter),
	)
	uc.metrics.StockMovement(movement.MovementType)
	uc.invalidateCatalog(ctx)
	return movement, nil
}

func (uc *inventoryUseCase) mapStockError(err error, name string) error {
	switch {
	case errors.Is(err, inventory.ErrInsufficientStock):
		return apperr.Precondition("inventory.insufficient_stock").WithData(map[string]any{"Name": name})
	case errors.Is(err, inventory.ErrProductNotFound):
		return apperr.NotFound("product.not_found")
	default:
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return ae
		}
		return apperr.Internal(err)
	}
}

// mergeLines sums duplicate products and orders lines by product id so
// concurrent reservations lock rows in the same order.
func mergeLines(lines []dto.StockLine) []dto.StockLine {
	byID := map[string]int{}
	var out []dto.StockLine
	for _, l := range lines {
		if i, ok := byID[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		byID[l.ProductID] = len(out)
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func (uc *inventoryUseCase) Reserve(ctx context.Context, orderID string, lines []dto.StockLine) error {
	lines = mergeLines(lines)
	ref := orderRefType

	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, l := range lines {
			if l.Quantity <= 0 {
				return apperr.Invalid("validation.min_quantity")
			}
			m := &model.InventoryMovement{
				ID:             uuid.New().String(),
				ProductID:      l.ProductID,
				MovementType:   model.MovementSale,
				QuantityChange: -l.Quantity,
				ReferenceType:  &ref,
				ReferenceID:    &orderID,
				Notes:          "order placed",
				CreatedAt:      time.Now(),
			}
			if err := uc.repo.ApplyMovement(ctx, m); err != nil {
				name := l.Name
				if name == "" {
					name = l.ProductID
				}
				return uc.mapStockError(err, name)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for range lines {
		uc.metrics.StockMovement(model.MovementSale)
	}
	// Reserve usually runs inside the order transaction; a cache refill before
	// commit would pin the old stock for the whole TTL.
	postgres.AfterCommit(ctx, uc.invalidateCatalog)
	return nil
}

func (uc *inventoryUseCase) Restock(ctx context.Context, orderID string, lines []dto.StockLine) error {
	lines = mergeLines(lines)
	ref := orderRefType
	restocked := 0

	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, l := range lines {
			if l.Quantity <= 0 {
				continue
			}
			done, err := uc.repo.HasMovement(ctx, l.ProductID, model.MovementRestock, orderID)
			if err != nil {
				return apperr.Internal(err)
			}
			if done {
				continue
			}
			m := &model.InventoryMovement{
				ID:             uuid.New().String(),
				ProductID:      l.ProductID,
				MovementType:   model.MovementRestock,
				QuantityChange: l.Quantity,
				ReferenceType:  &ref,
				ReferenceID:    &orderID,
				Notes:          "order cancelled",
				CreatedAt:      time.Now(),
			}
			if err := uc.repo.ApplyMovement(ctx, m); err != nil {
				if errors.Is(err, inventory.ErrProductNotFound) {
					uc.logger.Warn("skipping restock of deleted product",
						zap.String("order_id", orderID), zap.String("product_id", l.ProductID))
					continue
				}
				return apperr.Internal(err)
			}
			restocked++
		}
		return nil
	})
	if err != nil {
		return err
	}

	for i := 0; i < restocked; i++ {
		uc.metrics.StockMovement(model.MovementRestock)
	}
	if restocked > 0 {
		uc.logger.Info("order restocked", zap.String("order_id", orderID), zap.Int("lines", restocked))
		postgres.AfterCommit(ctx, uc.invalidateCatalog)
	}
	return nil
}

func (uc *inventoryUseCase) invalidateCatalog(ctx context.Context) {
	if err := uc.cache.DeletePattern(ctx, "products:*"); err != nil {
		uc.logger.Warn("failed to invalidate product cache", zap.Error(err))
	}
}
