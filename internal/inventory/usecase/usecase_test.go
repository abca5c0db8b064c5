package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/inventory"
	"github.com/fekuna/scistore-service/internal/inventory/dto"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/pkg/cache"
	"github.com/fekuna/scistore-service/pkg/database/postgres"
	"github.com/fekuna/scistore-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

type fakeRepo struct {
	mu        sync.Mutex
	stock     map[string]int
	movements []model.InventoryMovement
}

func newFakeRepo(stock map[string]int) *fakeRepo {
	return &fakeRepo{stock: stock}
}

func (r *fakeRepo) GetStock(_ context.Context, id string) (*model.StockLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stock[id]
	if !ok {
		return nil, nil
	}
	return &model.StockLevel{ProductID: id, Stock: s}, nil
}

func (r *fakeRepo) ListLowStock(_ context.Context, f *dto.LowStockFilters) ([]model.StockLevel, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockLevel
	for id, s := range r.stock {
		if s <= f.Threshold {
			out = append(out, model.StockLevel{ProductID: id, Stock: s})
		}
	}
	return out, len(out), nil
}

func (r *fakeRepo) ApplyMovement(_ context.Context, m *model.InventoryMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stock[m.ProductID]
	if !ok {
		return inventory.ErrProductNotFound
	}
	if s+m.QuantityChange < 0 {
		return inventory.ErrInsufficientStock
	}
	m.QuantityBefore, m.QuantityAfter = s, s+m.QuantityChange
	r.stock[m.ProductID] = m.QuantityAfter
	r.movements = append(r.movements, *m)
	return nil
}

func (r *fakeRepo) HasMovement(_ context.Context, productID, movementType, referenceID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.movements {
		if m.ProductID == productID && m.MovementType == movementType && m.ReferenceID != nil && *m.ReferenceID == referenceID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) ListMovements(_ context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.InventoryMovement
	for _, m := range r.movements {
		if f.ProductID == "" || m.ProductID == f.ProductID {
			out = append(out, m)
		}
	}
	return out, len(out), nil
}

// rollbackTransactor restores the fake's stock when fn fails, like a real rollback.
type rollbackTransactor struct{ repo *fakeRepo }

func (t rollbackTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.repo.mu.Lock()
	snapshot := map[string]int{}
	for k, v := range t.repo.stock {
		snapshot[k] = v
	}
	n := len(t.repo.movements)
	t.repo.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.repo.mu.Lock()
		t.repo.stock = snapshot
		t.repo.movements = t.repo.movements[:n]
		t.repo.mu.Unlock()
		return err
	}
	return nil
}

func newUseCase(repo *fakeRepo, store cache.Store) *inventoryUseCase {
	uc := NewInventoryUseCase(repo, rollbackTransactor{repo}, store, nil, logger.NewNop()).(*inventoryUseCase)
	uc.lockBackoff = time.Millisecond
	return uc
}

func TestAdjustInventory(t *testing.T) {
	repo := newFakeRepo(map[string]int{"p1": 5})
	store := cache.NewMemoryStore()
	require.NoError(t, store.SetJSON(context.Background(), "products:catalog", []string{"stale"}, time.Minute))
	uc := newUseCase(repo, store)

	m, err := uc.AdjustInventory(context.Background(), &dto.AdjustInventoryInput{
		ProductID: "p1", QuantityChange: -2, Reason: " damaged ", UserID: "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.MovementAdjustment, m.MovementType)
	assert.Equal(t, 5, m.QuantityBefore)
	assert.Equal(t, 3, m.QuantityAfter)
	assert.Equal(t, "damaged", m.Notes)
	require.NotNil(t, m.CreatedBy)
	assert.Equal(t, "admin-1", *m.CreatedBy)

	var dst []string
	assert.ErrorIs(t, store.GetJSON(context.Background(), "products:catalog", &dst), cache.ErrMiss)
}

func TestAdjustInventoryNeverNegative(t *testing.T) {
	repo := newFakeRepo(map[string]int{"p1": 1})
	uc := newUseCase(repo, cache.NewMemoryStore())

	_, err := uc.AdjustInventory(context.Background(), &dto.AdjustInventoryInput{ProductID: "p1", QuantityChange: -2})
	require.Error(t, err)
	assert.Equal(t, codes.FailedPrecondition, apperr.CodeOf(err))
	assert.Equal(t, 1, repo.stock["p1"])

	_, err = uc.AdjustInventory(context.Background(), &dto.AdjustInventoryInput{ProductID: "nope", QuantityChange: 1})
	assert.Equal(t, codes.NotFound, apperr.CodeOf(err))
}

func TestAdjustInventoryValidation(t *testing.T) {
	uc := newUseCase(newFakeRepo(map[string]int{"p1": 1}), cache.NewMemoryStore())

	_, err := uc.AdjustInventory(context.Background(), &dto.AdjustInventoryInput{})
	require.Error(t, err)
	fields := apperr.From(err).Fields
	assert.Equal(t, "validation.required", fields["product_id"])
	assert.Equal(t, "validation.required", fields["quantity_change"])

	_, err = uc.AdjustInventory(context.Background(), &dto.AdjustInventoryInput{ProductID: "p1", QuantityChange: -1, MovementType: model.MovementRestock})
	assert.Equal(t, "validation.min_quantity", apperr.From(err).Fields["quantity_change"])

	_, err = uc.AdjustInventory(context.Background(), &dto.AdjustInventoryInput{ProductID: "p1", QuantityChange: 1, MovementType: model.MovementSale})
	assert.Equal(t, "validation.enum", apperr.From(err).Fields["movement_type"])
}

func TestAdjustInventoryBusyWhenLocked(t *testing.T) {
	store := cache.NewMemoryStore()
	ok, err := store.AcquireLock(context.Background(), "lock:inventory:p1", "someone-else", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	uc := newUseCase(newFakeRepo(map[string]int{"p1": 1}), store)
	_, err = uc.AdjustInventory(context.Background(), &dto.AdjustInventoryInput{ProductID: "p1", QuantityChange: 1})
	assert.Equal(t, codes.Aborted, apperr.CodeOf(err))
}

func TestReserveIsAllOrNothing(t *testing.T) {
	repo := newFakeRepo(map[string]int{"a": 5, "b": 1})
	uc := newUseCase(repo, cache.NewMemoryStore())

	err := uc.Reserve(context.Background(), "order-1", []dto.StockLine{
		{ProductID: "a", Name: "Beaker", Quantity: 2},
		{ProductID: "b", Name: "Burette", Quantity: 2},
	})
	require.Error(t, err)
	ae := apperr.From(err)
	assert.Equal(t, "inventory.insufficient_stock", ae.MessageID)
	assert.Equal(t, "Burette", ae.Data["Name"])
	assert.Equal(t, map[string]int{"a": 5, "b": 1}, repo.stock)
	assert.Empty(t, repo.movements)
}

func TestReserveMergesDuplicateLines(t *testing.T) {
	repo := newFakeRepo(map[string]int{"a": 5})
	uc := newUseCase(repo, cache.NewMemoryStore())

	require.NoError(t, uc.Reserve(context.Background(), "order-1", []dto.StockLine{
		{ProductID: "a", Quantity: 2},
		{ProductID: "a", Quantity: 3},
	}))
	assert.Equal(t, 0, repo.stock["a"])
	require.Len(t, repo.movements, 1)
	assert.Equal(t, model.MovementSale, repo.movements[0].MovementType)
	assert.Equal(t, -5, repo.movements[0].QuantityChange)
	assert.Equal(t, "order-1", *repo.movements[0].ReferenceID)
}

func TestReserveInvalidatesCatalogAfterCommit(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(map[string]int{"a": 3})
	store := cache.NewMemoryStore()
	require.NoError(t, store.SetJSON(ctx, "products:catalog", []string{"cached"}, time.Minute))
	uc := newUseCase(repo, store)

	var dst []string
	err := postgres.NopTransactor{}.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.Reserve(ctx, "order-1", []dto.StockLine{{ProductID: "a", Quantity: 3}}); err != nil {
			return err
		}
		// Still inside the order transaction: a reader must not be able to
		// refill the cache from the uncommitted snapshot.
		return store.GetJSON(ctx, "products:catalog", &dst)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"cached"}, dst)
	assert.ErrorIs(t, store.GetJSON(ctx, "products:catalog", &dst), cache.ErrMiss)
}

func TestReserveKeepsCacheOnRollback(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(map[string]int{"a": 3})
	store := cache.NewMemoryStore()
	require.NoError(t, store.SetJSON(ctx, "products:catalog", []string{"cached"}, time.Minute))
	uc := newUseCase(repo, store)

	err := postgres.NopTransactor{}.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, uc.Reserve(ctx, "order-1", []dto.StockLine{{ProductID: "a", Quantity: 1}}))
		return apperr.Internal(assert.AnError)
	})
	require.Error(t, err)
	var dst []string
	require.NoError(t, store.GetJSON(ctx, "products:catalog", &dst))
	assert.Equal(t, []string{"cached"}, dst)
}

func TestRestockIsIdempotent(t *testing.T) {
	repo := newFakeRepo(map[string]int{"a": 0})
	uc := newUseCase(repo, cache.NewMemoryStore())
	lines := []dto.StockLine{{ProductID: "a", Quantity: 4}, {ProductID: "gone", Quantity: 1}}

	require.NoError(t, uc.Restock(context.Background(), "order-9", lines))
	require.NoError(t, uc.Restock(context.Background(), "order-9", lines))
	assert.Equal(t, 4, repo.stock["a"])
	assert.Len(t, repo.movements, 1)
	assert.Equal(t, model.MovementRestock, repo.movements[0].MovementType)
}

func TestGetStockAndLowStock(t *testing.T) {
	uc := newUseCase(newFakeRepo(map[string]int{"a": 0, "b": 9}), cache.NewMemoryStore())

	_, err := uc.GetStock(context.Background(), "missing")
	assert.Equal(t, codes.NotFound, apperr.CodeOf(err))

	items, total, err := uc.ListLowStock(context.Background(), 5, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "a", items[0].ProductID)
}

var _ postgres.Transactor = rollbackTransactor{}
