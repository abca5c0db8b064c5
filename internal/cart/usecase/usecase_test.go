package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/cart"
	"github.com/fekuna/scistore-service/internal/cart/repository"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/pkg/cache"
	"github.com/fekuna/scistore-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

type fakeCatalog map[string]model.Product

func (f fakeCatalog) GetProduct(_ context.Context, id string) (*model.Product, error) {
	p, ok := f[id]
	if !ok {
		return nil, apperr.NotFound("product.not_found")
	}
	return &p, nil
}

func (f fakeCatalog) GetProductsByIDs(_ context.Context, ids []string) (map[string]model.Product, error) {
	out := map[string]model.Product{}
	for _, id := range ids {
		if p, ok := f[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func product(id string, price float64, stock int) model.Product {
	p := model.Product{SKU: "SKU-" + id, NameEn: "Item " + id, Price: price, Stock: stock, IsActive: true}
	p.ID = id
	return p
}

func setup(catalog fakeCatalog) cart.UseCase {
	repo := repository.NewStoreRepository(cache.NewMemoryStore(), time.Hour)
	return NewCartUseCase(repo, catalog, cart.ShippingPolicy{Fee: 150, FreeThreshold: 10000, Currency: "BDT"}, logger.NewNop())
}

func TestAddItemMergesAndCapsAtStock(t *testing.T) {
	uc := setup(fakeCatalog{"p1": product("p1", 1200, 5)})
	ctx := context.Background()
	v, err := uc.Create(ctx)
	require.NoError(t, err)

	v, err = uc.AddItem(ctx, v.ID, "p1", 2)
	require.NoError(t, err)
	v, err = uc.AddItem(ctx, v.ID, "p1", 2)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, 4, v.Items[0].Quantity)
	assert.Equal(t, 4800.0, v.Totals.Subtotal)
	assert.Equal(t, 150.0, v.Totals.ShippingFee)
	assert.Empty(t, v.Adjustments)

	v, err = uc.AddItem(ctx, v.ID, "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, v.Items[0].Quantity)
	assert.Equal(t, []cart.Adjustment{{ProductID: "p1", Reason: cart.AdjustQuantityCap}}, v.Adjustments)
}

func TestAddItemRejections(t *testing.T) {
	inactive := product("off", 10, 5)
	inactive.IsActive = false
	uc := setup(fakeCatalog{"empty": product("empty", 10, 0), "off": inactive})
	ctx := context.Background()
	id := uuid.New().String()

	cases := []struct {
		name, product string
		qty           int
		code          codes.Code
		msg           string
	}{
		{"zero quantity", "empty", 0, codes.InvalidArgument, "validation.min_quantity"},
		{"unknown product", "nope", 1, codes.NotFound, "product.not_found"},
		{"inactive", "off", 1, codes.FailedPrecondition, "product.inactive"},
		{"out of stock", "empty", 1, codes.FailedPrecondition, "product.out_of_stock"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.AddItem(ctx, id, tc.product, tc.qty)
			require.Error(t, err)
			assert.Equal(t, tc.code, apperr.CodeOf(err))
			assert.Equal(t, tc.msg, apperr.From(err).MessageID)
		})
	}

	_, err := uc.Get(ctx, "not-a-uuid")
	assert.Equal(t, codes.InvalidArgument, apperr.CodeOf(err))
}

func TestSetQuantityAndRemove(t *testing.T) {
	uc := setup(fakeCatalog{"a": product("a", 100, 10), "b": product("b", 50, 10)})
	ctx := context.Background()
	id := uuid.New().String()

	_, err := uc.AddItem(ctx, id, "a", 1)
	require.NoError(t, err)
	_, err = uc.AddItem(ctx, id, "b", 1)
	require.NoError(t, err)

	v, err := uc.SetQuantity(ctx, id, "a", 3)
	require.NoError(t, err)
	assert.Equal(t, 350.0, v.Totals.Subtotal)
	assert.Equal(t, 4, v.Totals.ItemCount)

	v, err = uc.SetQuantity(ctx, id, "a", 0)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, "b", v.Items[0].ProductID)

	_, err = uc.SetQuantity(ctx, id, "a", 2)
	assert.Equal(t, codes.NotFound, apperr.CodeOf(err))
	_, err = uc.SetQuantity(ctx, id, "b", -1)
	assert.Equal(t, codes.InvalidArgument, apperr.CodeOf(err))

	v, err = uc.RemoveItem(ctx, id, "b")
	require.NoError(t, err)
	assert.Empty(t, v.Items)
	assert.True(t, v.Totals.FreeShipping)
	assert.Equal(t, 0.0, v.Totals.Total)

	require.NoError(t, uc.Clear(ctx, id))
}

func TestRefreshRepricesAndDrops(t *testing.T) {
	catalog := fakeCatalog{
		"a": product("a", 100, 10),
		"b": product("b", 50, 10),
		"c": product("c", 20, 10),
	}
	uc := setup(catalog)
	ctx := context.Background()
	id := uuid.New().String()
	for _, p := range []string{"a", "b", "c"} {
		_, err := uc.AddItem(ctx, id, p, 4)
		require.NoError(t, err)
	}

	a := catalog["a"]
	a.Price = 120
	catalog["a"] = a
	delete(catalog, "b")
	c := catalog["c"]
	c.Stock = 2
	catalog["c"] = c

	v, err := uc.Refresh(ctx, id)
	require.NoError(t, err)
	require.Len(t, v.Items, 2)
	assert.Equal(t, 120.0, v.Items[0].UnitPrice)
	assert.Equal(t, 2, v.Items[1].Quantity)
	assert.ElementsMatch(t, []cart.Adjustment{
		{ProductID: "a", Reason: cart.AdjustPriceChanged},
		{ProductID: "b", Reason: cart.AdjustRemoved},
		{ProductID: "c", Reason: cart.AdjustQuantityCap},
	}, v.Adjustments)
	assert.Equal(t, 520.0, v.Totals.Subtotal)

	again, err := uc.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, again.Items, 2)
}
