package usecase

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/category"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/product/dto"
	"github.com/fekuna/scistore-service/pkg/cache"
	"github.com/fekuna/scistore-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

type fakeRepo struct {
	mu       sync.Mutex
	rows     map[string]model.Product
	findAlls int
}

func newFakeRepo(rows ...model.Product) *fakeRepo {
	r := &fakeRepo{rows: map[string]model.Product{}}
	for _, p := range rows {
		r.rows[p.ID] = p
	}
	return r
}

func (r *fakeRepo) Create(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[p.ID] = *p
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.rows[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (r *fakeRepo) FindBySlug(_ context.Context, slug string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) FindByIDs(_ context.Context, ids []string) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.rows[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) FindAll(_ context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findAlls++
	var out []model.Product
	for _, p := range r.rows {
		if f.IsActive != nil && p.IsActive != *f.IsActive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *fakeRepo) Update(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[p.ID] = *p
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *fakeRepo) unique(match func(model.Product) bool, excludeID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.ID != excludeID && match(p) {
			return false
		}
	}
	return true
}

func (r *fakeRepo) IsSKUUnique(_ context.Context, sku, excludeID string) (bool, error) {
	return r.unique(func(p model.Product) bool { return p.SKU == sku }, excludeID), nil
}

func (r *fakeRepo) IsSlugUnique(_ context.Context, slug, excludeID string) (bool, error) {
	return r.unique(func(p model.Product) bool { return p.Slug == slug }, excludeID), nil
}

// stubCategories serves a fixed two-level hierarchy: lab > balances.
type stubCategories struct {
	category.UseCase
}

func (stubCategories) GetCategory(_ context.Context, id string) (*model.Category, error) {
	switch id {
	case "lab", "balances":
		c := &model.Category{Slug: id, NameEn: id, IsActive: true}
		c.ID = id
		return c, nil
	}
	return nil, apperr.NotFound("category.not_found")
}

func (s stubCategories) GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error) {
	return s.GetCategory(ctx, slug)
}

func (stubCategories) Descendants(_ context.Context, id string) ([]string, error) {
	if id == "lab" {
		return []string{"lab", "balances"}, nil
	}
	return []string{id}, nil
}

func item(id, slug string, price float64, stock int, categoryID string) model.Product {
	p := model.Product{SKU: "SKU-" + id, Slug: slug, NameEn: slug, Price: price, Stock: stock, IsActive: true}
	p.ID = id
	p.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if categoryID != "" {
		c := categoryID
		p.CategoryID = &c
	}
	return p
}

func newUseCase(repo *fakeRepo) *productUseCase {
	return NewProductUseCase(repo, stubCategories{}, cache.NewMemoryStore(),
		nil, Options{CatalogTTL: time.Minute, DefaultPageSize: 2, MaxPageSize: 3}, logger.NewNop()).(*productUseCase)
}

func TestCreateProductValidation(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(item("p1", "balance", 10, 1, ""))
	uc := newUseCase(repo)

	t.Run("field errors", func(t *testing.T) {
		_, err := uc.CreateProduct(ctx, &dto.CreateProductInput{Slug: "ok-slug", Price: -1, Stock: -2})
		e := apperr.From(err)
		assert.Equal(t, codes.InvalidArgument, e.Code)
		assert.Equal(t, "validation.required", e.Fields["sku"])
		assert.Equal(t, "validation.required", e.Fields["name_en"])
		assert.Equal(t, "validation.non_negative", e.Fields["price"])
		assert.Equal(t, "validation.non_negative", e.Fields["stock"])
	})

	t.Run("sku taken", func(t *testing.T) {
		_, err := uc.CreateProduct(ctx, &dto.CreateProductInput{SKU: "SKU-p1", Slug: "new", NameEn: "New"})
		assert.Equal(t, "product.sku_taken", apperr.From(err).MessageID)
	})

	t.Run("slug taken", func(t *testing.T) {
		_, err := uc.CreateProduct(ctx, &dto.CreateProductInput{SKU: "X", Slug: "balance", NameEn: "New"})
		assert.Equal(t, "product.slug_taken", apperr.From(err).MessageID)
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := uc.CreateProduct(ctx, &dto.CreateProductInput{SKU: "X", Slug: "x", NameEn: "X", CategoryID: "nope"})
		assert.Equal(t, "category.not_found", apperr.From(err).MessageID)
	})

	t.Run("created with empty specifications object", func(t *testing.T) {
		p, err := uc.CreateProduct(ctx, &dto.CreateProductInput{SKU: "X", Slug: "x", NameEn: "X", Price: 5, CategoryID: "lab"})
		require.NoError(t, err)
		assert.Equal(t, "{}", string(p.Specifications))
		assert.True(t, p.IsActive)
	})
}

func TestBrowse(t *testing.T) {
	ctx := context.Background()
	hidden := item("p5", "hidden", 1, 1, "lab")
	hidden.IsActive = false
	repo := newFakeRepo(
		item("p1", "balance-a", 100, 1, "balances"),
		item("p2", "balance-b", 200, 0, "balances"),
		item("p3", "beaker", 50, 5, "lab"),
		item("p4", "ethanol", 70, 5, ""),
		hidden,
	)
	uc := newUseCase(repo)

	t.Run("pages mode", func(t *testing.T) {
		res, err := uc.Browse(ctx, &dto.ListingQuery{Sort: "price_asc", Page: 2})
		require.NoError(t, err)
		assert.Equal(t, 4, res.Total)
		assert.Equal(t, 2, res.PageCount)
		assert.Equal(t, 2, res.Page)
		assert.Equal(t, dto.ModePages, res.Mode)
		require.Len(t, res.Items, 2)
		assert.Equal(t, "p1", res.Items[0].ID)
		assert.Equal(t, "p2", res.Items[1].ID)
		assert.False(t, res.HasMore)
	})

	t.Run("empty result reports page one", func(t *testing.T) {
		res, err := uc.Browse(ctx, &dto.ListingQuery{Search: "centrifuge", Page: 4})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Total)
		assert.Equal(t, 0, res.PageCount)
		assert.Equal(t, 1, res.Page)
		assert.Empty(t, res.Items)
		assert.False(t, res.HasMore)
	})

	t.Run("category includes descendants", func(t *testing.T) {
		res, err := uc.Browse(ctx, &dto.ListingQuery{CategorySlug: "lab", PerPage: 3})
		require.NoError(t, err)
		assert.Equal(t, 3, res.Total)
	})

	t.Run("in stock and price", func(t *testing.T) {
		res, err := uc.Browse(ctx, &dto.ListingQuery{InStockOnly: true, MinPrice: f64(60), PerPage: 3})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Total)
	})

	t.Run("infinite mode", func(t *testing.T) {
		res, err := uc.Browse(ctx, &dto.ListingQuery{Mode: dto.ModeInfinite, Sort: "price_asc", Cursor: 1})
		require.NoError(t, err)
		require.Len(t, res.Items, 2)
		assert.Equal(t, "p4", res.Items[0].ID)
		assert.True(t, res.HasMore)
		require.NotNil(t, res.NextCursor)
		assert.Equal(t, 3, *res.NextCursor)
	})

	t.Run("per page is capped", func(t *testing.T) {
		res, err := uc.Browse(ctx, &dto.ListingQuery{PerPage: 50})
		require.NoError(t, err)
		assert.Equal(t, 3, res.PerPage)
	})

	t.Run("invalid price range", func(t *testing.T) {
		_, err := uc.Browse(ctx, &dto.ListingQuery{MinPrice: f64(10), MaxPrice: f64(5)})
		assert.Equal(t, "product.invalid_price_range", apperr.From(err).MessageID)
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := uc.Browse(ctx, &dto.ListingQuery{CategorySlug: "nope"})
		assert.Equal(t, codes.NotFound, apperr.CodeOf(err))
	})

	t.Run("catalog is cached", func(t *testing.T) {
		before := repo.findAlls
		_, err := uc.Browse(ctx, &dto.ListingQuery{})
		require.NoError(t, err)
		assert.Equal(t, before, repo.findAlls)
	})
}

func TestWritesInvalidateCatalog(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(item("p1", "balance", 100, 1, ""))
	uc := newUseCase(repo)

	res, err := uc.Browse(ctx, &dto.ListingQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)

	_, err = uc.CreateProduct(ctx, &dto.CreateProductInput{SKU: "N", Slug: "new", NameEn: "New", Price: 1})
	require.NoError(t, err)

	res, err = uc.Browse(ctx, &dto.ListingQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)

	require.NoError(t, uc.DeleteProduct(ctx, "p1"))
	res, err = uc.Browse(ctx, &dto.ListingQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
}

func TestGetBySlugWithRelated(t *testing.T) {
	ctx := context.Background()
	rows := []model.Product{item("main", "main", 10, 1, "lab")}
	for _, id := range []string{"r1", "r2", "r3", "r4", "r5"} {
		rows = append(rows, item(id, id, 10, 1, "lab"))
	}
	off := item("off", "off", 10, 1, "lab")
	off.IsActive = false
	rows = append(rows, off)
	uc := newUseCase(newFakeRepo(rows...))

	detail, err := uc.GetBySlug(ctx, "main")
	require.NoError(t, err)
	assert.Len(t, detail.Related, 4)
	for _, r := range detail.Related {
		assert.NotEqual(t, "main", r.ID)
	}
	require.NotNil(t, detail.Category)
	assert.Equal(t, "lab", detail.Category.ID)

	_, err = uc.GetBySlug(ctx, "off")
	assert.Equal(t, codes.NotFound, apperr.CodeOf(err))
}

func TestSuggestFallsBackToCatalog(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(newFakeRepo(
		item("p1", "pipette", 10, 1, ""),
		item("p2", "pipette-tips", 10, 1, ""),
		item("p3", "beaker", 10, 1, ""),
	))

	out, err := uc.Suggest(ctx, "PIPETTE", 5)
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, err = uc.Suggest(ctx, "   ", 5)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGetProductsByIDs(t *testing.T) {
	uc := newUseCase(newFakeRepo(item("p1", "a", 1, 1, ""), item("p2", "b", 2, 1, "")))
	got, err := uc.GetProductsByIDs(context.Background(), []string{"p1", "missing"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1.0, got["p1"].Price)
}

func TestEscapeQueryString(t *testing.T) {
	assert.Equal(t, `BP\-221\/S`, escapeQueryString("BP-221/S"))
}

func f64(v float64) *float64 { return &v }
