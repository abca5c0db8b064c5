package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/category"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/product"
	"github.com/fekuna/scistore-service/internal/product/dto"
	"github.com/fekuna/scistore-service/pkg/cache"
	"github.com/fekuna/scistore-service/pkg/logger"
	"github.com/fekuna/scistore-service/pkg/search"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
)

const (
	indexName   = "products"
	catalogKey  = "products:catalog"
	maxRelated  = 4
	maxSuggest  = 10
	maxSpecJSON = 64 << 10
)

const indexMapping = `{
	"mappings": {
		"properties": {
			"sku": { "type": "keyword" },
			"slug": { "type": "keyword" },
			"name_en": { "type": "text" },
			"name_bn": { "type": "text" },
			"brand": { "type": "text" },
			"model_number": { "type": "text" },
			"category_id": { "type": "keyword" },
			"price": { "type": "double" },
			"is_active": { "type": "boolean" },
			"created_at": { "type": "date" }
		}
	}
}`

// Options are the catalog settings from config.Store.
type Options struct {
	CatalogTTL      time.Duration
	DefaultPageSize int
	MaxPageSize     int
}

type productUseCase struct {
	repo       product.Repository
	categories category.UseCase
	cache      cache.Store
	es         *search.Client
	opts       Options
	logger     logger.ZapLogger
}

// NewProductUseCase wires the catalog. es may be nil, in which case search
// runs over the cached catalog only.
func NewProductUseCase(repo product.Repository, categories category.UseCase, store cache.Store, es *search.Client, opts Options, log logger.ZapLogger) product.UseCase {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 12
	}
	if opts.MaxPageSize < opts.DefaultPageSize {
		opts.MaxPageSize = opts.DefaultPageSize
	}
	return &productUseCase{
		repo:       repo,
		categories: categories,
		cache:      store,
		es:         es,
		opts:       opts,
		logger:     log,
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func specs(raw json.RawMessage) types.JSONText {
	if len(strings.TrimSpace(string(raw))) == 0 || string(raw) == "null" {
		return types.JSONText("{}")
	}
	return types.JSONText(raw)
}

type productFields struct {
	sku, slug, nameEn, categoryID string
	price                         float64
	compareAt                     *float64
	stock                         int
	specs                         json.RawMessage
}

func (uc *productUseCase) validate(ctx context.Context, f productFields) error {
	v := apperr.NewValidator()
	v.Required("sku", f.sku)
	v.MaxLen("sku", f.sku, 64)
	v.Slug("slug", f.slug)
	v.Required("name_en", f.nameEn)
	v.Check(f.price >= 0, "price", "validation.non_negative")
	v.Check(f.stock >= 0, "stock", "validation.non_negative")
	if f.compareAt != nil {
		v.Check(*f.compareAt >= 0, "compare_at_price", "validation.non_negative")
	}
	if len(f.specs) > 0 {
		v.Check(len(f.specs) <= maxSpecJSON && json.Valid(f.specs), "specifications", "validation.failed")
	}
	if err := v.Err(); err != nil {
		return err
	}
	if f.categoryID != "" {
		if _, err := uc.categories.GetCategory(ctx, f.categoryID); err != nil {
			if apperr.CodeOf(err) == codes.NotFound {
				return apperr.Invalid("category.not_found")
			}
			return err
		}
	}
	return nil
}

func (uc *productUseCase) ensureUnique(ctx context.Context, sku, slug, excludeID string) error {
	unique, err := uc.repo.IsSKUUnique(ctx, sku, excludeID)
	if err != nil {
		return apperr.Internal(err)
	}
	if !unique {
		return apperr.Conflict("product.sku_taken")
	}
	unique, err = uc.repo.IsSlugUnique(ctx, slug, excludeID)
	if err != nil {
		return apperr.Internal(err)
	}
	if !unique {
		return apperr.Conflict("product.slug_taken")
	}
	return nil
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	err := uc.validate(ctx, productFields{
		sku: input.SKU, slug: input.Slug, nameEn: input.NameEn, categoryID: input.CategoryID,
		price: input.Price, compareAt: input.CompareAtPrice, stock: input.Stock, specs: input.Specifications,
	})
	if err != nil {
		return nil, err
	}
	if err := uc.ensureUnique(ctx, input.SKU, input.Slug, ""); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &model.Product{
		BaseModel:       model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		SKU:             strings.TrimSpace(input.SKU),
		Slug:            input.Slug,
		NameEn:          strings.TrimSpace(input.NameEn),
		NameBn:          strings.TrimSpace(input.NameBn),
		DescriptionEn:   optional(input.DescriptionEn),
		DescriptionBn:   optional(input.DescriptionBn),
		Brand:           optional(input.Brand),
		ModelNumber:     optional(input.ModelNumber),
		CategoryID:      optional(input.CategoryID),
		Price:           input.Price,
		CompareAtPrice:  input.CompareAtPrice,
		Stock:           input.Stock,
		IsActive:        true,
		IsFeatured:      input.IsFeatured,
		DisplayOrder:    input.DisplayOrder,
		ImageURL:        optional(input.ImageURL),
		Specifications:  specs(input.Specifications),
		MetaTitle:       optional(input.MetaTitle),
		MetaDescription: optional(input.MetaDescription),
		MetaKeywords:    optional(input.MetaKeywords),
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		uc.logger.Error("failed to create product", zap.String("sku", p.SKU), zap.Error(err))
		return nil, apperr.Internal(err)
	}

	uc.InvalidateCatalog(ctx)
	go uc.syncToElastic(context.Background(), p)

	return p, nil
}

func (uc *productUseCase) ensureIndex(ctx context.Context) {
	if err := uc.es.CreateIndex(ctx, indexName, indexMapping); err != nil {
		uc.logger.Warn("failed to ensure product index", zap.Error(err))
	}
}

func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	if uc.es == nil {
		return
	}
	uc.ensureIndex(ctx)
	if err := uc.es.Index(ctx, indexName, p.ID, p); err != nil {
		uc.logger.Error("failed to index product", zap.String("product_id", p.ID), zap.Error(err))
	}
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if p == nil {
		return nil, apperr.NotFound("product.not_found")
	}
	return p, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	cacheKey, err := uc.generateCacheKey(filters)
	if err == nil {
		var cached struct {
			Products []model.Product
			Count    int
		}
		if err := uc.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			return cached.Products, cached.Count, nil
		}
	}

	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}

	if cacheKey != "" {
		data := struct {
			Products []model.Product
			Count    int
		}{Products: products, Count: count}
		if err := uc.cache.SetJSON(ctx, cacheKey, data, uc.opts.CatalogTTL); err != nil {
			uc.logger.Warn("failed to cache product list", zap.Error(err))
		}
	}

	return products, count, nil
}

func (uc *productUseCase) generateCacheKey(filters *dto.ProductFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("products:list:%x", md5.Sum(data)), nil
}

func (uc *productUseCase) InvalidateCatalog(ctx context.Context) {
	if err := uc.cache.DeletePattern(ctx, "products:*"); err != nil {
		uc.logger.Warn("failed to invalidate product cache", zap.Error(err))
	}
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	p, err := uc.GetProduct(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	err = uc.validate(ctx, productFields{
		sku: input.SKU, slug: input.Slug, nameEn: input.NameEn, categoryID: input.CategoryID,
		price: input.Price, compareAt: input.CompareAtPrice, specs: input.Specifications,
	})
	if err != nil {
		return nil, err
	}
	if p.SKU != input.SKU || p.Slug != input.Slug {
		if err := uc.ensureUnique(ctx, input.SKU, input.Slug, p.ID); err != nil {
			return nil, err
		}
	}

	p.SKU = strings.TrimSpace(input.SKU)
	p.Slug = input.Slug
	p.NameEn = strings.TrimSpace(input.NameEn)
	p.NameBn = strings.TrimSpace(input.NameBn)
	p.DescriptionEn = optional(input.DescriptionEn)
	p.DescriptionBn = optional(input.DescriptionBn)
	p.Brand = optional(input.Brand)
	p.ModelNumber = optional(input.ModelNumber)
	p.CategoryID = optional(input.CategoryID)
	p.Price = input.Price
	p.CompareAtPrice = input.CompareAtPrice
	p.IsActive = input.IsActive
	p.IsFeatured = input.IsFeatured
	p.DisplayOrder = input.DisplayOrder
	p.ImageURL = optional(input.ImageURL)
	if input.Specifications != nil {
		p.Specifications = specs(input.Specifications)
	}
	p.MetaTitle = optional(input.MetaTitle)
	p.MetaDescription = optional(input.MetaDescription)
	p.MetaKeywords = optional(input.MetaKeywords)
	p.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, p); err != nil {
		uc.logger.Error("failed to update product", zap.String("product_id", p.ID), zap.Error(err))
		return nil, apperr.Internal(err)
	}

	uc.InvalidateCatalog(ctx)
	go uc.syncToElastic(context.Background(), p)

	return p, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) error {
	if _, err := uc.GetProduct(ctx, id); err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return apperr.Internal(err)
	}

	uc.InvalidateCatalog(ctx)
	if uc.es != nil {
		go func() {
			if err := uc.es.Delete(context.Background(), indexName, id); err != nil {
				uc.logger.Error("failed to delete product from ES", zap.String("product_id", id), zap.Error(err))
			}
		}()
	}
	return nil
}

// Catalog returns every active product, cached for CatalogTTL.
func (uc *productUseCase) Catalog(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := uc.cache.GetJSON(ctx, catalogKey, &products)
	if err == nil {
		return products, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		uc.logger.Warn("catalog cache read failed", zap.Error(err))
	}

	active := true
	products, _, err = uc.repo.FindAll(ctx, &dto.ProductFilters{IsActive: &active})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if products == nil {
		products = []model.Product{}
	}
	if err := uc.cache.SetJSON(ctx, catalogKey, products, uc.opts.CatalogTTL); err != nil {
		uc.logger.Warn("catalog cache write failed", zap.Error(err))
	}
	return products, nil
}

func (uc *productUseCase) criteria(ctx context.Context, q *dto.ListingQuery) (product.Criteria, error) {
	c := product.Criteria{
		Search:      q.Search,
		MinPrice:    q.MinPrice,
		MaxPrice:    q.MaxPrice,
		InStockOnly: q.InStockOnly,
	}

	v := apperr.NewValidator()
	if q.MinPrice != nil {
		v.Check(*q.MinPrice >= 0, "min_price", "validation.non_negative")
	}
	if q.MaxPrice != nil {
		v.Check(*q.MaxPrice >= 0, "max_price", "validation.non_negative")
	}
	if q.Mode != "" {
		v.OneOf("mode", q.Mode, dto.ModePages, dto.ModeInfinite)
	}
	if err := v.Err(); err != nil {
		return c, err
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return c, apperr.Invalid("product.invalid_price_range")
	}

	if slug := strings.TrimSpace(q.CategorySlug); slug != "" {
		cat, err := uc.categories.GetCategoryBySlug(ctx, slug)
		if err != nil {
			return c, err
		}
		ids, err := uc.categories.Descendants(ctx, cat.ID)
		if err != nil {
			return c, err
		}
		c.CategoryIDs = ids
	}
	return c, nil
}

func (uc *productUseCase) Browse(ctx context.Context, q *dto.ListingQuery) (*dto.ListingResult, error) {
	c, err := uc.criteria(ctx, q)
	if err != nil {
		return nil, err
	}
	catalog, err := uc.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	filtered := product.Filter(catalog, c)
	order := product.ParseSort(q.Sort)
	product.Sort(filtered, order)

	perPage := q.PerPage
	if perPage <= 0 {
		perPage = uc.opts.DefaultPageSize
	}
	if perPage > uc.opts.MaxPageSize {
		perPage = uc.opts.MaxPageSize
	}

	total := len(filtered)
	res := &dto.ListingResult{
		Total:     total,
		Sort:      string(order),
		PerPage:   perPage,
		PageCount: product.Paginate(total, 1, perPage).PageCount,
	}

	if q.Mode == dto.ModeInfinite {
		start, end, more := product.Window(total, q.Cursor, perPage)
		res.Mode = dto.ModeInfinite
		res.Items = filtered[start:end]
		res.HasMore = more
		if more {
			next := end
			res.NextCursor = &next
		}
		return res, nil
	}

	info := product.Paginate(total, q.Page, perPage)
	res.Mode = dto.ModePages
	res.Page = info.Page
	res.Items = filtered[info.Start:info.End]
	res.HasMore = info.Page < info.PageCount
	return res, nil
}

func (uc *productUseCase) GetBySlug(ctx context.Context, slug string) (*dto.ProductDetail, error) {
	p, err := uc.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if p == nil || !p.IsActive {
		return nil, apperr.NotFound("product.not_found")
	}

	detail := &dto.ProductDetail{Product: *p, Related: []model.Product{}}
	if p.CategoryID == nil {
		return detail, nil
	}

	cat, err := uc.categories.GetCategory(ctx, *p.CategoryID)
	if err == nil {
		detail.Category = cat
	} else if apperr.CodeOf(err) != codes.NotFound {
		return nil, err
	}

	catalog, err := uc.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	related := product.Filter(catalog, product.Criteria{CategoryIDs: []string{*p.CategoryID}})
	product.Sort(related, product.SortFeatured)
	for _, r := range related {
		if r.ID == p.ID {
			continue
		}
		detail.Related = append(detail.Related, r)
		if len(detail.Related) == maxRelated {
			break
		}
	}
	return detail, nil
}

func (uc *productUseCase) GetProductsByIDs(ctx context.Context, ids []string) (map[string]model.Product, error) {
	products, err := uc.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	out := make(map[string]model.Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func toSuggestion(p model.Product) dto.Suggestion {
	return dto.Suggestion{
		ID: p.ID, Slug: p.Slug, NameEn: p.NameEn, NameBn: p.NameBn,
		SKU: p.SKU, Price: p.Price, ImageURL: p.ImageURL,
	}
}

// Suggest queries Elasticsearch when configured and falls back to the
// in-memory substring match when it is missing or failing.
func (uc *productUseCase) Suggest(ctx context.Context, query string, limit int) ([]dto.Suggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []dto.Suggestion{}, nil
	}
	if limit <= 0 || limit > maxSuggest {
		limit = maxSuggest
	}

	if uc.es != nil {
		out, err := uc.suggestElastic(ctx, query, limit)
		if err == nil {
			return out, nil
		}
		uc.logger.Error("ES search failed, falling back to catalog", zap.Error(err))
	}

	catalog, err := uc.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	matches := product.Filter(catalog, product.Criteria{Search: query})
	product.Sort(matches, product.SortFeatured)
	out := make([]dto.Suggestion, 0, limit)
	for _, p := range matches {
		out = append(out, toSuggestion(p))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (uc *productUseCase) suggestElastic(ctx context.Context, query string, limit int) ([]dto.Suggestion, error) {
	q := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []map[string]interface{}{
					{
						"query_string": map[string]interface{}{
							"query":  fmt.Sprintf("*%s*", escapeQueryString(query)),
							"fields": []string{"name_en^3", "name_bn^3", "sku^2", "brand", "model_number"},
						},
					},
				},
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"is_active": true}},
				},
			},
		},
	}

	res, err := uc.es.Search(ctx, indexName, q)
	if err != nil {
		return nil, err
	}
	out := make([]dto.Suggestion, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var p model.Product
		if err := json.Unmarshal(hit.Source, &p); err != nil {
			continue
		}
		out = append(out, toSuggestion(p))
	}
	return out, nil
}

func escapeQueryString(s string) string {
	const reserved = `+-=&|><!(){}[]^"~*?:\/`
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(reserved, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Reindex pushes every product into the search index.
func (uc *productUseCase) Reindex(ctx context.Context) (int, error) {
	if uc.es == nil {
		return 0, nil
	}
	uc.ensureIndex(ctx)
	products, _, err := uc.repo.FindAll(ctx, &dto.ProductFilters{})
	if err != nil {
		return 0, apperr.Internal(err)
	}
	for i := range products {
		if err := uc.es.Index(ctx, indexName, products[i].ID, &products[i]); err != nil {
			return i, fmt.Errorf("index %s: %w", products[i].ID, err)
		}
	}
	return len(products), nil
}
