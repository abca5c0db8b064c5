package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/category"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/product/dto"
	"github.com/fekuna/scistore-service/internal/seo"
	"github.com/fekuna/scistore-service/pkg/cache"
	"github.com/fekuna/scistore-service/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	sitemapKey = "seo:sitemap"
	// maxDepth bounds the ancestor walk in case of a parent cycle.
	maxDepth = 8
)

type Products interface {
	Catalog(ctx context.Context) ([]model.Product, error)
	GetBySlug(ctx context.Context, slug string) (*dto.ProductDetail, error)
}

type Categories interface {
	Tree(ctx context.Context, includeInactive bool) ([]model.Category, error)
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error)
}

type seoUseCase struct {
	builder    *seo.Builder
	products   Products
	categories Categories
	cache      cache.Store
	ttl        time.Duration
	logger     logger.ZapLogger
}

func NewSEOUseCase(builder *seo.Builder, products Products, categories Categories, store cache.Store, ttl time.Duration, log logger.ZapLogger) seo.UseCase {
	return &seoUseCase{
		builder:    builder,
		products:   products,
		categories: categories,
		cache:      store,
		ttl:        ttl,
		logger:     log,
	}
}

func (uc *seoUseCase) Meta(ctx context.Context, route, slug, lang string) (*seo.Meta, error) {
	route = strings.ToLower(strings.TrimSpace(route))
	slug = strings.TrimSpace(slug)

	if m, ok := uc.builder.Static(route, lang); ok {
		return m, nil
	}
	switch route {
	case seo.RouteProduct, seo.RouteCategory:
		if slug == "" {
			v := apperr.NewValidator()
			v.Add("slug", "validation.required")
			return nil, v.Err()
		}
	default:
		return nil, apperr.Invalid("seo.unknown_route")
	}

	if route == seo.RouteProduct {
		detail, err := uc.products.GetBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		var trail []model.Category
		if detail.Category != nil {
			trail = append([]model.Category{*detail.Category}, uc.ancestors(ctx, detail.Category)...)
		}
		return uc.builder.Product(&detail.Product, trail, lang), nil
	}

	c, err := uc.categories.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		return nil, apperr.NotFound("category.not_found")
	}
	return uc.builder.Category(c, uc.ancestors(ctx, c), lang), nil
}

// ancestors returns c's parents, nearest first. A lookup failure ends the
// walk; breadcrumbs are best effort.
func (uc *seoUseCase) ancestors(ctx context.Context, c *model.Category) []model.Category {
	var out []model.Category
	seen := map[string]bool{c.ID: true}
	parent := c.ParentID
	for depth := 0; parent != nil && depth < maxDepth; depth++ {
		if seen[*parent] {
			break
		}
		p, err := uc.categories.GetCategory(ctx, *parent)
		if err != nil {
			uc.logger.Warn("failed to resolve category ancestor", zap.String("category_id", *parent), zap.Error(err))
			break
		}
		seen[p.ID] = true
		out = append(out, *p)
		parent = p.ParentID
	}
	return out
}

func (uc *seoUseCase) Sitemap(ctx context.Context) ([]byte, error) {
	var cached string
	err := uc.cache.GetJSON(ctx, sitemapKey, &cached)
	if err == nil && cached != "" {
		return []byte(cached), nil
	}
	if err != nil && !errors.Is(err, cache.ErrMiss) {
		uc.logger.Warn("failed to read sitemap cache", zap.Error(err))
	}
	return uc.GenerateSitemap(ctx)
}

func (uc *seoUseCase) GenerateSitemap(ctx context.Context) ([]byte, error) {
	var (
		tree     []model.Category
		products []model.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tree, err = uc.categories.Tree(gctx, false)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = uc.products.Catalog(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		uc.logger.Error("failed to load sitemap sources", zap.Error(err))
		return nil, err
	}

	set := uc.builder.Sitemap(category.Flatten(tree), products)
	out, err := set.Encode()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := uc.cache.SetJSON(ctx, sitemapKey, string(out), uc.ttl); err != nil {
		uc.logger.Warn("failed to cache sitemap", zap.Error(err))
	}
	uc.logger.Info("sitemap generated", zap.Int("urls", len(set.URLs)))
	return out, nil
}
