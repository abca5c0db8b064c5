package product

import (
	"context"

	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/product/dto"
)

type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindBySlug(ctx context.Context, slug string) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id string) error

	// Check SKU/slug uniqueness
	IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error)
	IsSlugUnique(ctx context.Context, slug, excludeID string) (bool, error)
}
