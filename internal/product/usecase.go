package product

import (
	"context"

	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/product/dto"
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	// Storefront
	Catalog(ctx context.Context) ([]model.Product, error)
	Browse(ctx context.Context, q *dto.ListingQuery) (*dto.ListingResult, error)
	GetBySlug(ctx context.Context, slug string) (*dto.ProductDetail, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]model.Product, error)
	Suggest(ctx context.Context, query string, limit int) ([]dto.Suggestion, error)

	// InvalidateCatalog drops cached listings after out-of-band stock changes.
	InvalidateCatalog(ctx context.Context)
	Reindex(ctx context.Context) (int, error)
}
