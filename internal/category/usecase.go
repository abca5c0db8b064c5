package category

import (
	"context"

	"github.com/fekuna/scistore-service/internal/category/dto"
	"github.com/fekuna/scistore-service/internal/model"
)

type UseCase interface {
	CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error)
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error)
	ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error)
	UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*model.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	// Tree returns the full hierarchy; inactive categories are pruned unless includeInactive.
	Tree(ctx context.Context, includeInactive bool) ([]model.Category, error)
	Menu(ctx context.Context) ([]dto.MenuGroup, error)
	Reorder(ctx context.Context, move *dto.MoveInput) ([]model.Category, error)
	// Descendants returns id and every category below it.
	Descendants(ctx context.Context, id string) ([]string, error)
}
