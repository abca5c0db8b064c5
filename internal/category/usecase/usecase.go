package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/category"
	"github.com/fekuna/scistore-service/internal/category/dto"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/pkg/cache"
	"github.com/fekuna/scistore-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	treeKeyAll    = "categories:tree:all"
	treeKeyActive = "categories:tree:active"
	menuKey       = "categories:menu"
)

type categoryUseCase struct {
	repo   category.Repository
	cache  cache.Store
	ttl    time.Duration
	logger logger.ZapLogger
}

func NewCategoryUseCase(repo category.Repository, store cache.Store, ttl time.Duration, log logger.ZapLogger) category.UseCase {
	return &categoryUseCase{
		repo:   repo,
		cache:  store,
		ttl:    ttl,
		logger: log,
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (uc *categoryUseCase) validate(slug, nameEn string) error {
	v := apperr.NewValidator()
	v.Required("name_en", nameEn)
	v.MaxLen("name_en", nameEn, 200)
	v.Slug("slug", slug)
	return v.Err()
}

func (uc *categoryUseCase) all(ctx context.Context) ([]model.Category, error) {
	cats, _, err := uc.repo.FindAll(ctx, &dto.CategoryFilters{})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return cats, nil
}

func (uc *categoryUseCase) ensureSlugFree(ctx context.Context, slug, selfID string) error {
	existing, err := uc.repo.FindBySlug(ctx, slug)
	if err != nil {
		return apperr.Internal(err)
	}
	if existing != nil && existing.ID != selfID {
		return apperr.Conflict("category.slug_taken")
	}
	return nil
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error) {
	if err := uc.validate(input.Slug, input.NameEn); err != nil {
		return nil, err
	}
	if err := uc.ensureSlugFree(ctx, input.Slug, ""); err != nil {
		return nil, err
	}

	parentID := input.ParentID
	if parentID != nil && *parentID == "" {
		parentID = nil
	}
	if parentID != nil {
		parent, err := uc.repo.FindByID(ctx, *parentID)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if parent == nil {
			return nil, apperr.Invalid("category.parent_not_found")
		}
	}

	order := 0
	if input.DisplayOrder != nil {
		order = *input.DisplayOrder
	} else {
		pf := ""
		if parentID != nil {
			pf = *parentID
		}
		_, n, err := uc.repo.FindAll(ctx, &dto.CategoryFilters{ParentID: &pf})
		if err != nil {
			return nil, apperr.Internal(err)
		}
		order = n
	}

	now := time.Now()
	cat := &model.Category{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Slug:            input.Slug,
		NameEn:          strings.TrimSpace(input.NameEn),
		NameBn:          strings.TrimSpace(input.NameBn),
		DescriptionEn:   optional(input.DescriptionEn),
		DescriptionBn:   optional(input.DescriptionBn),
		ParentGroup:     optional(input.ParentGroup),
		ParentID:        parentID,
		DisplayOrder:    order,
		ImageURL:        optional(input.ImageURL),
		IsActive:        true,
		MetaTitle:       optional(input.MetaTitle),
		MetaDescription: optional(input.MetaDescription),
	}

	if err := uc.repo.Create(ctx, cat); err != nil {
		uc.logger.Error("failed to create category", zap.String("slug", cat.Slug), zap.Error(err))
		return nil, apperr.Internal(err)
	}

	uc.invalidate(ctx)
	return cat, nil
}

func (uc *categoryUseCase) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	cat, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if cat == nil {
		return nil, apperr.NotFound("category.not_found")
	}
	return cat, nil
}

func (uc *categoryUseCase) GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error) {
	cat, err := uc.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if cat == nil {
		return nil, apperr.NotFound("category.not_found")
	}
	return cat, nil
}

func (uc *categoryUseCase) ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error) {
	categories, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return categories, count, nil
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*model.Category, error) {
	cat, err := uc.GetCategory(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if err := uc.validate(input.Slug, input.NameEn); err != nil {
		return nil, err
	}
	if input.Slug != cat.Slug {
		if err := uc.ensureSlugFree(ctx, input.Slug, cat.ID); err != nil {
			return nil, err
		}
	}

	parentID := input.ParentID
	if parentID != nil && *parentID == "" {
		parentID = nil
	}
	if parentID != nil {
		if *parentID == cat.ID {
			return nil, apperr.Invalid("category.cycle")
		}
		flat, err := uc.all(ctx)
		if err != nil {
			return nil, err
		}
		found := false
		for _, c := range flat {
			if c.ID == *parentID {
				found = true
				break
			}
		}
		if !found {
			return nil, apperr.Invalid("category.parent_not_found")
		}
		for _, d := range category.Descendants(flat, cat.ID) {
			if d == *parentID {
				return nil, apperr.Invalid("category.cycle")
			}
		}
	}

	cat.Slug = input.Slug
	cat.NameEn = strings.TrimSpace(input.NameEn)
	cat.NameBn = strings.TrimSpace(input.NameBn)
	cat.DescriptionEn = optional(input.DescriptionEn)
	cat.DescriptionBn = optional(input.DescriptionBn)
	cat.ParentGroup = optional(input.ParentGroup)
	cat.ParentID = parentID
	cat.DisplayOrder = input.DisplayOrder
	cat.ImageURL = optional(input.ImageURL)
	cat.IsActive = input.IsActive
	cat.MetaTitle = optional(input.MetaTitle)
	cat.MetaDescription = optional(input.MetaDescription)
	cat.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, cat); err != nil {
		uc.logger.Error("failed to update category", zap.String("category_id", cat.ID), zap.Error(err))
		return nil, apperr.Internal(err)
	}
	uc.invalidate(ctx)
	return cat, nil
}

func (uc *categoryUseCase) DeleteCategory(ctx context.Context, id string) error {
	if _, err := uc.GetCategory(ctx, id); err != nil {
		return err
	}
	n, err := uc.repo.CountChildren(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if n > 0 {
		return apperr.Precondition("category.has_children").WithData(map[string]any{"Count": n})
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return apperr.Internal(err)
	}
	uc.invalidate(ctx)
	return nil
}

func (uc *categoryUseCase) Tree(ctx context.Context, includeInactive bool) ([]model.Category, error) {
	key := treeKeyActive
	if includeInactive {
		key = treeKeyAll
	}

	var tree []model.Category
	err := uc.cache.GetJSON(ctx, key, &tree)
	if err == nil {
		return tree, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		uc.logger.Warn("category tree cache read failed", zap.Error(err))
	}

	flat, err := uc.all(ctx)
	if err != nil {
		return nil, err
	}
	tree = category.BuildTree(flat)
	if !includeInactive {
		tree = category.PruneInactive(tree)
	}

	if err := uc.cache.SetJSON(ctx, key, tree, uc.ttl); err != nil {
		uc.logger.Warn("category tree cache write failed", zap.Error(err))
	}
	return tree, nil
}

func (uc *categoryUseCase) Menu(ctx context.Context) ([]dto.MenuGroup, error) {
	var groups []dto.MenuGroup
	if err := uc.cache.GetJSON(ctx, menuKey, &groups); err == nil {
		return groups, nil
	}

	tree, err := uc.Tree(ctx, false)
	if err != nil {
		return nil, err
	}
	groups = category.GroupByParentGroup(tree)
	if err := uc.cache.SetJSON(ctx, menuKey, groups, uc.ttl); err != nil {
		uc.logger.Warn("category menu cache write failed", zap.Error(err))
	}
	return groups, nil
}

func (uc *categoryUseCase) Reorder(ctx context.Context, move *dto.MoveInput) ([]model.Category, error) {
	flat, err := uc.all(ctx)
	if err != nil {
		return nil, err
	}
	updates, err := category.PlanMove(flat, move)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.ApplyOrdering(ctx, updates); err != nil {
		uc.logger.Error("failed to reorder categories", zap.String("category_id", move.ID), zap.Error(err))
		return nil, apperr.Internal(err)
	}
	uc.logger.Info("categories reordered",
		zap.String("category_id", move.ID),
		zap.Int("new_index", move.NewIndex),
		zap.Int("rows", len(updates)),
	)
	uc.invalidate(ctx)
	return category.BuildTree(category.ApplyUpdates(flat, updates)), nil
}

func (uc *categoryUseCase) Descendants(ctx context.Context, id string) ([]string, error) {
	tree, err := uc.Tree(ctx, true)
	if err != nil {
		return nil, err
	}
	ids := category.Descendants(category.Flatten(tree), id)
	if ids == nil {
		return nil, apperr.NotFound("category.not_found")
	}
	return ids, nil
}

func (uc *categoryUseCase) invalidate(ctx context.Context) {
	if err := uc.cache.DeletePattern(ctx, "categories:*"); err != nil {
		uc.logger.Warn("failed to invalidate category cache", zap.Error(err))
	}
}
