package usecase

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/content"
	"github.com/fekuna/scistore-service/internal/content/dto"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/pkg/cache"
	"github.com/fekuna/scistore-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Catalog resolves wishlist products.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]model.Product, error)
}

const (
	testimonialsKey = "content:testimonials"
	logosKey        = "content:logos"
)

type contentUseCase struct {
	repo    content.Repository
	catalog Catalog
	cache   cache.Store
	ttl     time.Duration
	logger  logger.ZapLogger
	now     func() time.Time
}

func NewContentUseCase(repo content.Repository, catalog Catalog, store cache.Store, ttl time.Duration, log logger.ZapLogger) content.UseCase {
	return &contentUseCase{
		repo:    repo,
		catalog: catalog,
		cache:   store,
		ttl:     ttl,
		logger:  log,
		now:     time.Now,
	}
}

func (uc *contentUseCase) Wishlist(ctx context.Context, userID string) ([]model.WishlistItem, error) {
	if userID == "" {
		return nil, apperr.Unauthenticated()
	}
	items, err := uc.repo.ListWishlist(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(items) == 0 {
		return []model.WishlistItem{}, nil
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	products, err := uc.catalog.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if p, ok := products[items[i].ProductID]; ok {
			items[i].Product = &p
		}
	}
	return items, nil
}

// AddToWishlist is idempotent; adding a listed product again is not an error.
func (uc *contentUseCase) AddToWishlist(ctx context.Context, userID, productID string) (*model.WishlistItem, error) {
	if userID == "" {
		return nil, apperr.Unauthenticated()
	}
	p, err := uc.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	item := &model.WishlistItem{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: p.ID,
		CreatedAt: uc.now(),
		Product:   p,
	}
	added, err := uc.repo.AddWishlist(ctx, item)
	if err != nil {
		uc.logger.Error("failed to add wishlist item", zap.String("user_id", userID), zap.String("product_id", productID), zap.Error(err))
		return nil, apperr.Internal(err)
	}
	if added {
		uc.logger.Debug("wishlist item added", zap.String("user_id", userID), zap.String("product_id", productID))
	}
	return item, nil
}

func (uc *contentUseCase) RemoveFromWishlist(ctx context.Context, userID, productID string) error {
	if userID == "" {
		return apperr.Unauthenticated()
	}
	if _, err := uc.repo.RemoveWishlist(ctx, userID, productID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func cached[T any](ctx context.Context, uc *contentUseCase, key string, load func() ([]T, error)) ([]T, error) {
	var out []T
	err := uc.cache.GetJSON(ctx, key, &out)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		uc.logger.Warn("failed to read content cache", zap.String("key", key), zap.Error(err))
	}
	out, err = load()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if out == nil {
		out = []T{}
	}
	if err := uc.cache.SetJSON(ctx, key, out, uc.ttl); err != nil {
		uc.logger.Warn("failed to cache content", zap.String("key", key), zap.Error(err))
	}
	return out, nil
}

func (uc *contentUseCase) invalidate(ctx context.Context) {
	if err := uc.cache.DeletePattern(ctx, "content:*"); err != nil {
		uc.logger.Warn("failed to invalidate content cache", zap.Error(err))
	}
}

func (uc *contentUseCase) Testimonials(ctx context.Context, activeOnly bool) ([]model.Testimonial, error) {
	if !activeOnly {
		out, err := uc.repo.ListTestimonials(ctx, false)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		return out, nil
	}
	return cached(ctx, uc, testimonialsKey, func() ([]model.Testimonial, error) {
		return uc.repo.ListTestimonials(ctx, true)
	})
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func active(b *bool) bool {
	return b == nil || *b
}

func validateTestimonial(in *dto.TestimonialInput) error {
	v := apperr.NewValidator()
	v.Required("author_name", in.AuthorName)
	v.MaxLen("author_name", in.AuthorName, 120)
	v.Required("content_en", in.ContentEn)
	v.MaxLen("content_en", in.ContentEn, 2000)
	v.MaxLen("content_bn", in.ContentBn, 2000)
	v.Check(in.Rating >= 1 && in.Rating <= 5, "rating", "validation.rating")
	v.Check(in.DisplayOrder >= 0, "display_order", "validation.non_negative")
	return v.Err()
}

func (uc *contentUseCase) fillTestimonial(t *model.Testimonial, in *dto.TestimonialInput) {
	t.AuthorName = strings.TrimSpace(in.AuthorName)
	t.AuthorTitle = optional(in.AuthorTitle)
	t.Institution = optional(in.Institution)
	t.ContentEn = strings.TrimSpace(in.ContentEn)
	t.ContentBn = optional(in.ContentBn)
	t.Rating = in.Rating
	t.IsActive = active(in.IsActive)
	t.DisplayOrder = in.DisplayOrder
	t.UpdatedAt = uc.now()
}

func (uc *contentUseCase) CreateTestimonial(ctx context.Context, in *dto.TestimonialInput) (*model.Testimonial, error) {
	if err := validateTestimonial(in); err != nil {
		return nil, err
	}
	t := &model.Testimonial{}
	uc.fillTestimonial(t, in)
	t.ID = uuid.New().String()
	t.CreatedAt = t.UpdatedAt
	if err := uc.repo.CreateTestimonial(ctx, t); err != nil {
		uc.logger.Error("failed to create testimonial", zap.Error(err))
		return nil, apperr.Internal(err)
	}
	uc.invalidate(ctx)
	return t, nil
}

func (uc *contentUseCase) UpdateTestimonial(ctx context.Context, id string, in *dto.TestimonialInput) (*model.Testimonial, error) {
	if err := validateTestimonial(in); err != nil {
		return nil, err
	}
	t, err := uc.repo.FindTestimonial(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if t == nil {
		return nil, apperr.NotFound("content.not_found")
	}
	uc.fillTestimonial(t, in)
	if err := uc.repo.UpdateTestimonial(ctx, t); err != nil {
		uc.logger.Error("failed to update testimonial", zap.String("id", id), zap.Error(err))
		return nil, apperr.Internal(err)
	}
	uc.invalidate(ctx)
	return t, nil
}

func (uc *contentUseCase) DeleteTestimonial(ctx context.Context, id string) error {
	ok, err := uc.repo.DeleteTestimonial(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("content.not_found")
	}
	uc.invalidate(ctx)
	return nil
}

func (uc *contentUseCase) Logos(ctx context.Context, activeOnly bool) ([]model.InstitutionLogo, error) {
	if !activeOnly {
		out, err := uc.repo.ListLogos(ctx, false)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		return out, nil
	}
	return cached(ctx, uc, logosKey, func() ([]model.InstitutionLogo, error) {
		return uc.repo.ListLogos(ctx, true)
	})
}

func isHTTPURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func validateLogo(in *dto.LogoInput) error {
	v := apperr.NewValidator()
	v.Required("name", in.Name)
	v.MaxLen("name", in.Name, 200)
	if v.Required("logo_url", in.LogoURL) {
		v.Check(isHTTPURL(strings.TrimSpace(in.LogoURL)), "logo_url", "validation.url")
	}
	if w := strings.TrimSpace(in.WebsiteURL); w != "" {
		v.Check(isHTTPURL(w), "website_url", "validation.url")
	}
	v.Check(in.DisplayOrder >= 0, "display_order", "validation.non_negative")
	return v.Err()
}

func (uc *contentUseCase) fillLogo(l *model.InstitutionLogo, in *dto.LogoInput) {
	l.Name = strings.TrimSpace(in.Name)
	l.LogoURL = strings.TrimSpace(in.LogoURL)
	l.WebsiteURL = optional(in.WebsiteURL)
	l.IsActive = active(in.IsActive)
	l.DisplayOrder = in.DisplayOrder
	l.UpdatedAt = uc.now()
}

func (uc *contentUseCase) CreateLogo(ctx context.Context, in *dto.LogoInput) (*model.InstitutionLogo, error) {
	if err := validateLogo(in); err != nil {
		return nil, err
	}
	l := &model.InstitutionLogo{}
	uc.fillLogo(l, in)
	l.ID = uuid.New().String()
	l.CreatedAt = l.UpdatedAt
	if err := uc.repo.CreateLogo(ctx, l); err != nil {
		uc.logger.Error("failed to create institution logo", zap.Error(err))
		return nil, apperr.Internal(err)
	}
	uc.invalidate(ctx)
	return l, nil
}

func (uc *contentUseCase) UpdateLogo(ctx context.Context, id string, in *dto.LogoInput) (*model.InstitutionLogo, error) {
	if err := validateLogo(in); err != nil {
		return nil, err
	}
	l, err := uc.repo.FindLogo(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if l == nil {
		return nil, apperr.NotFound("content.not_found")
	}
	uc.fillLogo(l, in)
	if err := uc.repo.UpdateLogo(ctx, l); err != nil {
		uc.logger.Error("failed to update institution logo", zap.String("id", id), zap.Error(err))
		return nil, apperr.Internal(err)
	}
	uc.invalidate(ctx)
	return l, nil
}

func (uc *contentUseCase) DeleteLogo(ctx context.Context, id string) error {
	ok, err := uc.repo.DeleteLogo(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("content.not_found")
	}
	uc.invalidate(ctx)
	return nil
}
