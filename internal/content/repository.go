package content

import (
	"context"

	"github.com/fekuna/scistore-service/internal/model"
)

type Repository interface {
	// AddWishlist reports false when the product was already on the list.
	AddWishlist(ctx context.Context, item *model.WishlistItem) (bool, error)
	RemoveWishlist(ctx context.Context, userID, productID string) (bool, error)
	ListWishlist(ctx context.Context, userID string) ([]model.WishlistItem, error)

	ListTestimonials(ctx context.Context, activeOnly bool) ([]model.Testimonial, error)
	FindTestimonial(ctx context.Context, id string) (*model.Testimonial, error)
	CreateTestimonial(ctx context.Context, t *model.Testimonial) error
	UpdateTestimonial(ctx context.Context, t *model.Testimonial) error
	DeleteTestimonial(ctx context.Context, id string) (bool, error)

	ListLogos(ctx context.Context, activeOnly bool) ([]model.InstitutionLogo, error)
	FindLogo(ctx context.Context, id string) (*model.InstitutionLogo, error)
	CreateLogo(ctx context.Context, l *model.InstitutionLogo) error
	UpdateLogo(ctx context.Context, l *model.InstitutionLogo) error
	DeleteLogo(ctx context.Context, id string) (bool, error)
}
