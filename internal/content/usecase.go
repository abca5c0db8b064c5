// Package content serves wishlists and the marketing content shown on the
// storefront: testimonials and institution logos.
package content

import (
	"context"

	"github.com/fekuna/scistore-service/internal/content/dto"
	"github.com/fekuna/scistore-service/internal/model"
)

type UseCase interface {
	Wishlist(ctx context.Context, userID string) ([]model.WishlistItem, error)
	AddToWishlist(ctx context.Context, userID, productID string) (*model.WishlistItem, error)
	RemoveFromWishlist(ctx context.Context, userID, productID string) error

	Testimonials(ctx context.Context, activeOnly bool) ([]model.Testimonial, error)
	CreateTestimonial(ctx context.Context, input *dto.TestimonialInput) (*model.Testimonial, error)
	UpdateTestimonial(ctx context.Context, id string, input *dto.TestimonialInput) (*model.Testimonial, error)
	DeleteTestimonial(ctx context.Context, id string) error

	Logos(ctx context.Context, activeOnly bool) ([]model.InstitutionLogo, error)
	CreateLogo(ctx context.Context, input *dto.LogoInput) (*model.InstitutionLogo, error)
	UpdateLogo(ctx context.Context, id string, input *dto.LogoInput) (*model.InstitutionLogo, error)
	DeleteLogo(ctx context.Context, id string) error
}
