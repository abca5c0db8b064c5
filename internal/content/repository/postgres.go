package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fekuna/scistore-service/internal/model"
	"github.com/jmoiron/sqlx"
)

const (
	testimonialColumns = `id, author_name, author_title, institution, content_en, content_bn, rating,
	is_active, display_order, created_at, updated_at`
	logoColumns = `id, name, logo_url, website_url, is_active, display_order, created_at, updated_at`
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PGRepository) AddWishlist(ctx context.Context, item *model.WishlistItem) (bool, error) {
	return affected(r.DB.NamedExecContext(ctx, `
        INSERT INTO wishlists (id, user_id, product_id, created_at)
        VALUES (:id, :user_id, :product_id, :created_at)
        ON CONFLICT (user_id, product_id) DO NOTHING`, item))
}

func (r *PGRepository) RemoveWishlist(ctx context.Context, userID, productID string) (bool, error) {
	return affected(r.DB.ExecContext(ctx, `DELETE FROM wishlists WHERE user_id = $1 AND product_id = $2`, userID, productID))
}

func (r *PGRepository) ListWishlist(ctx context.Context, userID string) ([]model.WishlistItem, error) {
	var items []model.WishlistItem
	err := r.DB.SelectContext(ctx, &items,
		`SELECT id, user_id, product_id, created_at FROM wishlists WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	return items, err
}

func (r *PGRepository) ListTestimonials(ctx context.Context, activeOnly bool) ([]model.Testimonial, error) {
	query := `SELECT ` + testimonialColumns + ` FROM testimonials`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY display_order, created_at DESC`
	var out []model.Testimonial
	err := r.DB.SelectContext(ctx, &out, query)
	return out, err
}

func (r *PGRepository) FindTestimonial(ctx context.Context, id string) (*model.Testimonial, error) {
	var t model.Testimonial
	if err := r.DB.GetContext(ctx, &t, `SELECT `+testimonialColumns+` FROM testimonials WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *PGRepository) CreateTestimonial(ctx context.Context, t *model.Testimonial) error {
	_, err := r.DB.NamedExecContext(ctx, `
        INSERT INTO testimonials (`+testimonialColumns+`)
        VALUES (:id, :author_name, :author_title, :institution, :content_en, :content_bn, :rating,
            :is_active, :display_order, :created_at, :updated_at)`, t)
	if err != nil {
		return fmt.Errorf("failed to insert testimonial: %w", err)
	}
	return nil
}

func (r *PGRepository) UpdateTestimonial(ctx context.Context, t *model.Testimonial) error {
	_, err := r.DB.NamedExecContext(ctx, `
        UPDATE testimonials SET
            author_name = :author_name, author_title = :author_title, institution = :institution,
            content_en = :content_en, content_bn = :content_bn, rating = :rating,
            is_active = :is_active, display_order = :display_order, updated_at = :updated_at
        WHERE id = :id`, t)
	if err != nil {
		return fmt.Errorf("failed to update testimonial: %w", err)
	}
	return nil
}

func (r *PGRepository) DeleteTestimonial(ctx context.Context, id string) (bool, error) {
	return affected(r.DB.ExecContext(ctx, `DELETE FROM testimonials WHERE id = $1`, id))
}

func (r *PGRepository) ListLogos(ctx context.Context, activeOnly bool) ([]model.InstitutionLogo, error) {
	query := `SELECT ` + logoColumns + ` FROM institution_logos`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY display_order, name`
	var out []model.InstitutionLogo
	err := r.DB.SelectContext(ctx, &out, query)
	return out, err
}

func (r *PGRepository) FindLogo(ctx context.Context, id string) (*model.InstitutionLogo, error) {
	var l model.InstitutionLogo
	if err := r.DB.GetContext(ctx, &l, `SELECT `+logoColumns+` FROM institution_logos WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *PGRepository) CreateLogo(ctx context.Context, l *model.InstitutionLogo) error {
	_, err := r.DB.NamedExecContext(ctx, `
        INSERT INTO institution_logos (`+logoColumns+`)
        VALUES (:id, :name, :logo_url, :website_url, :is_active, :display_order, :created_at, :updated_at)`, l)
	if err != nil {
		return fmt.Errorf("failed to insert institution logo: %w", err)
	}
	return nil
}

func (r *PGRepository) UpdateLogo(ctx context.Context, l *model.InstitutionLogo) error {
	_, err := r.DB.NamedExecContext(ctx, `
        UPDATE institution_logos SET
            name = :name, logo_url = :logo_url, website_url = :website_url,
            is_active = :is_active, display_order = :display_order, updated_at = :updated_at
        WHERE id = :id`, l)
	if err != nil {
		return fmt.Errorf("failed to update institution logo: %w", err)
	}
	return nil
}

func (r *PGRepository) DeleteLogo(ctx context.Context, id string) (bool, error) {
	return affected(r.DB.ExecContext(ctx, `DELETE FROM institution_logos WHERE id = $1`, id))
}
