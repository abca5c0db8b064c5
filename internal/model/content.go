package model

import "time"

type WishlistItem struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	ProductID string    `db:"product_id" json:"product_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Product   *Product  `db:"-" json:"product,omitempty"`
}

type Testimonial struct {
	BaseModel
	AuthorName   string  `db:"author_name" json:"author_name"`
	AuthorTitle  *string `db:"author_title" json:"author_title"`
	Institution  *string `db:"institution" json:"institution"`
	ContentEn    string  `db:"content_en" json:"content_en"`
	ContentBn    *string `db:"content_bn" json:"content_bn"`
	Rating       int     `db:"rating" json:"rating"`
	IsActive     bool    `db:"is_active" json:"is_active"`
	DisplayOrder int     `db:"display_order" json:"display_order"`
}

type InstitutionLogo struct {
	BaseModel
	Name         string  `db:"name" json:"name"`
	LogoURL      string  `db:"logo_url" json:"logo_url"`
	WebsiteURL   *string `db:"website_url" json:"website_url"`
	IsActive     bool    `db:"is_active" json:"is_active"`
	DisplayOrder int     `db:"display_order" json:"display_order"`
}
