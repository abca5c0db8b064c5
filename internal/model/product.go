package model

import "github.com/jmoiron/sqlx/types"

type Product struct {
	BaseModel
	SKU             string         `db:"sku" json:"sku"`
	Slug            string         `db:"slug" json:"slug"`
	NameEn          string         `db:"name_en" json:"name_en"`
	NameBn          string         `db:"name_bn" json:"name_bn"`
	DescriptionEn   *string        `db:"description_en" json:"description_en"`
	DescriptionBn   *string        `db:"description_bn" json:"description_bn"`
	Brand           *string        `db:"brand" json:"brand"`
	ModelNumber     *string        `db:"model_number" json:"model_number"`
	CategoryID      *string        `db:"category_id" json:"category_id"` // Nullable
	Price           float64        `db:"price" json:"price"`
	CompareAtPrice  *float64       `db:"compare_at_price" json:"compare_at_price"`
	Stock           int            `db:"stock" json:"stock"`
	IsActive        bool           `db:"is_active" json:"is_active"`
	IsFeatured      bool           `db:"is_featured" json:"is_featured"`
	DisplayOrder    int            `db:"display_order" json:"display_order"`
	ImageURL        *string        `db:"image_url" json:"image_url"`
	Specifications  types.JSONText `db:"specifications" json:"specifications"`
	MetaTitle       *string        `db:"meta_title" json:"meta_title"`
	MetaDescription *string        `db:"meta_description" json:"meta_description"`
	MetaKeywords    *string        `db:"meta_keywords" json:"meta_keywords"`
	Category        *Category      `db:"-" json:"category,omitempty"` // Joined data
}

func (p *Product) InStock() bool { return p.Stock > 0 }
