package dto

import "github.com/fekuna/scistore-service/internal/model"

// ProductFilters drives the admin list, evaluated in SQL.
type ProductFilters struct {
	CategoryID  string
	IsActive    *bool
	SearchQuery string // name_en, name_bn, sku, model_number
	SortBy      string // name, price, stock, created_at
	SortOrder   string // asc, desc
	Page        int
	PageSize    int
}

const (
	ModePages    = "pages"
	ModeInfinite = "infinite"
)

// ListingQuery is a storefront catalog request. It is evaluated in memory
// over the cached active catalog.
type ListingQuery struct {
	Search       string
	CategorySlug string
	MinPrice     *float64
	MaxPrice     *float64
	InStockOnly  bool
	Sort         string
	Mode         string
	Page         int // pages mode, 1-based
	PerPage      int
	Cursor       int // infinite mode, offset of the first item
}

type ListingResult struct {
	Items     []model.Product `json:"items"`
	Total     int             `json:"total"`
	Sort      string          `json:"sort"`
	Mode      string          `json:"mode"`
	Page      int             `json:"page,omitempty"`
	PerPage   int             `json:"per_page"`
	PageCount int             `json:"page_count"`
	// Infinite mode only.
	NextCursor *int `json:"next_cursor,omitempty"`
	HasMore    bool `json:"has_more"`
}

type ProductDetail struct {
	Product  model.Product   `json:"product"`
	Related  []model.Product `json:"related"`
	Category *model.Category `json:"category,omitempty"`
}

type Suggestion struct {
	ID       string  `json:"id"`
	Slug     string  `json:"slug"`
	NameEn   string  `json:"name_en"`
	NameBn   string  `json:"name_bn"`
	SKU      string  `json:"sku"`
	Price    float64 `json:"price"`
	ImageURL *string `json:"image_url"`
}
