package product

import (
	"sort"
	"strings"

	"github.com/fekuna/scistore-service/internal/model"
)

type SortOrder string

const (
	SortFeatured  SortOrder = "featured"
	SortNewest    SortOrder = "newest"
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortNameAsc   SortOrder = "name_asc"
)

var SortOrders = []SortOrder{SortFeatured, SortNewest, SortPriceAsc, SortPriceDesc, SortNameAsc}

// ParseSort falls back to featured for empty or unknown values.
func ParseSort(s string) SortOrder {
	for _, o := range SortOrders {
		if string(o) == strings.ToLower(strings.TrimSpace(s)) {
			return o
		}
	}
	return SortFeatured
}

// Criteria are the storefront predicates, applied in order: search, category,
// price range, stock.
type Criteria struct {
	Search      string
	CategoryIDs []string // nil disables the category predicate
	MinPrice    *float64
	MaxPrice    *float64
	InStockOnly bool
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Matches reports whether the search term is a case-insensitive substring of
// any of name_en, name_bn, sku, brand or model_number.
func Matches(p *model.Product, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range []string{p.NameEn, p.NameBn, p.SKU, deref(p.Brand), deref(p.ModelNumber)} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Filter returns the products passing every predicate, preserving order.
func Filter(products []model.Product, c Criteria) []model.Product {
	var inCategory map[string]bool
	if c.CategoryIDs != nil {
		inCategory = make(map[string]bool, len(c.CategoryIDs))
		for _, id := range c.CategoryIDs {
			inCategory[id] = true
		}
	}

	out := make([]model.Product, 0, len(products))
	for i := range products {
		p := &products[i]
		if !Matches(p, c.Search) {
			continue
		}
		if inCategory != nil && (p.CategoryID == nil || !inCategory[*p.CategoryID]) {
			continue
		}
		if c.MinPrice != nil && p.Price < *c.MinPrice {
			continue
		}
		if c.MaxPrice != nil && p.Price > *c.MaxPrice {
			continue
		}
		if c.InStockOnly && !p.InStock() {
			continue
		}
		out = append(out, *p)
	}
	return out
}

// Sort orders products in place. Ties always fall back to id so paging is
// stable across requests.
func Sort(products []model.Product, order SortOrder) {
	compare := func(a, b *model.Product) int {
		switch order {
		case SortNewest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				if a.CreatedAt.After(b.CreatedAt) {
					return -1
				}
				return 1
			}
		case SortPriceAsc:
			if a.Price != b.Price {
				if a.Price < b.Price {
					return -1
				}
				return 1
			}
		case SortPriceDesc:
			if a.Price != b.Price {
				if a.Price > b.Price {
					return -1
				}
				return 1
			}
		case SortNameAsc:
			if c := strings.Compare(strings.ToLower(a.NameEn), strings.ToLower(b.NameEn)); c != 0 {
				return c
			}
		default:
			if a.IsFeatured != b.IsFeatured {
				if a.IsFeatured {
					return -1
				}
				return 1
			}
			if a.DisplayOrder != b.DisplayOrder {
				if a.DisplayOrder < b.DisplayOrder {
					return -1
				}
				return 1
			}
			if c := strings.Compare(a.NameEn, b.NameEn); c != 0 {
				return c
			}
		}
		return strings.Compare(a.ID, b.ID)
	}
	sort.SliceStable(products, func(i, j int) bool {
		return compare(&products[i], &products[j]) < 0
	})
}

// PageInfo describes one page of a numbered listing.
type PageInfo struct {
	Page      int
	PerPage   int
	PageCount int
	Start     int
	End       int
}

// Paginate clamps page into [1, page_count]. page_count is ceil(total/perPage)
// and 0 for an empty result, in which case page is 1 and the window empty.
func Paginate(total, page, perPage int) PageInfo {
	if perPage < 1 {
		perPage = 1
	}
	count := (total + perPage - 1) / perPage
	if page < 1 {
		page = 1
	}
	if page > count {
		page = max(count, 1)
	}
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return PageInfo{Page: page, PerPage: perPage, PageCount: count, Start: start, End: end}
}

// Window slices an offset/limit range for infinite scrolling.
func Window(total, cursor, limit int) (start, end int, hasMore bool) {
	if limit < 1 {
		limit = 1
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor > total {
		cursor = total
	}
	end = cursor + limit
	if end > total {
		end = total
	}
	return cursor, end, end < total
}
