// Package cart keeps shopping carts outside the database and computes their
// totals.
package cart

import (
	"math"
	"time"

	"github.com/fekuna/scistore-service/internal/model"
)

type Item struct {
	ProductID string  `json:"product_id"`
	SKU       string  `json:"sku"`
	Slug      string  `json:"slug"`
	NameEn    string  `json:"name_en"`
	NameBn    string  `json:"name_bn"`
	ImageURL  *string `json:"image_url"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Stock     int     `json:"stock"`
}

func (i Item) LineTotal() float64 {
	return Round(i.UnitPrice * float64(i.Quantity))
}

type Cart struct {
	ID        string    `json:"id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Cart) Find(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) Remove(productID string) bool {
	i := c.Find(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// ShippingPolicy holds the store's flat shipping fee and the subtotal at
// which shipping becomes free.
type ShippingPolicy struct {
	Fee           float64
	FreeThreshold float64
	Currency      string
}

type Totals struct {
	ItemCount            int     `json:"item_count"`
	Subtotal             float64 `json:"subtotal"`
	ShippingFee          float64 `json:"shipping_fee"`
	Total                float64 `json:"total"`
	FreeShipping         bool    `json:"free_shipping"`
	AmountToFreeShipping float64 `json:"amount_to_free_shipping"`
	Currency             string  `json:"currency"`
}

// Round rounds money to 2 decimal places, half away from zero.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeTotals sums line totals and applies the shipping policy. An empty
// cart ships free; otherwise shipping is free once the subtotal reaches the
// threshold.
func ComputeTotals(items []Item, p ShippingPolicy) Totals {
	t := Totals{Currency: p.Currency}
	for _, it := range items {
		t.ItemCount += it.Quantity
		t.Subtotal += it.LineTotal()
	}
	t.Subtotal = Round(t.Subtotal)

	switch {
	case len(items) == 0:
		t.FreeShipping = true
	case t.Subtotal >= p.FreeThreshold:
		t.FreeShipping = true
	default:
		t.ShippingFee = Round(p.Fee)
		t.AmountToFreeShipping = Round(p.FreeThreshold - t.Subtotal)
	}
	t.Total = Round(t.Subtotal + t.ShippingFee)
	return t
}

// ItemFromProduct snapshots the fields the cart shows without another lookup.
func ItemFromProduct(p *model.Product, quantity int) Item {
	return Item{
		ProductID: p.ID,
		SKU:       p.SKU,
		Slug:      p.Slug,
		NameEn:    p.NameEn,
		NameBn:    p.NameBn,
		ImageURL:  p.ImageURL,
		UnitPrice: p.Price,
		Quantity:  quantity,
		Stock:     p.Stock,
	}
}
