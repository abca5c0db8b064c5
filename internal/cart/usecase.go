package cart

import "context"

// Adjustment explains why Refresh changed a line.
type Adjustment struct {
	ProductID string `json:"product_id"`
	Reason    string `json:"reason"`
}

const (
	AdjustRemoved      = "removed"
	AdjustPriceChanged = "price_changed"
	AdjustQuantityCap  = "quantity_capped"
)

type View struct {
	*Cart
	Totals      Totals       `json:"totals"`
	Adjustments []Adjustment `json:"adjustments,omitempty"`
}

type UseCase interface {
	Create(ctx context.Context) (*View, error)
	Get(ctx context.Context, id string) (*View, error)
	AddItem(ctx context.Context, id, productID string, quantity int) (*View, error)
	// SetQuantity replaces a line's quantity; 0 removes the line.
	SetQuantity(ctx context.Context, id, productID string, quantity int) (*View, error)
	RemoveItem(ctx context.Context, id, productID string) (*View, error)
	Clear(ctx context.Context, id string) error
	// Refresh re-prices every line from the catalog, dropping lines whose
	// product is gone, inactive or sold out and capping quantities at stock.
	Refresh(ctx context.Context, id string) (*View, error)
	Policy() ShippingPolicy
}
