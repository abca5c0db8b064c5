// Package telemetry records storefront interaction events.
package telemetry

const (
	PageView     = "page_view"
	ProductView  = "product_view"
	Search       = "search"
	AddToCart    = "add_to_cart"
	CheckoutStep = "checkout_step"
	QuoteStep    = "quote_step"
)

var EventTypes = []string{PageView, ProductView, Search, AddToCart, CheckoutStep, QuoteStep}

func ValidType(t string) bool {
	for _, et := range EventTypes {
		if et == t {
			return true
		}
	}
	return false
}

const (
	// MaxPayloadBytes bounds the raw JSON payload of a single event.
	MaxPayloadBytes = 8 << 10
	MaxSessionIDLen = 128
	MaxPathLen      = 2048
)
