package order

import (
	"github.com/fekuna/scistore-service/internal/events"
	"github.com/fekuna/scistore-service/internal/model"
)

// EventItems converts order lines to their event form.
func EventItems(items []model.OrderItem) []events.OrderItem {
	out := make([]events.OrderItem, 0, len(items))
	for _, it := range items {
		e := events.OrderItem{Name: it.ProductName, Quantity: it.Quantity}
		if it.ProductID != nil {
			e.ProductID = *it.ProductID
		}
		out = append(out, e)
	}
	return out
}
