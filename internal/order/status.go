package order

import (
	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/model"
)

var transitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderPending:    {model.OrderConfirmed, model.OrderCancelled},
	model.OrderConfirmed:  {model.OrderProcessing, model.OrderCancelled},
	model.OrderProcessing: {model.OrderShipped, model.OrderCancelled},
	model.OrderShipped:    {model.OrderDelivered},
}

// NextStatuses lists the statuses reachable from s. Terminal statuses have none.
func NextStatuses(s model.OrderStatus) []model.OrderStatus {
	return transitions[s]
}

// CheckTransition rejects unknown statuses, no-op moves and moves the
// status graph does not allow.
func CheckTransition(from, to model.OrderStatus) error {
	if !to.Valid() {
		v := apperr.NewValidator()
		v.Add("status", "validation.enum")
		return v.Err()
	}
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return apperr.Precondition("order.invalid_transition").
		WithData(map[string]any{"From": string(from), "To": string(to)})
}
