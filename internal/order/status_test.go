package order

import (
	"testing"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
)

func TestCheckTransition(t *testing.T) {
	all := []model.OrderStatus{
		model.OrderPending, model.OrderConfirmed, model.OrderProcessing,
		model.OrderShipped, model.OrderDelivered, model.OrderCancelled,
	}
	allowed := map[[2]model.OrderStatus]bool{
		{model.OrderPending, model.OrderConfirmed}:    true,
		{model.OrderPending, model.OrderCancelled}:    true,
		{model.OrderConfirmed, model.OrderProcessing}: true,
		{model.OrderConfirmed, model.OrderCancelled}:  true,
		{model.OrderProcessing, model.OrderShipped}:   true,
		{model.OrderProcessing, model.OrderCancelled}: true,
		{model.OrderShipped, model.OrderDelivered}:    true,
	}

	for _, from := range all {
		for _, to := range all {
			err := CheckTransition(from, to)
			if allowed[[2]model.OrderStatus{from, to}] {
				assert.NoError(t, err, "%s -> %s", from, to)
				continue
			}
			assert.Equal(t, codes.FailedPrecondition, apperr.CodeOf(err), "%s -> %s", from, to)
		}
	}
}

func TestCheckTransitionUnknownStatus(t *testing.T) {
	err := CheckTransition(model.OrderPending, "lost")
	assert.Equal(t, codes.InvalidArgument, apperr.CodeOf(err))
	assert.Equal(t, "validation.enum", apperr.From(err).Fields["status"])
}

func TestTerminalStatuses(t *testing.T) {
	assert.Empty(t, NextStatuses(model.OrderDelivered))
	assert.Empty(t, NextStatuses(model.OrderCancelled))
}

func TestEventItemsSkipsNothing(t *testing.T) {
	pid := "p1"
	items := EventItems([]model.OrderItem{
		{ProductID: &pid, ProductName: "Beaker", Quantity: 2},
		{ProductName: "Deleted", Quantity: 1},
	})
	assert.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, "", items[1].ProductID)
}
