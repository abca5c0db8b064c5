package listener

import (
	"context"
	"time"

	"github.com/fekuna/scistore-service/internal/events"
	"github.com/fekuna/scistore-service/internal/inventory"
	"github.com/fekuna/scistore-service/internal/inventory/dto"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/pkg/broker"
	"github.com/fekuna/scistore-service/pkg/logger"
	"go.uber.org/zap"
)

// InventoryListener returns stock to the shelf when an order is cancelled.
// Cancellation already restocks in the order transaction; Restock ignores
// lines it has seen, so redelivered events are harmless.
type InventoryListener struct {
	consumer broker.Reader
	uc       inventory.UseCase
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewInventoryListener(consumer broker.Reader, uc inventory.UseCase, logger logger.ZapLogger) *InventoryListener {
	return &InventoryListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
		backoff:  time.Second,
	}
}

// Start blocks until ctx is cancelled.
func (l *InventoryListener) Start(ctx context.Context) {
	l.logger.Info("Starting inventory listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping inventory listener")
			return
		default:
		}

		msg, err := l.consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("Stopping inventory listener")
				return
			}
			l.logger.Error("Failed to read kafka message", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(l.backoff):
			}
			continue
		}
		l.processMessage(ctx, msg.Value)
	}
}

func (l *InventoryListener) processMessage(ctx context.Context, value []byte) {
	var payload events.StatusChangedPayload
	env, err := events.Decode(value, nil)
	if err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}
	if env.EventType != events.OrderStatusChanged {
		return
	}
	if _, err := events.Decode(value, &payload); err != nil {
		l.logger.Error("Failed to unmarshal status change", zap.String("event_id", env.EventID), zap.Error(err))
		return
	}
	if payload.To != string(model.OrderCancelled) {
		return
	}

	lines := make([]dto.StockLine, 0, len(payload.Items))
	for _, item := range payload.Items {
		if item.ProductID == "" {
			continue
		}
		lines = append(lines, dto.StockLine{ProductID: item.ProductID, Name: item.Name, Quantity: item.Quantity})
	}

	l.logger.Info("Restocking cancelled order", zap.String("order_id", payload.OrderID), zap.Int("lines", len(lines)))
	if err := l.uc.Restock(ctx, payload.OrderID, lines); err != nil {
		l.logger.Error("Failed to restock cancelled order",
			zap.String("order_id", payload.OrderID),
			zap.Error(err),
		)
	}
}
