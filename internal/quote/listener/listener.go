package listener

import (
	"context"
	"time"

	"github.com/fekuna/scistore-service/internal/events"
	"github.com/fekuna/scistore-service/internal/quote"
	"github.com/fekuna/scistore-service/pkg/broker"
	"github.com/fekuna/scistore-service/pkg/logger"
	"go.uber.org/zap"
)

// QuoteListener sends the confirmation emails for submitted quote requests.
type QuoteListener struct {
	consumer broker.Reader
	uc       quote.UseCase
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewQuoteListener(consumer broker.Reader, uc quote.UseCase, logger logger.ZapLogger) *QuoteListener {
	return &QuoteListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
		backoff:  time.Second,
	}
}

// Start blocks until ctx is cancelled.
func (l *QuoteListener) Start(ctx context.Context) {
	l.logger.Info("Starting quote notification listener")
	for {
		msg, err := l.consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("Stopping quote notification listener")
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

func (l *QuoteListener) processMessage(ctx context.Context, value []byte) {
	var payload events.QuotePayload
	env, err := events.Decode(value, &payload)
	if err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}
	if env.EventType != events.QuoteSubmitted {
		return
	}
	if err := l.uc.SendNotification(ctx, payload.ID); err != nil {
		l.logger.Error("Failed to notify quote request",
			zap.String("quote_id", payload.ID),
			zap.String("reference", payload.ReferenceNumber),
			zap.Error(err),
		)
	}
}
