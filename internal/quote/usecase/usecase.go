package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/events"
	"github.com/fekuna/scistore-service/internal/metrics"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/quote"
	"github.com/fekuna/scistore-service/internal/quote/dto"
	"github.com/fekuna/scistore-service/pkg/broker"
	"github.com/fekuna/scistore-service/pkg/i18n"
	"github.com/fekuna/scistore-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"
)

// referenceAttempts bounds retries on reference number collisions.
const referenceAttempts = 5

type quoteUseCase struct {
	repo      quote.Repository
	notifier  quote.Notifier
	publisher broker.Publisher
	metrics   *metrics.Metrics
	logger    logger.ZapLogger
	now       func() time.Time
}

func NewQuoteUseCase(repo quote.Repository, notifier quote.Notifier, publisher broker.Publisher, m *metrics.Metrics, log logger.ZapLogger) quote.UseCase {
	return &quoteUseCase{
		repo:      repo,
		notifier:  notifier,
		publisher: publisher,
		metrics:   m,
		logger:    log,
		now:       time.Now,
	}
}

func (uc *quoteUseCase) ValidateStep(_ context.Context, step quote.Step, draft quote.Draft) error {
	return quote.ValidateStep(step, draft.Normalize(), uc.now())
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (uc *quoteUseCase) Submit(ctx context.Context, input *quote.SubmitInput) (*model.QuoteRequest, error) {
	d := input.Draft.Normalize()
	now := uc.now()
	if err := quote.ValidateStep(quote.StepReview, d, now); err != nil {
		return nil, err
	}

	items, err := json.Marshal(d.Items)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	q := &model.QuoteRequest{
		ReferenceNumber: quote.ReferenceNumber(now),
		Status:          model.QuoteNew,
		UserID:          optional(input.UserID),
		ContactName:     d.ContactName,
		Email:           d.Email,
		Phone:           d.Phone,
		Designation:     optional(d.Designation),
		Institution:     d.Institution,
		InstitutionType: d.InstitutionType,
		Department:      optional(d.Department),
		City:            optional(d.City),
		Items:           types.JSONText(items),
		Budget:          optional(d.Budget),
		RequiredBy:      d.RequiredByDate(),
		Notes:           optional(d.Notes),
		Language:        i18n.Normalize(input.Language),
	}
	q.ID = uuid.New().String()
	q.CreatedAt = now
	q.UpdatedAt = now

	if err := uc.create(ctx, q, now); err != nil {
		uc.logger.Error("failed to create quote request", zap.String("institution", q.Institution), zap.Error(err))
		return nil, apperr.Internal(err)
	}

	uc.logger.Info("quote request submitted",
		zap.String("quote_id", q.ID),
		zap.String("reference", q.ReferenceNumber),
		zap.Int("items", len(d.Items)),
	)
	uc.metrics.QuoteSubmitted()

	env, err := events.New(events.QuoteSubmitted, events.QuotePayload{
		ID:              q.ID,
		ReferenceNumber: q.ReferenceNumber,
		Language:        q.Language,
	})
	if err == nil {
		err = uc.publisher.Publish(ctx, q.ID, env)
	}
	if err != nil {
		// The notification can be resent from the back office.
		uc.logger.Error("failed to publish quote submitted", zap.String("quote_id", q.ID), zap.Error(err))
	}
	return q, nil
}

// create draws a fresh reference number whenever the stored one collides.
func (uc *quoteUseCase) create(ctx context.Context, q *model.QuoteRequest, now time.Time) error {
	var err error
	for i := 0; i < referenceAttempts; i++ {
		if i > 0 {
			q.ReferenceNumber = quote.ReferenceNumber(now)
		}
		if err = uc.repo.Create(ctx, q); !errors.Is(err, quote.ErrDuplicateReference) {
			return err
		}
		uc.logger.Warn("quote reference collided, retrying", zap.String("reference", q.ReferenceNumber))
	}
	return err
}

func (uc *quoteUseCase) GetQuote(ctx context.Context, id string) (*model.QuoteRequest, error) {
	q, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if q == nil {
		return nil, apperr.NotFound("quote.not_found")
	}
	return q, nil
}

func (uc *quoteUseCase) ListQuotes(ctx context.Context, filters *dto.QuoteFilters) ([]model.QuoteRequest, int, error) {
	quotes, total, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return quotes, total, nil
}

func (uc *quoteUseCase) UpdateStatus(ctx context.Context, id string, to model.QuoteStatus) (*model.QuoteRequest, error) {
	q, err := uc.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	from := q.Status
	if err := quote.CheckTransition(from, to); err != nil {
		return nil, err
	}
	ok, err := uc.repo.UpdateStatus(ctx, id, from, to)
	if err != nil {
		uc.logger.Error("failed to update quote status", zap.String("quote_id", id), zap.Error(err))
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, apperr.Aborted("quote.concurrent_update")
	}
	q.Status = to
	q.UpdatedAt = uc.now()
	uc.logger.Info("quote status changed",
		zap.String("quote_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return q, nil
}

func (uc *quoteUseCase) SendNotification(ctx context.Context, id string) error {
	q, err := uc.GetQuote(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.notifier.QuoteSubmitted(ctx, q); err != nil {
		uc.logger.Error("failed to send quote notification", zap.String("quote_id", id), zap.Error(err))
		return apperr.Internal(err)
	}
	uc.logger.Info("quote notification sent", zap.String("quote_id", id), zap.String("reference", q.ReferenceNumber))
	return nil
}
