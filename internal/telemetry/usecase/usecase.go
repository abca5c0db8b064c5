package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/metrics"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/telemetry"
	"github.com/fekuna/scistore-service/internal/telemetry/dto"
	"github.com/fekuna/scistore-service/pkg/i18n"
	"github.com/fekuna/scistore-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"
)

const maxWindow = 366 * 24 * time.Hour

type telemetryUseCase struct {
	repo    telemetry.Repository
	metrics *metrics.Metrics
	logger  logger.ZapLogger
	now     func() time.Time
}

func NewTelemetryUseCase(repo telemetry.Repository, m *metrics.Metrics, log logger.ZapLogger) telemetry.UseCase {
	return &telemetryUseCase{
		repo:    repo,
		metrics: m,
		logger:  log,
		now:     time.Now,
	}
}

func validate(in *dto.EventInput) error {
	v := apperr.NewValidator()
	if v.Required("event_type", in.EventType) {
		v.Check(telemetry.ValidType(in.EventType), "event_type", "telemetry.invalid_type")
	}
	if v.Required("session_id", in.SessionID) {
		v.Check(utf8.RuneCountInString(in.SessionID) <= telemetry.MaxSessionIDLen, "session_id", "validation.too_long")
	}
	v.Check(len(in.Path) <= telemetry.MaxPathLen, "path", "validation.too_long")
	if in.ProductID != "" {
		_, err := uuid.Parse(in.ProductID)
		v.Check(err == nil, "product_id", "validation.uuid")
	}
	if len(in.Payload) > 0 {
		v.Check(len(in.Payload) <= telemetry.MaxPayloadBytes, "payload", "validation.too_long")
		var obj map[string]any
		v.Check(json.Unmarshal(in.Payload, &obj) == nil, "payload", "validation.payload")
	}
	return v.Err()
}

func (uc *telemetryUseCase) Record(ctx context.Context, in *dto.EventInput) (*model.TelemetryEvent, error) {
	in.EventType = strings.ToLower(strings.TrimSpace(in.EventType))
	in.SessionID = strings.TrimSpace(in.SessionID)
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.Payload = bytes.TrimSpace(in.Payload)
	if bytes.Equal(in.Payload, []byte("null")) {
		in.Payload = nil
	}
	if err := validate(in); err != nil {
		return nil, err
	}

	e := &model.TelemetryEvent{
		ID:        uuid.New().String(),
		EventType: in.EventType,
		SessionID: in.SessionID,
		Path:      in.Path,
		Payload:   types.JSONText("{}"),
		Language:  i18n.Normalize(in.Language),
		CreatedAt: uc.now(),
	}
	if in.UserID != "" {
		e.UserID = &in.UserID
	}
	if in.ProductID != "" {
		e.ProductID = &in.ProductID
	}
	if len(in.Payload) > 0 {
		e.Payload = types.JSONText(in.Payload)
	}

	if err := uc.repo.Create(ctx, e); err != nil {
		uc.logger.Error("failed to record telemetry event", zap.String("event_type", e.EventType), zap.Error(err))
		return nil, apperr.Internal(err)
	}
	uc.metrics.TelemetryEvent(e.EventType)
	return e, nil
}

func (uc *telemetryUseCase) Summary(ctx context.Context, f *dto.SummaryFilter) (*telemetry.Summary, error) {
	if f.To.IsZero() {
		f.To = uc.now()
	}
	if f.From.IsZero() {
		f.From = f.To.AddDate(0, 0, -7)
	}
	if !f.From.Before(f.To) || f.To.Sub(f.From) > maxWindow {
		v := apperr.NewValidator()
		v.Add("from", "validation.date")
		return nil, v.Err()
	}

	counts, err := uc.repo.CountByType(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	s := &telemetry.Summary{From: f.From, To: f.To, Counts: []model.TelemetryCount{}}
	for _, c := range counts {
		s.Total += c.Count
		s.Counts = append(s.Counts, c)
	}
	return s, nil
}
