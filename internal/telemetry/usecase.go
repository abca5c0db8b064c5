package telemetry

import (
	"context"
	"time"

	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/telemetry/dto"
)

type Summary struct {
	From   time.Time              `json:"from"`
	To     time.Time              `json:"to"`
	Total  int                    `json:"total"`
	Counts []model.TelemetryCount `json:"counts"`
}

type UseCase interface {
	Record(ctx context.Context, input *dto.EventInput) (*model.TelemetryEvent, error)
	Summary(ctx context.Context, filter *dto.SummaryFilter) (*Summary, error)
}
