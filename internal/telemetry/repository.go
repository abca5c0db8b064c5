package telemetry

import (
	"context"

	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/telemetry/dto"
)

type Repository interface {
	Create(ctx context.Context, e *model.TelemetryEvent) error
	CountByType(ctx context.Context, f *dto.SummaryFilter) ([]model.TelemetryCount, error)
}
