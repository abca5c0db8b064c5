package repository

import (
	"context"
	"fmt"

	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/telemetry/dto"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, e *model.TelemetryEvent) error {
	query := `
        INSERT INTO telemetry_events (id, event_type, session_id, user_id, path, product_id, payload, language, created_at)
        VALUES (:id, :event_type, :session_id, :user_id, :path, :product_id, :payload, :language, :created_at)
    `
	if _, err := r.DB.NamedExecContext(ctx, query, e); err != nil {
		return fmt.Errorf("failed to insert telemetry event: %w", err)
	}
	return nil
}

func (r *PGRepository) CountByType(ctx context.Context, f *dto.SummaryFilter) ([]model.TelemetryCount, error) {
	var counts []model.TelemetryCount
	query := `
        SELECT event_type, count(*) AS count
        FROM telemetry_events
        WHERE created_at >= $1 AND created_at < $2
        GROUP BY event_type
        ORDER BY count DESC, event_type ASC
    `
	if err := r.DB.SelectContext(ctx, &counts, query, f.From, f.To); err != nil {
		return nil, err
	}
	return counts, nil
}
