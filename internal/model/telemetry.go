package model

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

type TelemetryEvent struct {
	ID        string         `db:"id" json:"id"`
	EventType string         `db:"event_type" json:"event_type"`
	SessionID string         `db:"session_id" json:"session_id"`
	UserID    *string        `db:"user_id" json:"user_id"`
	Path      string         `db:"path" json:"path"`
	ProductID *string        `db:"product_id" json:"product_id"`
	Payload   types.JSONText `db:"payload" json:"payload"`
	Language  string         `db:"language" json:"language"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

type TelemetryCount struct {
	EventType string `db:"event_type" json:"event_type"`
	Count     int    `db:"count" json:"count"`
}
