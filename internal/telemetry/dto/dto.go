package dto

import (
	"encoding/json"
	"time"
)

type EventInput struct {
	EventType string
	SessionID string
	Path      string
	ProductID string
	Payload   json.RawMessage
	UserID    string
	Language  string
}

// SummaryFilter selects events with From <= created_at < To.
type SummaryFilter struct {
	From time.Time
	To   time.Time
}
