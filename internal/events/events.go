// Package events defines the messages published on the orders and quotes
// topics and the envelope they travel in.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	OrderCreated       = "OrderCreated"
	OrderStatusChanged = "OrderStatusChanged"
	QuoteSubmitted     = "QuoteSubmitted"
)

type Envelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

func New(eventType string, payload any) (*Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Envelope{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Payload:   raw,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Decode unmarshals a message value and its payload in one go.
func Decode(value []byte, payload any) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if payload != nil && len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, payload); err != nil {
			return &env, fmt.Errorf("unmarshal %s payload: %w", env.EventType, err)
		}
	}
	return &env, nil
}

type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

type OrderPayload struct {
	ID            string      `json:"id"`
	OrderNumber   string      `json:"order_number"`
	UserID        *string     `json:"user_id,omitempty"`
	CustomerEmail string      `json:"customer_email"`
	PaymentMethod string      `json:"payment_method"`
	Total         float64     `json:"total"`
	Currency      string      `json:"currency"`
	Items         []OrderItem `json:"items"`
}

type StatusChangedPayload struct {
	OrderID     string      `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	From        string      `json:"from"`
	To          string      `json:"to"`
	Items       []OrderItem `json:"items"`
}

type QuotePayload struct {
	ID              string `json:"id"`
	ReferenceNumber string `json:"reference_number"`
	Language        string `json:"language"`
}
