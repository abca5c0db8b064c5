package dto

import "github.com/fekuna/scistore-service/internal/model"

type ShippingInput struct {
	FullName    string
	Email       string
	Phone       string
	Institution string
	Address     string
	City        string
	PostalCode  string
	Notes       string
}

// CreateOrderInput is the create-order function's request.
type CreateOrderInput struct {
	CartID         string
	UserID         string
	Shipping       ShippingInput
	PaymentMethod  model.PaymentMethod
	IdempotencyKey string
	Language       string
}

type PlaceOrderInput struct {
	SessionID      string
	CallerID       string
	Shipping       ShippingInput
	PaymentMethod  model.PaymentMethod
	IdempotencyKey string
	Language       string
}
