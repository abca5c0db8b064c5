package model

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
	PaymentMobileBanking  PaymentMethod = "mobile_banking"
	PaymentPurchaseOrder  PaymentMethod = "purchase_order"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCashOnDelivery, PaymentBankTransfer, PaymentMobileBanking, PaymentPurchaseOrder:
		return true
	}
	return false
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type Order struct {
	BaseModel
	OrderNumber        string        `db:"order_number" json:"order_number"`
	UserID             *string       `db:"user_id" json:"user_id"` // nil for guest checkout
	CustomerName       string        `db:"customer_name" json:"customer_name"`
	CustomerEmail      string        `db:"customer_email" json:"customer_email"`
	CustomerPhone      string        `db:"customer_phone" json:"customer_phone"`
	Institution        *string       `db:"institution" json:"institution"`
	ShippingAddress    string        `db:"shipping_address" json:"shipping_address"`
	ShippingCity       string        `db:"shipping_city" json:"shipping_city"`
	ShippingPostalCode *string       `db:"shipping_postal_code" json:"shipping_postal_code"`
	Notes              *string       `db:"notes" json:"notes"`
	PaymentMethod      PaymentMethod `db:"payment_method" json:"payment_method"`
	Status             OrderStatus   `db:"status" json:"status"`
	Subtotal           float64       `db:"subtotal" json:"subtotal"`
	ShippingFee        float64       `db:"shipping_fee" json:"shipping_fee"`
	Total              float64       `db:"total" json:"total"`
	Currency           string        `db:"currency" json:"currency"`
	Language           string        `db:"language" json:"language"`
	IdempotencyKey     *string       `db:"idempotency_key" json:"-"`
	CartID             *string       `db:"cart_id" json:"-"`
	Items              []OrderItem   `db:"-" json:"items"`
}

type OrderItem struct {
	ID          string  `db:"id" json:"id"`
	OrderID     string  `db:"order_id" json:"order_id"`
	ProductID   *string `db:"product_id" json:"product_id"`
	ProductName string  `db:"product_name" json:"product_name"`
	SKU         string  `db:"sku" json:"sku"`
	UnitPrice   float64 `db:"unit_price" json:"unit_price"`
	Quantity    int     `db:"quantity" json:"quantity"`
	LineTotal   float64 `db:"line_total" json:"line_total"`
}
