package dto

type AdjustInventoryInput struct {
	ProductID      string
	QuantityChange int
	MovementType   string // adjustment or restock; defaults to adjustment
	Reason         string
	ReferenceType  string
	ReferenceID    string
	UserID         string
}

// StockLine is one product/quantity pair of an order.
type StockLine struct {
	ProductID string
	Name      string
	Quantity  int
}
