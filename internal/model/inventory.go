package model

import "time"

const (
	MovementAdjustment = "adjustment"
	MovementSale       = "sale"
	MovementRestock    = "restock"
)

type InventoryMovement struct {
	ID             string    `db:"id" json:"id"`
	ProductID      string    `db:"product_id" json:"product_id"`
	MovementType   string    `db:"movement_type" json:"movement_type"`
	QuantityChange int       `db:"quantity_change" json:"quantity_change"`
	QuantityBefore int       `db:"quantity_before" json:"quantity_before"`
	QuantityAfter  int       `db:"quantity_after" json:"quantity_after"`
	ReferenceType  *string   `db:"reference_type" json:"reference_type"`
	ReferenceID    *string   `db:"reference_id" json:"reference_id"`
	Notes          string    `db:"notes" json:"notes"`
	CreatedBy      *string   `db:"created_by" json:"created_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// StockLevel is a lightweight projection used by the low-stock report.
type StockLevel struct {
	ProductID string `db:"id" json:"product_id"`
	SKU       string `db:"sku" json:"sku"`
	NameEn    string `db:"name_en" json:"name_en"`
	Stock     int    `db:"stock" json:"stock"`
}
