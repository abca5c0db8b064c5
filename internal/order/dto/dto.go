package dto

import (
	"time"

	"github.com/fekuna/scistore-service/internal/model"
)

type OrderFilters struct {
	UserID   string
	Status   model.OrderStatus
	Search   string // order number, customer name, email or phone
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}
