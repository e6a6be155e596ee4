package models

import (
	"time"

	"github.com/gocql/gocql"
)

const (
	MovementSale       = "sale"
	MovementReturn     = "return"
	MovementRestock    = "restock"
	MovementAdjustment = "adjustment"
)

type StockMovement struct {
	ID        gocql.UUID  `json:"id"`
	ProductID gocql.UUID  `json:"product_id"`
	Type      string      `json:"type"` // "sale", "return", "restock", "adjustment"
	Quantity  int         `json:"quantity"`
	PrevStock int         `json:"prev_stock"`
	NewStock  int         `json:"new_stock"`
	Reason    string      `json:"reason"`
	OrderID   *gocql.UUID `json:"order_id,omitempty"`
	UserID    string      `json:"user_id"`
	CreatedAt time.Time   `json:"created_at"`
}

type StockUpdateRequest struct {
	Quantity int    `json:"quantity" binding:"max=2147483647"`
	Reason   string `json:"reason" binding:"required"`
	Type     string `json:"type" binding:"required,oneof=restock adjustment"`
}
