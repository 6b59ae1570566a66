package models

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Order defines the persisted order document. Only Status is mutable.
type Order struct {
	ID         string      `bson:"_id" json:"id"`
	UserID     string      `bson:"userId" json:"user_id"`
	TotalPrice float64     `bson:"totalPrice" json:"total_price"`
	Status     OrderStatus `bson:"status" json:"status"`
	CreatedAt  time.Time   `bson:"createdAt" json:"created_at"`
	UpdatedAt  *time.Time  `bson:"updatedAt,omitempty" json:"updated_at,omitempty"`
}
