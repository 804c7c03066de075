package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every accepted status in lifecycle order
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ParseOrderStatus converts caller input into a known status
func ParseOrderStatus(s string) (OrderStatus, error) {
	candidate := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, status := range OrderStatuses {
		if candidate == status {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// OrderItem is the snapshot of a cart line at checkout time
type OrderItem struct {
	ProductID uuid.UUID       `json:"_id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug,omitempty"`
	Price     decimal.Decimal `json:"price"`
}

// PaymentReceipt is the processor's answer for a settled sale
type PaymentReceipt struct {
	TransactionID  string    `json:"transaction_id"`
	Status         string    `json:"status"`
	Amount         string    `json:"amount"`
	Currency       string    `json:"currency,omitempty"`
	ProcessorReply string    `json:"processor_response,omitempty"`
	Success        bool      `json:"success"`
	CreatedAt      time.Time `json:"created_at"`
}

// Order is a paid purchase
type Order struct {
	ID        uuid.UUID       `json:"_id" db:"id"`
	Items     []OrderItem     `json:"products" db:"items"`
	Payment   PaymentReceipt  `json:"payment" db:"payment"`
	BuyerID   uuid.UUID       `json:"-" db:"buyer_id"`
	Buyer     *UserSummary    `json:"buyer" db:"-"`
	Status    OrderStatus     `json:"status" db:"status"`
	Total     decimal.Decimal `json:"total" db:"total"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
