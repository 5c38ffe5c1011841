package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

func (s PaymentStatus) String() string {
	return string(s)
}

type OrderItem struct {
	ID          int64     `json:"id"`
	OrderID     uuid.UUID `json:"-"`
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   int64     `json:"unit_price_minor"`
}

func (i OrderItem) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// ShippingInfo is the contact snapshot frozen into an order at checkout.
type ShippingInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type Order struct {
	ID               uuid.UUID     `json:"id"`
	UserID           int64         `json:"user_id"`
	TotalMinor       int64         `json:"total_minor"`
	Currency         string        `json:"currency"`
	PaymentReference string        `json:"payment_reference"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	Status           OrderStatus   `json:"status"`
	Shipping         ShippingInfo  `json:"shipping"`
	Items            []OrderItem   `json:"items"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}
