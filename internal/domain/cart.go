package domain

import (
	"fmt"
	"time"
)

// Owner identifies who a cart line belongs to: an authenticated user
// or an anonymous visitor holding a cart token.
type Owner struct {
	UserID    int64
	CartToken string
}

func UserOwner(userID int64) Owner {
	return Owner{UserID: userID}
}

func AnonymousOwner(token string) Owner {
	return Owner{CartToken: token}
}

func (o Owner) Authenticated() bool {
	return o.UserID > 0
}

// Key is the storage key for the owner's cart. Authenticated identity
// takes precedence over the anonymous token.
func (o Owner) Key() string {
	if o.UserID > 0 {
		return fmt.Sprintf("u:%d", o.UserID)
	}
	return fmt.Sprintf("s:%s", o.CartToken)
}

func (o Owner) Valid() bool {
	return o.UserID > 0 || o.CartToken != ""
}

type CartItem struct {
	ID          int64     `json:"id"`
	Owner       string    `json:"-"`
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name"`
	UnitPrice   int64     `json:"unit_price_minor"`
	Quantity    int       `json:"quantity"`
	AddedAt     time.Time `json:"added_at"`
}

func (i CartItem) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

type Cart struct {
	Items      []CartItem `json:"items"`
	TotalMinor int64      `json:"total_minor"`
	Currency   string     `json:"currency"`
}

// NewCart computes the total over the given lines.
func NewCart(items []CartItem, currency string) *Cart {
	var total int64
	for _, item := range items {
		total += item.Subtotal()
	}
	return &Cart{Items: items, TotalMinor: total, Currency: currency}
}
