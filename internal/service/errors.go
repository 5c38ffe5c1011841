package service

import "errors"

var (
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrQuantityInvalid    = errors.New("quantity must be at least 1")
	ErrNotAuthenticated   = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrShippingIncomplete = errors.New("shipping name, email and address are required")
)
