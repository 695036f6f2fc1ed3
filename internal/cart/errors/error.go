// Package errors provides custom error types for cart-related operations.
package errors

import "errors"

var ErrCartNotFound = errors.New("cart not found")
var ErrCartItemNotFound = errors.New("cart item not found")

// ErrInvalidItem is returned when a cart line item fails validation
// (malformed product ID or non-positive quantity).
var ErrInvalidItem = errors.New("invalid cart item")

// ErrInsufficientStock is returned when a requested increment exceeds the
// product's current stock. The cart is left untouched so the user can retry.
var ErrInsufficientStock = errors.New("insufficient stock")
