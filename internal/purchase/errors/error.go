// Package errors provides custom error types for purchase-related operations.
package errors

import "errors"

// ErrEmptyCart is an expected user state, not corruption, and is therefore
// distinct from the not-found errors.
var ErrEmptyCart = errors.New("cart is empty")

var ErrInsufficientStock = errors.New("insufficient stock")
var ErrPurchaseNotFound = errors.New("purchase not found")

var ErrTransactionBegin = errors.New("failed to begin transaction")
var ErrTransactionCommit = errors.New("failed to commit transaction")
var ErrTransactionRollback = errors.New("failed to rollback transaction")
