package supabase

import "errors"

var (
	ErrShopNotFound  = errors.New("shop not found")
	ErrFileNotFound  = errors.New("file not found")
	ErrOrderNotFound = errors.New("order not found")
	// ErrDuplicateOrder means an order already exists for the payment intent.
	// The success path treats it as "already submitted", not a failure.
	ErrDuplicateOrder = errors.New("order already exists for this payment intent")
)
