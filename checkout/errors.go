package checkout

import "errors"

// Validation failures are detected before any remote write and are fully
// recoverable by the user.
var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrEmptyCart              = errors.New("cart is empty")
	ErrCheckoutInFlight       = errors.New("checkout already in progress")
)

// Remote write failures abort the remaining steps and leave the cart
// untouched so the attempt can be retried.
var (
	ErrOrderCreate = errors.New("order creation failed")
	ErrOrderItems  = errors.New("order items failed")
)
