package service

import "errors"

var (
	ErrEmptyCart            = errors.New("cart is empty, nothing to check out")
	ErrDraftNotFound        = errors.New("pending draft not found")
	ErrMissingPaymentIntent = errors.New("draft has no payment intent")
	ErrPaymentNotConfirmed  = errors.New("payment intent not confirmed")
	ErrInvalidStatus        = errors.New("invalid target status")
	ErrIllegalTransition    = errors.New("illegal transition of order status")
	ErrCouponInvalid        = errors.New("coupon invalid or inactive")
	ErrCouponMinSubtotal    = errors.New("cart subtotal below coupon minimum")
	ErrInvalidDeliveryMode  = errors.New("invalid delivery mode")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)
