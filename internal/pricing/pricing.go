// Package pricing computes the {subtotal, discount, shipping, total} tuple
// for a cart. It is pure: no I/O, no persistence.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/tienda/checkout/domain"
)

var oneHundred = decimal.NewFromInt(100)

// Summarize prices the cart. Every monetary field is rounded to 2 decimal
// places at the point of computation, per field, so floating error does not
// compound across fields.
func Summarize(cart *domain.Cart) domain.Summary {
	subtotal := decimal.Zero
	for _, it := range cart.Items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt32(it.Quantity))
		subtotal = subtotal.Add(line)
	}
	subtotal = subtotal.Round(2)

	discount := couponDiscount(cart.Coupon, subtotal)

	shipping := decimal.Zero
	if cart.Delivery != nil {
		shipping = decimal.NewFromFloat(cart.Delivery.Cost).Round(2)
	}

	total := subtotal.Sub(discount).Add(shipping).Round(2)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return domain.Summary{
		Subtotal: subtotal.InexactFloat64(),
		Discount: discount.InexactFloat64(),
		Shipping: shipping.InexactFloat64(),
		Total:    total.InexactFloat64(),
	}
}

func couponDiscount(coupon *domain.CouponSnapshot, subtotal decimal.Decimal) decimal.Decimal {
	if coupon == nil || !coupon.Active {
		return decimal.Zero
	}
	if coupon.MinSubtotal > 0 && subtotal.LessThan(decimal.NewFromFloat(coupon.MinSubtotal)) {
		return decimal.Zero
	}

	switch coupon.Type {
	case domain.CouponTypePercent:
		return subtotal.Mul(decimal.NewFromFloat(coupon.Value)).Div(oneHundred).Round(2)
	case domain.CouponTypeAmount:
		value := decimal.NewFromFloat(coupon.Value).Round(2)
		return decimal.Min(subtotal, value)
	}
	return decimal.Zero
}

// LineSubtotal prices a single cart line, rounded to 2 decimals.
func LineSubtotal(price float64, quantity int32) float64 {
	return decimal.NewFromFloat(price).
		Mul(decimal.NewFromInt32(quantity)).
		Round(2).
		InexactFloat64()
}
