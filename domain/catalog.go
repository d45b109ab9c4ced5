package domain

import "time"

// Product and Coupon are reference data owned by the catalog; the checkout
// flow only reads them.

type Product struct {
	ID         string  `bson:"_id,omitempty" json:"id"`
	CategoryID string  `bson:"category_id,omitempty" json:"category_id,omitempty"`
	Code       string  `bson:"code" json:"code"`
	Name       string  `bson:"name" json:"name"`
	Brand      string  `bson:"brand" json:"brand"`
	Price      float64 `bson:"price" json:"price"`
}

type Coupon struct {
	ID          string     `bson:"_id,omitempty" json:"id"`
	Code        string     `bson:"code" json:"code"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	Type        CouponType `bson:"type" json:"type"`
	Value       float64    `bson:"value" json:"value"`
	MinSubtotal float64    `bson:"min_subtotal" json:"min_subtotal"`
	ValidFrom   *time.Time `bson:"valid_from,omitempty" json:"valid_from,omitempty"`
	ValidTo     *time.Time `bson:"valid_to,omitempty" json:"valid_to,omitempty"`
	Active      bool       `bson:"active" json:"active"`
	MaxUses     *int       `bson:"max_uses,omitempty" json:"max_uses,omitempty"`
	Uses        int        `bson:"uses" json:"uses"`
}

// ValidAt reports whether the coupon can be applied at the given moment.
// Usage caps are tracked but not enforced here.
func (c Coupon) ValidAt(t time.Time) bool {
	if !c.Active {
		return false
	}
	if c.ValidFrom != nil && t.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidTo != nil && t.After(*c.ValidTo) {
		return false
	}
	return true
}

// Snapshot freezes the coupon onto a cart.
func (c Coupon) Snapshot() *CouponSnapshot {
	return &CouponSnapshot{
		Code:        c.Code,
		Type:        c.Type,
		Value:       c.Value,
		MinSubtotal: c.MinSubtotal,
		Active:      c.Active,
	}
}
