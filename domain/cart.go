package domain

import "time"

type DeliveryMode string

const (
	DeliveryModeDelivery DeliveryMode = "delivery"
	DeliveryModePickup   DeliveryMode = "pickup"
)

type PaymentMethod string

const (
	PaymentMethodCard           PaymentMethod = "card"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

type CouponType string

const (
	CouponTypePercent CouponType = "percent"
	CouponTypeAmount  CouponType = "amount"
)

type Cart struct {
	ID        string            `bson:"_id,omitempty" json:"-"`
	UserID    string            `bson:"user_id" json:"user_id"`
	Items     []CartItem        `bson:"items" json:"items"`
	Coupon    *CouponSnapshot   `bson:"coupon,omitempty" json:"coupon,omitempty"`
	Delivery  *Delivery         `bson:"delivery,omitempty" json:"delivery,omitempty"`
	Payment   *PaymentSelection `bson:"payment,omitempty" json:"payment,omitempty"`
	CreatedAt time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time         `bson:"updated_at" json:"updated_at"`
}

// CartItem denormalizes the product at the time of adding so a priced draft
// is not affected by later catalog changes.
type CartItem struct {
	ProductID  string  `bson:"product_id" json:"product_id"`
	CategoryID string  `bson:"category_id,omitempty" json:"category_id,omitempty"`
	Code       string  `bson:"code" json:"code"`
	Name       string  `bson:"name" json:"name"`
	Brand      string  `bson:"brand" json:"brand"`
	Price      float64 `bson:"price" json:"price"`
	Quantity   int32   `bson:"quantity" json:"quantity"`
	Subtotal   float64 `bson:"subtotal" json:"subtotal"`
}

type CouponSnapshot struct {
	Code        string     `bson:"code" json:"code"`
	Type        CouponType `bson:"type" json:"type"`
	Value       float64    `bson:"value" json:"value"`
	MinSubtotal float64    `bson:"min_subtotal" json:"min_subtotal"`
	Active      bool       `bson:"active" json:"active"`
}

type Delivery struct {
	Mode     DeliveryMode `bson:"mode" json:"mode"`
	Address  string       `bson:"address" json:"address"`
	Schedule string       `bson:"schedule" json:"schedule"`
	Cost     float64      `bson:"cost" json:"cost"`
}

type PaymentSelection struct {
	Method PaymentMethod `bson:"method" json:"method"`
}

// Summary is the pricing tuple recomputed after every cart mutation.
type Summary struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}
