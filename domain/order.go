package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderStatusPaid           OrderStatus = "PAID"
	OrderStatusRejected       OrderStatus = "REJECTED"
	OrderStatusGatewayError   OrderStatus = "ERROR_GATEWAY"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusRejected || s == OrderStatusGatewayError
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether the status machine permits moving from one
// status to another. The only legal moves are out of PENDING_PAYMENT into a
// terminal state.
func CanTransitionTo(from, to OrderStatus) bool {
	if from != OrderStatusPendingPayment {
		return false
	}
	return to == OrderStatusPaid || to == OrderStatusRejected || to == OrderStatusGatewayError
}

// ParseOrderStatus maps a caller-supplied string onto a known status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case OrderStatusPendingPayment:
		return OrderStatusPendingPayment, true
	case OrderStatusPaid:
		return OrderStatusPaid, true
	case OrderStatusRejected:
		return OrderStatusRejected, true
	case OrderStatusGatewayError:
		return OrderStatusGatewayError, true
	}
	return "", false
}

// Order is a priced snapshot of a cart. While PENDING_PAYMENT the snapshot
// fields may be refreshed by a new checkout; after that only the status and
// the identifiers assigned by the status machine change.
type Order struct {
	ID              uuid.UUID         `json:"-"`
	DraftID         string            `json:"order_draft_id"`
	UserID          string            `json:"user_id"`
	OrderNumber     string            `json:"order_id,omitempty"`
	Status          OrderStatus       `json:"status"`
	Items           []OrderItem       `json:"items"`
	Subtotal        float64           `json:"subtotal"`
	Discount        float64           `json:"discount"`
	Shipping        float64           `json:"shipping"`
	Total           float64           `json:"total"`
	Coupon          *CouponSnapshot   `json:"coupon,omitempty"`
	Delivery        *Delivery         `json:"delivery,omitempty"`
	Payment         *PaymentSelection `json:"payment,omitempty"`
	PaymentIntentID string            `json:"-"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// OrderItem is a copied (not referenced) cart line, so later cart mutations
// cannot retroactively alter a priced draft.
type OrderItem struct {
	ProductID  string  `json:"product_id"`
	CategoryID string  `json:"category_id,omitempty"`
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Brand      string  `json:"brand"`
	Price      float64 `json:"price"`
	Quantity   int32   `json:"quantity"`
	Subtotal   float64 `json:"subtotal"`
}

// SnapshotItems copies cart lines into order lines.
func SnapshotItems(items []CartItem) []OrderItem {
	out := make([]OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, OrderItem{
			ProductID:  it.ProductID,
			CategoryID: it.CategoryID,
			Code:       it.Code,
			Name:       it.Name,
			Brand:      it.Brand,
			Price:      it.Price,
			Quantity:   it.Quantity,
			Subtotal:   it.Subtotal,
		})
	}
	return out
}

// NewDraftID generates a draft identifier with a time component and a random
// suffix so collisions are practically impossible.
func NewDraftID() string {
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// NewOrderNumber generates the human-facing, date-stamped order identifier
// assigned exactly once, on successful payment confirmation.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORDER-%s-%s", now.Format("20060102"), uuid.NewString()[:8])
}
