package repository

import (
	"context"
	"errors"

	"github.com/tienda/checkout/domain"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrItemNotFound    = errors.New("item not found in cart")
	ErrProductNotFound = errors.New("product not found")
	ErrCouponNotFound  = errors.New("coupon not found")
	ErrOrderNotFound   = errors.New("order not found")
)

// CartRepository is the mutable source of truth for a user's cart prior to
// draft creation. GetOrCreate is atomic: absence is not an error state, and
// two concurrent calls for the same user yield the same single document.
type CartRepository interface {
	GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertItem(ctx context.Context, userID string, item domain.CartItem) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error)
	SetCoupon(ctx context.Context, userID string, coupon *domain.CouponSnapshot) (*domain.Cart, error)
	SetDelivery(ctx context.Context, userID string, delivery *domain.Delivery) (*domain.Cart, error)
	SetPayment(ctx context.Context, userID string, payment *domain.PaymentSelection) (*domain.Cart, error)
}

// CatalogRepository exposes the read-only product/coupon lookups the cart
// operations need for denormalizing lines and validating coupon codes.
type CatalogRepository interface {
	FindProductByID(ctx context.Context, id string) (*domain.Product, error)
	FindProductByCode(ctx context.Context, code string) (*domain.Product, error)
	FindCouponByCode(ctx context.Context, code string) (*domain.Coupon, error)
}

// OrderFilter narrows a purchase listing. Limit and Offset are assumed
// pre-clamped by the caller.
type OrderFilter struct {
	UserID string
	Status *domain.OrderStatus
	Limit  int
	Offset int
}

// OrderPage is one page of purchases plus the per-status counts over the
// whole filtered set.
type OrderPage struct {
	Orders       []*domain.Order
	Total        int
	StatusCounts map[domain.OrderStatus]int
}

// OrderRepository persists draft orders. UpsertDraft and TransitionStatus
// carry the atomicity contracts the status machine relies on: at most one
// PENDING_PAYMENT row per user, and transitions applied only while the row
// is still PENDING_PAYMENT.
type OrderRepository interface {
	// UpsertDraft inserts a fresh draft or, when the user already has a
	// PENDING_PAYMENT draft, overwrites that draft's snapshot fields keeping
	// its draft id. Returns the surviving row.
	UpsertDraft(ctx context.Context, draft *domain.Order) (*domain.Order, error)
	GetByDraftID(ctx context.Context, draftID, userID string) (*domain.Order, error)
	// SetPaymentIntent stores the gateway intent id on a still-pending draft.
	SetPaymentIntent(ctx context.Context, draftID, userID, intentID string) error
	// TransitionStatus conditionally moves a PENDING_PAYMENT draft to the
	// target status, assigning orderNumber when non-empty. Returns false when
	// the row was not pending anymore (or does not exist).
	TransitionStatus(ctx context.Context, draftID, userID string, to domain.OrderStatus, orderNumber string) (bool, error)
	List(ctx context.Context, filter OrderFilter) (*OrderPage, error)
}
