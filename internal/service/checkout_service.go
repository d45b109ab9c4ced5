package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/tienda/checkout/domain"
	"github.com/tienda/checkout/internal/gateway"
	"github.com/tienda/checkout/internal/notify"
	"github.com/tienda/checkout/internal/pricing"
	"github.com/tienda/checkout/internal/repository"
)

// Currency is the single ISO code used for all pricing.
const Currency = "PEN"

// IntentResult is what the client needs to hand the draft to the external
// payment UI.
type IntentResult struct {
	DraftID      string  `json:"order_draft_id"`
	ClientSecret string  `json:"client_secret"`
	Total        float64 `json:"total"`
	Currency     string  `json:"currency"`
}

// StatusResult reports the outcome of a status transition.
type StatusResult struct {
	OrderNumber string             `json:"order_id,omitempty"`
	Status      domain.OrderStatus `json:"status"`
	Message     string             `json:"message"`
}

// PurchaseFilter narrows the purchase listing; Page and Limit are clamped.
type PurchaseFilter struct {
	UserID string
	Status *domain.OrderStatus
	Page   int
	Limit  int
}

// PurchasePage is a page of past orders plus per-status counts over the
// whole filtered set.
type PurchasePage struct {
	Orders       []*domain.Order
	Page         int
	Limit        int
	Total        int
	Pages        int
	StatusCounts map[domain.OrderStatus]int
}

// CheckoutService drives the draft-order/payment/status pipeline: it
// snapshots a priced cart into a draft, opens payment intents against the
// frozen total, and reconciles processor state into the order status.
type CheckoutService struct {
	carts    repository.CartRepository
	orders   repository.OrderRepository
	gateway  gateway.PaymentGateway
	notifier notify.Notifier
}

func NewCheckoutService(
	carts repository.CartRepository,
	orders repository.OrderRepository,
	gw gateway.PaymentGateway,
	notifier notify.Notifier,
) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		orders:   orders,
		gateway:  gw,
		notifier: notifier,
	}
}

// GetOrCreateDraft snapshots the user's cart into a PENDING_PAYMENT draft.
// If a pending draft already exists its snapshot is overwritten in place and
// its draft id is kept, so two calls in a row return the same identifier.
func (s *CheckoutService) GetOrCreateDraft(ctx context.Context, userID string) (*domain.Order, error) {
	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	summary := pricing.Summarize(cart)

	draft := &domain.Order{
		ID:       uuid.New(),
		DraftID:  domain.NewDraftID(),
		UserID:   userID,
		Status:   domain.OrderStatusPendingPayment,
		Items:    domain.SnapshotItems(cart.Items),
		Subtotal: summary.Subtotal,
		Discount: summary.Discount,
		Shipping: summary.Shipping,
		Total:    summary.Total,
		Coupon:   cart.Coupon,
		Delivery: cart.Delivery,
		Payment:  cart.Payment,
	}

	stored, err := s.orders.UpsertDraft(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("upsert draft: %w", err)
	}

	return stored, nil
}

// CreatePaymentIntent opens a gateway intent for the draft's frozen total
// and stores the intent id on the draft. The status does not change here.
func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, userID, draftID string) (*IntentResult, error) {
	order, err := s.orders.GetByDraftID(ctx, draftID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if order.Status != domain.OrderStatusPendingPayment {
		return nil, ErrDraftNotFound
	}

	intent, err := s.gateway.CreateIntent(ctx, order.Total, map[string]string{
		"draft_id": order.DraftID,
		"user_id":  order.UserID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.orders.SetPaymentIntent(ctx, draftID, userID, intent.ID); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("store payment intent: %w", err)
	}

	return &IntentResult{
		DraftID:      order.DraftID,
		ClientSecret: intent.ClientSecret,
		Total:        order.Total,
		Currency:     Currency,
	}, nil
}

// AdvanceStatus moves a draft to a terminal status. PAID is gated on the
// gateway reporting success for the stored intent; REJECTED and
// ERROR_GATEWAY are direct caller-driven transitions. Re-confirming an
// already terminal draft with the same target is a no-op.
func (s *CheckoutService) AdvanceStatus(ctx context.Context, userID, draftID string, target domain.OrderStatus) (*StatusResult, error) {
	order, err := s.orders.GetByDraftID(ctx, draftID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("load draft: %w", err)
	}

	switch target {
	case domain.OrderStatusPaid:
		return s.confirmPaid(ctx, order)
	case domain.OrderStatusRejected, domain.OrderStatusGatewayError:
		return s.fail(ctx, order, target)
	default:
		return nil, ErrInvalidStatus
	}
}

func (s *CheckoutService) confirmPaid(ctx context.Context, order *domain.Order) (*StatusResult, error) {
	if order.Status == domain.OrderStatusPaid {
		// Already confirmed; keep the assigned order number.
		return &StatusResult{
			OrderNumber: order.OrderNumber,
			Status:      domain.OrderStatusPaid,
			Message:     "payment already confirmed",
		}, nil
	}
	if !domain.CanTransitionTo(order.Status, domain.OrderStatusPaid) {
		return nil, ErrIllegalTransition
	}
	if order.PaymentIntentID == "" {
		return nil, ErrMissingPaymentIntent
	}

	intent, err := s.gateway.RetrieveIntent(ctx, order.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != gateway.IntentStatusSucceeded {
		return nil, fmt.Errorf("%w: %s", ErrPaymentNotConfirmed, intent.Status)
	}

	orderNumber := domain.NewOrderNumber(time.Now())
	updated, err := s.orders.TransitionStatus(ctx, order.DraftID, order.UserID, domain.OrderStatusPaid, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("transition to paid: %w", err)
	}
	if !updated {
		// Lost the race; the winner assigned the order number.
		current, err := s.orders.GetByDraftID(ctx, order.DraftID, order.UserID)
		if err != nil {
			return nil, fmt.Errorf("reload draft: %w", err)
		}
		if current.Status == domain.OrderStatusPaid {
			return &StatusResult{
				OrderNumber: current.OrderNumber,
				Status:      domain.OrderStatusPaid,
				Message:     "payment already confirmed",
			}, nil
		}
		return nil, ErrIllegalTransition
	}

	s.publishStatus(ctx, order, domain.OrderStatusPaid, orderNumber, "payment confirmed")

	return &StatusResult{
		OrderNumber: orderNumber,
		Status:      domain.OrderStatusPaid,
		Message:     "payment confirmed",
	}, nil
}

func (s *CheckoutService) fail(ctx context.Context, order *domain.Order, target domain.OrderStatus) (*StatusResult, error) {
	if order.Status == target {
		return &StatusResult{Status: target, Message: "status already set"}, nil
	}
	if !domain.CanTransitionTo(order.Status, target) {
		return nil, ErrIllegalTransition
	}

	updated, err := s.orders.TransitionStatus(ctx, order.DraftID, order.UserID, target, "")
	if err != nil {
		return nil, fmt.Errorf("transition to %s: %w", target, err)
	}
	if !updated {
		current, err := s.orders.GetByDraftID(ctx, order.DraftID, order.UserID)
		if err != nil {
			return nil, fmt.Errorf("reload draft: %w", err)
		}
		if current.Status == target {
			return &StatusResult{Status: target, Message: "status already set"}, nil
		}
		return nil, ErrIllegalTransition
	}

	s.publishStatus(ctx, order, target, "", "status updated")

	return &StatusResult{Status: target, Message: "status updated"}, nil
}

func (s *CheckoutService) publishStatus(ctx context.Context, order *domain.Order, status domain.OrderStatus, orderNumber, message string) {
	event := notify.StatusEvent{
		UserID:      order.UserID,
		DraftID:     order.DraftID,
		OrderNumber: orderNumber,
		Status:      status.String(),
		Message:     message,
		At:          time.Now(),
	}
	if err := s.notifier.PublishStatus(ctx, event); err != nil {
		log.Printf("publish status event for draft %s: %v", order.DraftID, err)
	}
}

// ListPurchases pages through a user's past orders, newest first.
func (s *CheckoutService) ListPurchases(ctx context.Context, filter PurchaseFilter) (*PurchasePage, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit == 0 {
		limit = 10
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}

	result, err := s.orders.List(ctx, repository.OrderFilter{
		UserID: filter.UserID,
		Status: filter.Status,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	pages := result.Total / limit
	if result.Total%limit != 0 {
		pages++
	}

	counts := map[domain.OrderStatus]int{
		domain.OrderStatusPendingPayment: 0,
		domain.OrderStatusPaid:           0,
		domain.OrderStatusRejected:       0,
		domain.OrderStatusGatewayError:   0,
	}
	for status, count := range result.StatusCounts {
		counts[status] = count
	}

	return &PurchasePage{
		Orders:       result.Orders,
		Page:         page,
		Limit:        limit,
		Total:        result.Total,
		Pages:        pages,
		StatusCounts: counts,
	}, nil
}
