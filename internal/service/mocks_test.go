package service

import (
	"context"
	"sync"

	"github.com/tienda/checkout/domain"
	"github.com/tienda/checkout/internal/cache"
	"github.com/tienda/checkout/internal/gateway"
	"github.com/tienda/checkout/internal/notify"
	"github.com/tienda/checkout/internal/pricing"
	"github.com/tienda/checkout/internal/repository"
)

type mockCartRepository struct {
	m    sync.RWMutex
	cart *domain.Cart
	err  error
}

func (m *mockCartRepository) GetOrCreate(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		m.cart = &domain.Cart{UserID: userID, Items: []domain.CartItem{}}
	}
	return m.cart, nil
}

func (m *mockCartRepository) UpsertItem(_ context.Context, userID string, item domain.CartItem) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		m.cart = &domain.Cart{UserID: userID}
	}
	for i := range m.cart.Items {
		if m.cart.Items[i].ProductID == item.ProductID {
			m.cart.Items[i] = item
			return m.cart, nil
		}
	}
	m.cart.Items = append(m.cart.Items, item)
	return m.cart, nil
}

func (m *mockCartRepository) RemoveItem(_ context.Context, _ string, productID string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, repository.ErrCartNotFound
	}
	for i, item := range m.cart.Items {
		if item.ProductID == productID {
			m.cart.Items = append(m.cart.Items[:i], m.cart.Items[i+1:]...)
			return m.cart, nil
		}
	}
	return nil, repository.ErrItemNotFound
}

func (m *mockCartRepository) SetCoupon(_ context.Context, userID string, coupon *domain.CouponSnapshot) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		m.cart = &domain.Cart{UserID: userID}
	}
	m.cart.Coupon = coupon
	return m.cart, nil
}

func (m *mockCartRepository) SetDelivery(_ context.Context, userID string, delivery *domain.Delivery) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		m.cart = &domain.Cart{UserID: userID}
	}
	m.cart.Delivery = delivery
	return m.cart, nil
}

func (m *mockCartRepository) SetPayment(_ context.Context, userID string, payment *domain.PaymentSelection) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		m.cart = &domain.Cart{UserID: userID}
	}
	m.cart.Payment = payment
	return m.cart, nil
}

type mockCatalog struct {
	products map[string]*domain.Product
	coupons  map[string]*domain.Coupon
}

func (m *mockCatalog) FindProductByID(_ context.Context, id string) (*domain.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockCatalog) FindProductByCode(_ context.Context, code string) (*domain.Product, error) {
	for _, p := range m.products {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockCatalog) FindCouponByCode(_ context.Context, code string) (*domain.Coupon, error) {
	if c, ok := m.coupons[code]; ok {
		return c, nil
	}
	return nil, repository.ErrCouponNotFound
}

type mockCache struct {
	m    sync.RWMutex
	cart *domain.Cart
	err  error
}

func (m *mockCache) Get(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.cart, nil
}

func (m *mockCache) Set(_ context.Context, _ string, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = cart
	return m.err
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	return m.err
}

// mockOrderRepository emulates the storage contracts the real postgres store
// carries: one pending draft per user and conditional status transitions.
type mockOrderRepository struct {
	m      sync.Mutex
	orders map[string]*domain.Order // keyed by draft id
	err    error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[string]*domain.Order)}
}

func (m *mockOrderRepository) UpsertDraft(_ context.Context, draft *domain.Order) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, existing := range m.orders {
		if existing.UserID == draft.UserID && existing.Status == domain.OrderStatusPendingPayment {
			existing.Items = draft.Items
			existing.Subtotal = draft.Subtotal
			existing.Discount = draft.Discount
			existing.Shipping = draft.Shipping
			existing.Total = draft.Total
			existing.Coupon = draft.Coupon
			existing.Delivery = draft.Delivery
			existing.Payment = draft.Payment
			copied := *existing
			return &copied, nil
		}
	}
	stored := *draft
	m.orders[draft.DraftID] = &stored
	copied := stored
	return &copied, nil
}

func (m *mockOrderRepository) GetByDraftID(_ context.Context, draftID, userID string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	order, ok := m.orders[draftID]
	if !ok || order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *mockOrderRepository) SetPaymentIntent(_ context.Context, draftID, userID, intentID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	order, ok := m.orders[draftID]
	if !ok || order.UserID != userID || order.Status != domain.OrderStatusPendingPayment {
		return repository.ErrOrderNotFound
	}
	order.PaymentIntentID = intentID
	return nil
}

func (m *mockOrderRepository) TransitionStatus(_ context.Context, draftID, userID string, to domain.OrderStatus, orderNumber string) (bool, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return false, m.err
	}
	order, ok := m.orders[draftID]
	if !ok || order.UserID != userID || order.Status != domain.OrderStatusPendingPayment {
		return false, nil
	}
	order.Status = to
	if orderNumber != "" {
		order.OrderNumber = orderNumber
	}
	return true, nil
}

func (m *mockOrderRepository) List(_ context.Context, filter repository.OrderFilter) (*repository.OrderPage, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	page := &repository.OrderPage{StatusCounts: make(map[domain.OrderStatus]int)}
	for _, order := range m.orders {
		if order.UserID != filter.UserID {
			continue
		}
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		page.StatusCounts[order.Status]++
		page.Total++
		copied := *order
		page.Orders = append(page.Orders, &copied)
	}
	return page, nil
}

type mockGateway struct {
	m           sync.Mutex
	created     []*gateway.Intent
	intentState string
	createErr   error
	retrieveErr error
	metadata    map[string]string
}

func (m *mockGateway) CreateIntent(_ context.Context, amount float64, metadata map[string]string) (*gateway.Intent, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.metadata = metadata
	intent := &gateway.Intent{
		ID:           "pi_test_" + metadata["draft_id"],
		ClientSecret: "secret_" + metadata["draft_id"],
		Status:       "requires_payment_method",
	}
	m.created = append(m.created, intent)
	_ = amount
	return intent, nil
}

func (m *mockGateway) RetrieveIntent(_ context.Context, intentID string) (*gateway.Intent, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.retrieveErr != nil {
		return nil, m.retrieveErr
	}
	return &gateway.Intent{ID: intentID, Status: m.intentState}, nil
}

type recordingNotifier struct {
	m      sync.Mutex
	events []notify.StatusEvent
	err    error
}

func (n *recordingNotifier) PublishStatus(_ context.Context, event notify.StatusEvent) error {
	n.m.Lock()
	defer n.m.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) published() []notify.StatusEvent {
	n.m.Lock()
	defer n.m.Unlock()
	out := make([]notify.StatusEvent, len(n.events))
	copy(out, n.events)
	return out
}

func cartWithItems(userID string) *domain.Cart {
	return &domain.Cart{
		UserID: userID,
		Items: []domain.CartItem{
			{ProductID: "p1", Code: "C1", Name: "one", Price: 10.00, Quantity: 2, Subtotal: pricing.LineSubtotal(10.00, 2)},
			{ProductID: "p2", Code: "C2", Name: "two", Price: 5.00, Quantity: 1, Subtotal: pricing.LineSubtotal(5.00, 1)},
		},
	}
}
