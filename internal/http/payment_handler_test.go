package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tienda/checkout/domain"
	"github.com/tienda/checkout/internal/gateway"
	"github.com/tienda/checkout/internal/service"
)

type checkoutServiceMock struct {
	order  *domain.Order
	intent *service.IntentResult
	status *service.StatusResult
	page   *service.PurchasePage
	err    error

	lastFilter service.PurchaseFilter
}

func (m *checkoutServiceMock) GetOrCreateDraft(ctx context.Context, userID string) (*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *checkoutServiceMock) CreatePaymentIntent(ctx context.Context, userID, draftID string) (*service.IntentResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.intent, nil
}

func (m *checkoutServiceMock) AdvanceStatus(ctx context.Context, userID, draftID string, target domain.OrderStatus) (*service.StatusResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.status, nil
}

func (m *checkoutServiceMock) ListPurchases(ctx context.Context, filter service.PurchaseFilter) (*service.PurchasePage, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	return m.page, nil
}

func TestGetDraft_Success(t *testing.T) {
	mock := &checkoutServiceMock{
		order: &domain.Order{
			UserID:  "user-1",
			DraftID: "ORD-1-abc",
			Status:  domain.OrderStatusPendingPayment,
			Total:   30.50,
		},
	}
	handler := NewPaymentHandler(mock)

	recorder := httptest.NewRecorder()
	request := authedRequest("GET", "/cart", nil, "user-1", "", map[string]string{"userID": "user-1"})

	handler.GetDraft(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}

	var response domain.Order
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.DraftID != "ORD-1-abc" {
		t.Errorf("Expected draft id 'ORD-1-abc', got '%s'", response.DraftID)
	}
}

func TestGetDraft_EmptyCart(t *testing.T) {
	handler := NewPaymentHandler(&checkoutServiceMock{err: service.ErrEmptyCart})

	recorder := httptest.NewRecorder()
	request := authedRequest("GET", "/cart", nil, "user-1", "", map[string]string{"userID": "user-1"})

	handler.GetDraft(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}

	var response errorResponse
	json.NewDecoder(recorder.Body).Decode(&response)
	if response.Error != "empty_cart" {
		t.Errorf("Expected error code 'empty_cart', got '%s'", response.Error)
	}
}

func TestGetDraft_Forbidden(t *testing.T) {
	handler := NewPaymentHandler(&checkoutServiceMock{})

	recorder := httptest.NewRecorder()
	request := authedRequest("GET", "/cart", nil, "user-2", "", map[string]string{"userID": "user-1"})

	handler.GetDraft(recorder, request)

	if recorder.Code != http.StatusForbidden {
		t.Errorf("Expected status code %d, got %d", http.StatusForbidden, recorder.Code)
	}
}

func TestCreateIntent_Success(t *testing.T) {
	mock := &checkoutServiceMock{
		intent: &service.IntentResult{
			DraftID:      "ORD-1-abc",
			ClientSecret: "pi_123_secret",
			Total:        30.50,
			Currency:     service.Currency,
		},
	}
	handler := NewPaymentHandler(mock)

	body, _ := json.Marshal(createIntentRequest{DraftID: "ORD-1-abc"})
	recorder := httptest.NewRecorder()
	request := authedRequest("POST", "/intent", body, "user-1", "", map[string]string{"userID": "user-1"})

	handler.CreateIntent(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}

	var response service.IntentResult
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.ClientSecret != "pi_123_secret" {
		t.Errorf("Expected client secret 'pi_123_secret', got '%s'", response.ClientSecret)
	}
	if response.Currency != "PEN" {
		t.Errorf("Expected currency PEN, got '%s'", response.Currency)
	}
}

func TestCreateIntent_MissingDraftID(t *testing.T) {
	handler := NewPaymentHandler(&checkoutServiceMock{})

	body, _ := json.Marshal(createIntentRequest{})
	recorder := httptest.NewRecorder()
	request := authedRequest("POST", "/intent", body, "user-1", "", map[string]string{"userID": "user-1"})

	handler.CreateIntent(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestCreateIntent_GatewayDown(t *testing.T) {
	handler := NewPaymentHandler(&checkoutServiceMock{err: gateway.ErrGateway})

	body, _ := json.Marshal(createIntentRequest{DraftID: "ORD-1-abc"})
	recorder := httptest.NewRecorder()
	request := authedRequest("POST", "/intent", body, "user-1", "", map[string]string{"userID": "user-1"})

	handler.CreateIntent(recorder, request)

	if recorder.Code != http.StatusBadGateway {
		t.Errorf("Expected status code %d, got %d", http.StatusBadGateway, recorder.Code)
	}
}

func TestCreateIntent_UnknownDraft(t *testing.T) {
	handler := NewPaymentHandler(&checkoutServiceMock{err: service.ErrDraftNotFound})

	body, _ := json.Marshal(createIntentRequest{DraftID: "ORD-ghost"})
	recorder := httptest.NewRecorder()
	request := authedRequest("POST", "/intent", body, "user-1", "", map[string]string{"userID": "user-1"})

	handler.CreateIntent(recorder, request)

	if recorder.Code != http.StatusNotFound {
		t.Errorf("Expected status code %d, got %d", http.StatusNotFound, recorder.Code)
	}
}

func TestAdvanceStatus_Paid(t *testing.T) {
	mock := &checkoutServiceMock{
		status: &service.StatusResult{
			OrderNumber: "ORDER-20260827-abcd1234",
			Status:      domain.OrderStatusPaid,
			Message:     "payment confirmed",
		},
	}
	handler := NewPaymentHandler(mock)

	body, _ := json.Marshal(advanceStatusRequest{DraftID: "ORD-1-abc", Status: "PAID"})
	recorder := httptest.NewRecorder()
	request := authedRequest("PATCH", "/status", body, "user-1", "", map[string]string{"userID": "user-1"})

	handler.AdvanceStatus(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}

	var response service.StatusResult
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.OrderNumber != "ORDER-20260827-abcd1234" {
		t.Errorf("Expected order number in response, got '%s'", response.OrderNumber)
	}
	if response.Status != domain.OrderStatusPaid {
		t.Errorf("Expected status PAID, got '%s'", response.Status)
	}
}

func TestAdvanceStatus_LowercaseAccepted(t *testing.T) {
	mock := &checkoutServiceMock{
		status: &service.StatusResult{Status: domain.OrderStatusRejected, Message: "payment rejected"},
	}
	handler := NewPaymentHandler(mock)

	body, _ := json.Marshal(advanceStatusRequest{DraftID: "ORD-1-abc", Status: "rejected"})
	recorder := httptest.NewRecorder()
	request := authedRequest("PATCH", "/status", body, "user-1", "", map[string]string{"userID": "user-1"})

	handler.AdvanceStatus(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}
}

func TestAdvanceStatus_UnknownStatus(t *testing.T) {
	handler := NewPaymentHandler(&checkoutServiceMock{})

	body, _ := json.Marshal(advanceStatusRequest{DraftID: "ORD-1-abc", Status: "SHIPPED"})
	recorder := httptest.NewRecorder()
	request := authedRequest("PATCH", "/status", body, "user-1", "", map[string]string{"userID": "user-1"})

	handler.AdvanceStatus(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}

	var response errorResponse
	json.NewDecoder(recorder.Body).Decode(&response)
	if response.Error != "invalid_status" {
		t.Errorf("Expected error code 'invalid_status', got '%s'", response.Error)
	}
}

func TestAdvanceStatus_PaymentNotConfirmed(t *testing.T) {
	handler := NewPaymentHandler(&checkoutServiceMock{err: service.ErrPaymentNotConfirmed})

	body, _ := json.Marshal(advanceStatusRequest{DraftID: "ORD-1-abc", Status: "PAID"})
	recorder := httptest.NewRecorder()
	request := authedRequest("PATCH", "/status", body, "user-1", "", map[string]string{"userID": "user-1"})

	handler.AdvanceStatus(recorder, request)

	if recorder.Code != http.StatusConflict {
		t.Errorf("Expected status code %d, got %d", http.StatusConflict, recorder.Code)
	}
}

func TestAdvanceStatus_IllegalTransition(t *testing.T) {
	handler := NewPaymentHandler(&checkoutServiceMock{err: service.ErrIllegalTransition})

	body, _ := json.Marshal(advanceStatusRequest{DraftID: "ORD-1-abc", Status: "REJECTED"})
	recorder := httptest.NewRecorder()
	request := authedRequest("PATCH", "/status", body, "user-1", "", map[string]string{"userID": "user-1"})

	handler.AdvanceStatus(recorder, request)

	if recorder.Code != http.StatusConflict {
		t.Errorf("Expected status code %d, got %d", http.StatusConflict, recorder.Code)
	}
}

func TestListPurchases_DefaultsToCaller(t *testing.T) {
	mock := &checkoutServiceMock{
		page: &service.PurchasePage{
			Orders: []*domain.Order{{UserID: "user-1", Status: domain.OrderStatusPaid}},
			Page:   1, Limit: 10, Total: 1, Pages: 1,
			StatusCounts: map[domain.OrderStatus]int{domain.OrderStatusPaid: 1},
		},
	}
	handler := NewPurchasesHandler(mock)

	recorder := httptest.NewRecorder()
	request := authedRequest("GET", "/purchases", nil, "user-1", "", nil)

	handler.List(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}
	if mock.lastFilter.UserID != "user-1" {
		t.Errorf("Expected filter for caller 'user-1', got '%s'", mock.lastFilter.UserID)
	}

	var response purchasesResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Total != 1 {
		t.Errorf("Expected total 1, got %d", response.Total)
	}
}

func TestListPurchases_AdminOverride(t *testing.T) {
	mock := &checkoutServiceMock{page: &service.PurchasePage{Page: 1, Limit: 10}}
	handler := NewPurchasesHandler(mock)

	recorder := httptest.NewRecorder()
	request := authedRequest("GET", "/purchases?user_id=user-7", nil, "admin-1", roleAdmin, nil)

	handler.List(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}
	if mock.lastFilter.UserID != "user-7" {
		t.Errorf("Expected admin override to 'user-7', got '%s'", mock.lastFilter.UserID)
	}
}

func TestListPurchases_OverrideForbiddenForNonAdmin(t *testing.T) {
	handler := NewPurchasesHandler(&checkoutServiceMock{})

	recorder := httptest.NewRecorder()
	request := authedRequest("GET", "/purchases?user_id=user-7", nil, "user-1", "", nil)

	handler.List(recorder, request)

	if recorder.Code != http.StatusForbidden {
		t.Errorf("Expected status code %d, got %d", http.StatusForbidden, recorder.Code)
	}
}

func TestListPurchases_StatusFilter(t *testing.T) {
	mock := &checkoutServiceMock{page: &service.PurchasePage{Page: 1, Limit: 10}}
	handler := NewPurchasesHandler(mock)

	recorder := httptest.NewRecorder()
	request := authedRequest("GET", "/purchases?status=paid", nil, "user-1", "", nil)

	handler.List(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}
	if mock.lastFilter.Status == nil || *mock.lastFilter.Status != domain.OrderStatusPaid {
		t.Errorf("Expected PAID status filter, got %v", mock.lastFilter.Status)
	}
}

func TestListPurchases_BadInputs(t *testing.T) {
	handler := NewPurchasesHandler(&checkoutServiceMock{})

	tests := []struct {
		name  string
		query string
	}{
		{"unknown status", "?status=SHIPPED"},
		{"non-numeric page", "?page=abc"},
		{"non-numeric limit", "?limit=xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			request := authedRequest("GET", "/purchases"+tt.query, nil, "user-1", "", nil)

			handler.List(recorder, request)

			if recorder.Code != http.StatusBadRequest {
				t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
			}
		})
	}
}
