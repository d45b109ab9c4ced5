package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tienda/checkout/domain"
	"github.com/tienda/checkout/internal/service"
)

// CheckoutService is what the payment endpoints need from the service layer.
type CheckoutService interface {
	GetOrCreateDraft(ctx context.Context, userID string) (*domain.Order, error)
	CreatePaymentIntent(ctx context.Context, userID, draftID string) (*service.IntentResult, error)
	AdvanceStatus(ctx context.Context, userID, draftID string, target domain.OrderStatus) (*service.StatusResult, error)
	ListPurchases(ctx context.Context, filter service.PurchaseFilter) (*service.PurchasePage, error)
}

type PaymentHandler struct {
	service CheckoutService
}

func NewPaymentHandler(service CheckoutService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

type createIntentRequest struct {
	DraftID string `json:"order_draft_id"`
}

type advanceStatusRequest struct {
	DraftID string `json:"order_draft_id"`
	Status  string `json:"status"`
}

// GetDraft handles GET /api/v1/payment/{userID}/cart. It returns the user's
// pending draft, creating or refreshing it from the current cart.
func (h *PaymentHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !authorizeOwner(r, userID) {
		respondError(w, http.StatusForbidden, "forbidden", "access denied")
		return
	}

	order, err := h.service.GetOrCreateDraft(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// CreateIntent handles POST /api/v1/payment/{userID}/intent.
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !authorizeOwner(r, userID) {
		respondError(w, http.StatusForbidden, "forbidden", "access denied")
		return
	}

	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DraftID == "" {
		respondError(w, http.StatusBadRequest, "invalid_body", "order_draft_id is required")
		return
	}

	result, err := h.service.CreatePaymentIntent(r.Context(), userID, req.DraftID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// AdvanceStatus handles PATCH /api/v1/payment/{userID}/status. PAID is only
// granted after the processor confirms; REJECTED and ERROR_GATEWAY are
// recorded as reported.
func (h *PaymentHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !authorizeOwner(r, userID) {
		respondError(w, http.StatusForbidden, "forbidden", "access denied")
		return
	}

	var req advanceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DraftID == "" {
		respondError(w, http.StatusBadRequest, "invalid_body", "order_draft_id is required")
		return
	}

	target, ok := domain.ParseOrderStatus(req.Status)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
		return
	}

	result, err := h.service.AdvanceStatus(r.Context(), userID, req.DraftID, target)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
