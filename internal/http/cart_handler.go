package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tienda/checkout/domain"
)

// CartService is what the cart endpoints need from the service layer.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, domain.Summary, error)
	AddItem(ctx context.Context, userID, productID, code string, quantity int32) (domain.Summary, error)
	RemoveItem(ctx context.Context, userID, productID string) (domain.Summary, error)
	ApplyCoupon(ctx context.Context, userID, code string) (domain.Summary, error)
	SetDelivery(ctx context.Context, userID string, mode domain.DeliveryMode, address, schedule string) (domain.Summary, error)
	SetPayment(ctx context.Context, userID string, method domain.PaymentMethod) (domain.Summary, error)
}

type CartHandler struct {
	service CartService
}

func NewCartHandler(service CartService) *CartHandler {
	return &CartHandler{service: service}
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Code      string `json:"code"`
	Quantity  int32  `json:"quantity"`
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

type setDeliveryRequest struct {
	Mode     string `json:"mode"`
	Address  string `json:"address"`
	Schedule string `json:"schedule"`
}

type setPaymentRequest struct {
	Method string `json:"method"`
}

type cartResponse struct {
	UserID   string            `json:"user_id"`
	Items    []domain.CartItem `json:"items"`
	Coupon   interface{}       `json:"coupon,omitempty"`
	Delivery interface{}       `json:"delivery,omitempty"`
	Payment  interface{}       `json:"payment,omitempty"`
	Summary  domain.Summary    `json:"summary"`
}

type summaryResponse struct {
	UserID  string         `json:"user_id"`
	Summary domain.Summary `json:"summary"`
}

// GetCart handles GET /api/v1/checkout/{userID}/items.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !authorizeOwner(r, userID) {
		respondError(w, http.StatusForbidden, "forbidden", "access denied")
		return
	}

	cart, summary, err := h.service.GetCart(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := cartResponse{
		UserID:  cart.UserID,
		Items:   cart.Items,
		Summary: summary,
	}
	if cart.Coupon != nil {
		resp.Coupon = cart.Coupon
	}
	if cart.Delivery != nil {
		resp.Delivery = cart.Delivery
	}
	if cart.Payment != nil {
		resp.Payment = cart.Payment
	}
	respondJSON(w, http.StatusOK, resp)
}

// AddItem handles POST /api/v1/checkout/{userID}/items. The quantity sets the
// line outright rather than accumulating.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !authorizeOwner(r, userID) {
		respondError(w, http.StatusForbidden, "forbidden", "access denied")
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if req.ProductID == "" && req.Code == "" {
		respondError(w, http.StatusBadRequest, "invalid_body", "product_id or code is required")
		return
	}
	if req.Quantity < 1 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	summary, err := h.service.AddItem(r.Context(), userID, req.ProductID, req.Code, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summaryResponse{UserID: userID, Summary: summary})
}

// RemoveItem handles DELETE /api/v1/checkout/{userID}/items/{productID}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !authorizeOwner(r, userID) {
		respondError(w, http.StatusForbidden, "forbidden", "access denied")
		return
	}

	productID := chi.URLParam(r, "productID")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_body", "product id is required")
		return
	}

	summary, err := h.service.RemoveItem(r.Context(), userID, productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summaryResponse{UserID: userID, Summary: summary})
}

// ApplyCoupon handles POST /api/v1/checkout/{userID}/coupon.
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !authorizeOwner(r, userID) {
		respondError(w, http.StatusForbidden, "forbidden", "access denied")
		return
	}

	var req applyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		respondError(w, http.StatusBadRequest, "invalid_body", "coupon code is required")
		return
	}

	summary, err := h.service.ApplyCoupon(r.Context(), userID, req.Code)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summaryResponse{UserID: userID, Summary: summary})
}

// SetDelivery handles POST /api/v1/checkout/{userID}/delivery.
func (h *CartHandler) SetDelivery(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !authorizeOwner(r, userID) {
		respondError(w, http.StatusForbidden, "forbidden", "access denied")
		return
	}

	var req setDeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	summary, err := h.service.SetDelivery(r.Context(), userID, domain.DeliveryMode(req.Mode), req.Address, req.Schedule)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summaryResponse{UserID: userID, Summary: summary})
}

// SetPayment handles POST /api/v1/checkout/{userID}/payment.
func (h *CartHandler) SetPayment(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !authorizeOwner(r, userID) {
		respondError(w, http.StatusForbidden, "forbidden", "access denied")
		return
	}

	var req setPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	summary, err := h.service.SetPayment(r.Context(), userID, domain.PaymentMethod(req.Method))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summaryResponse{UserID: userID, Summary: summary})
}

// GetSummary handles GET /api/v1/checkout/{userID}/summary.
func (h *CartHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !authorizeOwner(r, userID) {
		respondError(w, http.StatusForbidden, "forbidden", "access denied")
		return
	}

	_, summary, err := h.service.GetCart(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summaryResponse{UserID: userID, Summary: summary})
}
