package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/tienda/checkout/internal/gateway"
	"github.com/tienda/checkout/internal/repository"
	"github.com/tienda/checkout/internal/service"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: code, Message: message})
}

// handleServiceError maps service and repository failures to HTTP statuses.
// Internal detail never leaks on unexpected errors.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cart has no items")
	case errors.Is(err, service.ErrInvalidStatus):
		respondError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, service.ErrInvalidDeliveryMode):
		respondError(w, http.StatusBadRequest, "invalid_delivery_mode", err.Error())
	case errors.Is(err, service.ErrInvalidPaymentMethod):
		respondError(w, http.StatusBadRequest, "invalid_payment_method", err.Error())
	case errors.Is(err, service.ErrMissingPaymentIntent):
		respondError(w, http.StatusBadRequest, "missing_payment_intent", err.Error())
	case errors.Is(err, service.ErrCouponMinSubtotal):
		respondError(w, http.StatusBadRequest, "coupon_min_subtotal", err.Error())
	case errors.Is(err, service.ErrCouponInvalid),
		errors.Is(err, repository.ErrCouponNotFound):
		respondError(w, http.StatusNotFound, "coupon_invalid", "coupon not found or not active")
	case errors.Is(err, service.ErrDraftNotFound),
		errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "draft_not_found", "no matching draft order")
	case errors.Is(err, repository.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", "product not found")
	case errors.Is(err, repository.ErrCartNotFound),
		errors.Is(err, repository.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrPaymentNotConfirmed):
		respondError(w, http.StatusConflict, "payment_not_confirmed", err.Error())
	case errors.Is(err, service.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, gateway.ErrGateway):
		respondError(w, http.StatusBadGateway, "gateway_error", err.Error())
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
