package http

import (
	"net/http"
	"strconv"

	"github.com/tienda/checkout/domain"
	"github.com/tienda/checkout/internal/service"
)

type PurchasesHandler struct {
	service CheckoutService
}

func NewPurchasesHandler(service CheckoutService) *PurchasesHandler {
	return &PurchasesHandler{service: service}
}

type purchasesResponse struct {
	UserID       string                     `json:"user_id"`
	Status       string                     `json:"status,omitempty"`
	Page         int                        `json:"page"`
	Limit        int                        `json:"limit"`
	Total        int                        `json:"total"`
	Pages        int                        `json:"pages"`
	StatusCounts map[domain.OrderStatus]int `json:"status_counts"`
	Purchases    []*domain.Order            `json:"purchases"`
}

// List handles GET /api/v1/purchases. Callers see their own history; admins
// may inspect another user via the user_id query parameter.
func (h *PurchasesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	if override := r.URL.Query().Get("user_id"); override != "" && override != userID {
		if !isAdmin(r.Context()) {
			respondError(w, http.StatusForbidden, "forbidden", "access denied")
			return
		}
		userID = override
	}

	filter := service.PurchaseFilter{UserID: userID}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := domain.ParseOrderStatus(raw)
		if !ok {
			respondError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
			return
		}
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_page", "page must be an integer")
			return
		}
		filter.Page = page
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		filter.Limit = limit
	}

	page, err := h.service.ListPurchases(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := purchasesResponse{
		UserID:       userID,
		Page:         page.Page,
		Limit:        page.Limit,
		Total:        page.Total,
		Pages:        page.Pages,
		StatusCounts: page.StatusCounts,
		Purchases:    page.Orders,
	}
	if filter.Status != nil {
		resp.Status = filter.Status.String()
	}
	if resp.Purchases == nil {
		resp.Purchases = []*domain.Order{}
	}
	respondJSON(w, http.StatusOK, resp)
}
