package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kennedy-ak/hitech-store/internal/domain"
	"github.com/kennedy-ak/hitech-store/internal/service"
)

type CheckoutHandler struct {
	checkout *service.CheckoutService
	timeout  time.Duration
}

func NewCheckoutHandler(checkout *service.CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
	}
}

type CheckoutRequestDTO struct {
	AddressID       *int64 `json:"address_id,omitempty"`
	ShippingName    string `json:"shipping_name,omitempty"`
	ShippingEmail   string `json:"shipping_email,omitempty"`
	ShippingPhone   string `json:"shipping_phone,omitempty"`
	ShippingAddress string `json:"shipping_address,omitempty"`
}

type OrderResponseDTO struct {
	ID               string              `json:"id"`
	TotalMinor       int64               `json:"total_minor"`
	Currency         string              `json:"currency"`
	PaymentReference string              `json:"payment_reference"`
	PaymentStatus    string              `json:"payment_status"`
	Status           string              `json:"status"`
	Shipping         domain.ShippingInfo `json:"shipping"`
	Items            []domain.OrderItem  `json:"items"`
	CreatedAt        string              `json:"created_at"`
}

func toOrderDTO(order *domain.Order) OrderResponseDTO {
	return OrderResponseDTO{
		ID:               order.ID.String(),
		TotalMinor:       order.TotalMinor,
		Currency:         order.Currency,
		PaymentReference: order.PaymentReference,
		PaymentStatus:    string(order.PaymentStatus),
		Status:           string(order.Status),
		Shipping:         order.Shipping,
		Items:            order.Items,
		CreatedAt:        order.CreatedAt.Format(time.RFC3339),
	}
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "login required for checkout")
		return
	}

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.checkout.Checkout(ctx, userID, service.CheckoutRequest{
		AddressID:       req.AddressID,
		ShippingName:    req.ShippingName,
		ShippingEmail:   req.ShippingEmail,
		ShippingPhone:   req.ShippingPhone,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toOrderDTO(order))
}

// GET /api/v1/orders
func (h *CheckoutHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.checkout.ListOrders(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	response := make([]OrderResponseDTO, 0, len(orders))
	for _, order := range orders {
		response = append(response, toOrderDTO(order))
	}

	respondJSON(w, http.StatusOK, response)
}

// GET /api/v1/orders/{order_id}
func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	order, err := h.checkout.GetOrder(ctx, orderID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderDTO(order))
}
