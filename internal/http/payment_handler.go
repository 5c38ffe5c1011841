package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kennedy-ak/hitech-store/internal/service"
)

type PaymentHandler struct {
	payments    *service.PaymentService
	callbackURL string
	timeout     time.Duration
}

// NewPaymentHandler takes the externally reachable base URL this service
// is served from; the gateway sends the customer back to it.
func NewPaymentHandler(payments *service.PaymentService, baseURL string, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{
		payments:    payments,
		callbackURL: baseURL + "/api/v1/payments/callback",
		timeout:     timeout,
	}
}

type InitiatePaymentResponseDTO struct {
	AuthorizationURL string `json:"authorization_url"`
}

// POST /api/v1/orders/{order_id}/pay
func (h *PaymentHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
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

	redirectURL, err := h.payments.InitiatePayment(ctx, userID, orderID, h.callbackURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, InitiatePaymentResponseDTO{AuthorizationURL: redirectURL})
}

// GET /api/v1/payments/callback?reference=...
//
// The gateway redirects the customer's browser here after the hosted
// payment page. No auth: the reference is the lookup key.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	reference := r.URL.Query().Get("reference")
	if reference == "" {
		respondError(w, http.StatusBadRequest, "missing_reference", "payment reference is required")
		return
	}

	order, err := h.payments.HandleCallback(ctx, reference)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderDTO(order))
}
