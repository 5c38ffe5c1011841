package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/kennedy-ak/hitech-store/internal/payment"
	"github.com/kennedy-ak/hitech-store/internal/repository"
	"github.com/kennedy-ak/hitech-store/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: "",
	})
}

// handleServiceError maps domain and gateway failures onto HTTP statuses.
func handleServiceError(w http.ResponseWriter, err error) {
	var gatewayErr *payment.GatewayError

	switch {
	case errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrCartItemNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrAddressNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, service.ErrQuantityInvalid),
		errors.Is(err, service.ErrShippingIncomplete):
		respondError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrNotAuthenticated):
		respondError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, repository.ErrDuplicateEmail):
		respondError(w, http.StatusConflict, "email_taken", err.Error())
	case errors.As(err, &gatewayErr):
		respondError(w, http.StatusBadGateway, "gateway_error", gatewayErr.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
