package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kennedy-ak/hitech-store/internal/domain"
	"github.com/kennedy-ak/hitech-store/internal/service"
)

type AddressHandler struct {
	addresses *service.AddressService
	timeout   time.Duration
}

func NewAddressHandler(addresses *service.AddressService, timeout time.Duration) *AddressHandler {
	return &AddressHandler{
		addresses: addresses,
		timeout:   timeout,
	}
}

type AddressRequestDTO struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	IsDefault    bool   `json:"is_default"`
}

// GET /api/v1/addresses
func (h *AddressHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	addrs, err := h.addresses.List(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if addrs == nil {
		addrs = []domain.ShippingAddress{}
	}
	respondJSON(w, http.StatusOK, addrs)
}

// POST /api/v1/addresses
func (h *AddressHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	req, ok := decodeAddress(w, r)
	if !ok {
		return
	}

	addr := req.toDomain(getUserIDFromContext(r.Context()))
	if err := h.addresses.Create(ctx, addr); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, addr)
}

// PUT /api/v1/addresses/{address_id}
func (h *AddressHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	addressID, ok := addressIDParam(w, r)
	if !ok {
		return
	}

	req, ok := decodeAddress(w, r)
	if !ok {
		return
	}

	addr := req.toDomain(getUserIDFromContext(r.Context()))
	addr.ID = addressID
	if err := h.addresses.Update(ctx, addr); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, addr)
}

// DELETE /api/v1/addresses/{address_id}
func (h *AddressHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	addressID, ok := addressIDParam(w, r)
	if !ok {
		return
	}

	if err := h.addresses.Delete(ctx, addressID, getUserIDFromContext(r.Context())); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/addresses/{address_id}/default
func (h *AddressHandler) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	addressID, ok := addressIDParam(w, r)
	if !ok {
		return
	}

	if err := h.addresses.SetDefault(ctx, addressID, getUserIDFromContext(r.Context())); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (req AddressRequestDTO) toDomain(userID int64) *domain.ShippingAddress {
	return &domain.ShippingAddress{
		UserID:       userID,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		IsDefault:    req.IsDefault,
	}
}

func decodeAddress(w http.ResponseWriter, r *http.Request) (AddressRequestDTO, bool) {
	var req AddressRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return req, false
	}
	if req.Name == "" || req.AddressLine1 == "" {
		respondError(w, http.StatusBadRequest, "validation_failed", "name and address_line_1 are required")
		return req, false
	}
	return req, true
}

func addressIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "address_id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_address_id", "address_id must be a positive integer")
		return 0, false
	}
	return id, true
}
