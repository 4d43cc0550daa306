package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fjod/go_pos/internal/checkout"
	"github.com/fjod/go_pos/internal/inventory"
	"github.com/fjod/go_pos/internal/pos"
	"github.com/fjod/go_pos/internal/repository"
	"go.uber.org/zap"
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
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: "",
	})
}

// handleError maps domain errors to HTTP status codes.
func handleError(w http.ResponseWriter, log *zap.Logger, err error) {
	var verr *checkout.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "invalid payment details",
			Code:    "invalid_payment_details",
			Details: strings.Join(verr.Fields, ","),
		})
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, checkout.ErrNoPaymentMethod):
		respondError(w, http.StatusBadRequest, "no_payment_method", err.Error())
	case errors.Is(err, checkout.ErrInvalidMethod):
		respondError(w, http.StatusBadRequest, "invalid_method", err.Error())
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		respondError(w, http.StatusConflict, "checkout_in_progress", err.Error())
	case errors.Is(err, checkout.IllegalTransitionError):
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, pos.ErrCartLocked):
		respondError(w, http.StatusConflict, "cart_locked", err.Error())
	case errors.Is(err, inventory.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item_not_found", err.Error())
	case errors.Is(err, repository.ErrCustomerNameRequired):
		respondError(w, http.StatusBadRequest, "invalid_customer", err.Error())
	default:
		log.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
