package http

import (
	"encoding/json"
	"net/http"

	"github.com/fjod/go_pos/internal/checkout"
	"github.com/fjod/go_pos/internal/domain"
	"github.com/fjod/go_pos/internal/logger"
	"github.com/fjod/go_pos/internal/pos"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	registry *pos.Registry
	logger   *zap.Logger
}

func NewCheckoutHandler(registry *pos.Registry, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{registry: registry, logger: logger}
}

type SelectMethodRequestDTO struct {
	Method domain.PaymentMethod `json:"method"`
}

func (h *CheckoutHandler) register(r *http.Request) *pos.Register {
	return h.registry.Get(getRegisterID(r.Context()))
}

// reply writes the checkout snapshot, or the error that prevented the action.
func (h *CheckoutHandler) reply(w http.ResponseWriter, r *http.Request, reg *pos.Register, err error) {
	if err != nil {
		handleError(w, logger.FromContext(r.Context(), h.logger), err)
		return
	}
	respondJSON(w, http.StatusOK, reg.Checkout().Snapshot())
}

func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.reply(w, r, h.register(r), nil)
}

func (h *CheckoutHandler) Open(w http.ResponseWriter, r *http.Request) {
	reg := h.register(r)
	h.reply(w, r, reg, reg.Checkout().Open())
}

func (h *CheckoutHandler) SelectMethod(w http.ResponseWriter, r *http.Request) {
	var req SelectMethodRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	reg := h.register(r)
	h.reply(w, r, reg, reg.Checkout().SelectMethod(req.Method))
}

func (h *CheckoutHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	var form checkout.CardForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	reg := h.register(r)
	h.reply(w, r, reg, reg.Checkout().UpdateCardForm(form))
}

// Submit blocks until the payment settled.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	reg := h.register(r)
	h.reply(w, r, reg, reg.Submit(r.Context()))
}

func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	reg := h.register(r)
	h.reply(w, r, reg, reg.Checkout().Cancel(r.Context()))
}

func (h *CheckoutHandler) Done(w http.ResponseWriter, r *http.Request) {
	reg := h.register(r)
	h.reply(w, r, reg, reg.Checkout().Done(r.Context()))
}
