package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/fjod/go_pos/internal/logger"
	"github.com/fjod/go_pos/internal/pos"
	"github.com/fjod/go_pos/internal/session"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxQuantity = 999

// ItemSource resolves sellable items for cart requests.
type ItemSource interface {
	Items(ctx context.Context) ([]domain.Item, error)
	Lookup(ctx context.Context, key domain.CartKey) (domain.Item, error)
}

type CartHandler struct {
	registry *pos.Registry
	items    ItemSource
	timeout  time.Duration
	logger   *zap.Logger
}

func NewCartHandler(registry *pos.Registry, items ItemSource, timeout time.Duration, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		registry: registry,
		items:    items,
		timeout:  timeout,
		logger:   logger,
	}
}

type AddItemRequestDTO struct {
	ItemID   int64           `json:"item_id"`
	ItemType domain.ItemType `json:"item_type"`
	Quantity int             `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type SelectCustomerRequestDTO struct {
	CustomerID string `json:"customer_id"`
}

type PreseedRequestDTO struct {
	Lines      []AddItemRequestDTO `json:"lines"`
	CustomerID string              `json:"customer_id,omitempty"`
}

func (h *CartHandler) register(r *http.Request) *pos.Register {
	return h.registry.Get(getRegisterID(r.Context()))
}

// lineKey parses the {type}/{id} route params.
func lineKey(r *http.Request) (domain.CartKey, bool) {
	t := domain.ItemType(chi.URLParam(r, "type"))
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 || !t.Valid() {
		return domain.CartKey{}, false
	}
	return domain.NewCartKey(t, id), true
}

func (h *CartHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.items.Items(ctx)
	if err != nil {
		handleError(w, logger.FromContext(ctx, h.logger), err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.register(r).Cart())
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ItemID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id must be positive")
		return
	}
	if !req.ItemType.Valid() {
		respondError(w, http.StatusBadRequest, "invalid_item_type", "item_type must be service or product")
		return
	}
	if req.Quantity < 0 || req.Quantity > maxQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 0 and 999")
		return
	}

	item, err := h.items.Lookup(ctx, domain.NewCartKey(req.ItemType, req.ItemID))
	if err != nil {
		handleError(w, logger.FromContext(ctx, h.logger), err)
		return
	}

	reg := h.register(r)
	err = reg.UpdateCart(func(s *session.Session) {
		s.AddOrSetLine(item, req.ItemType, req.Quantity)
	})
	if err != nil {
		handleError(w, logger.FromContext(ctx, h.logger), err)
		return
	}
	respondJSON(w, http.StatusCreated, reg.Cart())
}

func (h *CartHandler) Increment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	key, ok := lineKey(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_item", "invalid item type or id")
		return
	}

	item, err := h.items.Lookup(ctx, key)
	if err != nil {
		handleError(w, logger.FromContext(ctx, h.logger), err)
		return
	}

	h.update(w, r, func(s *session.Session) {
		s.Increment(item, key.Type)
	})
}

func (h *CartHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	key, ok := lineKey(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_item", "invalid item type or id")
		return
	}
	h.update(w, r, func(s *session.Session) {
		s.DecrementKey(key)
	})
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	key, ok := lineKey(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_item", "invalid item type or id")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity < 0 || req.Quantity > maxQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 0 and 999")
		return
	}

	h.update(w, r, func(s *session.Session) {
		s.SetQuantity(key, req.Quantity)
	})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	key, ok := lineKey(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_item", "invalid item type or id")
		return
	}
	h.update(w, r, func(s *session.Session) {
		s.Remove(key)
	})
}

func (h *CartHandler) update(w http.ResponseWriter, r *http.Request, fn func(s *session.Session)) {
	reg := h.register(r)
	if err := reg.UpdateCart(fn); err != nil {
		handleError(w, logger.FromContext(r.Context(), h.logger), err)
		return
	}
	respondJSON(w, http.StatusOK, reg.Cart())
}

func (h *CartHandler) SelectCustomer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SelectCustomerRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	c, ok := h.registry.Customers().Lookup(req.CustomerID)
	if !ok {
		respondError(w, http.StatusNotFound, "customer_not_found", "customer not found, search for it first")
		return
	}

	reg := h.register(r)
	if err := reg.SelectCustomer(ctx, c); err != nil {
		handleError(w, logger.FromContext(ctx, h.logger), err)
		return
	}
	respondJSON(w, http.StatusOK, reg.Cart())
}

func (h *CartHandler) ClearCustomer(w http.ResponseWriter, r *http.Request) {
	reg := h.register(r)
	if err := reg.ClearCustomer(); err != nil {
		handleError(w, logger.FromContext(r.Context(), h.logger), err)
		return
	}
	respondJSON(w, http.StatusOK, reg.Cart())
}

// Preseed replaces the cart and customer, e.g. when staff jump to the register
// from an appointment.
func (h *CartHandler) Preseed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PreseedRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	lines := make([]domain.CartLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		if !l.ItemType.Valid() || l.ItemID <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_item", "invalid item type or id")
			return
		}
		if l.Quantity < 0 || l.Quantity > maxQuantity {
			respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 0 and 999")
			return
		}
		item, err := h.items.Lookup(ctx, domain.NewCartKey(l.ItemType, l.ItemID))
		if err != nil {
			handleError(w, logger.FromContext(ctx, h.logger), err)
			return
		}
		lines = append(lines, domain.NewCartLine(item, l.ItemType, l.Quantity))
	}

	var customer *domain.Customer
	if req.CustomerID != "" {
		c, ok := h.registry.Customers().Lookup(req.CustomerID)
		if !ok {
			respondError(w, http.StatusNotFound, "customer_not_found", "customer not found, search for it first")
			return
		}
		customer = &c
	}

	reg := h.register(r)
	if err := reg.Preseed(lines, customer); err != nil {
		handleError(w, logger.FromContext(ctx, h.logger), err)
		return
	}
	respondJSON(w, http.StatusOK, reg.Cart())
}
