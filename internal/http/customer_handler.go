package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/fjod/go_pos/internal/logger"
	"github.com/fjod/go_pos/internal/pos"
	"go.uber.org/zap"
)

type CustomerDirectory interface {
	Search(ctx context.Context, query string) ([]domain.Customer, error)
	Create(ctx context.Context, data domain.NewCustomer) (*domain.Customer, error)
}

type CustomerHandler struct {
	directory CustomerDirectory
	book      *pos.CustomerBook
	timeout   time.Duration
	logger    *zap.Logger
}

func NewCustomerHandler(directory CustomerDirectory, book *pos.CustomerBook, timeout time.Duration, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		directory: directory,
		book:      book,
		timeout:   timeout,
		logger:    logger,
	}
}

func (h *CustomerHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customers, err := h.directory.Search(ctx, r.URL.Query().Get("q"))
	if err != nil {
		handleError(w, logger.FromContext(ctx, h.logger), err)
		return
	}
	h.book.Remember(customers...)

	if customers == nil {
		customers = []domain.Customer{}
	}
	respondJSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.NewCustomer
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "invalid_customer", "name is required")
		return
	}

	c, err := h.directory.Create(ctx, req)
	if err != nil {
		handleError(w, logger.FromContext(ctx, h.logger), err)
		return
	}
	h.book.Remember(*c)
	respondJSON(w, http.StatusCreated, c)
}
