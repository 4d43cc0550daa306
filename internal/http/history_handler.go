package http

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fjod/go_pos/internal/history"
	"github.com/fjod/go_pos/internal/pos"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type HistoryHandler struct {
	registry *pos.Registry
}

func NewHistoryHandler(registry *pos.Registry) *HistoryHandler {
	return &HistoryHandler{registry: registry}
}

func parseBool(q url.Values, key string, def bool) (bool, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.ParseBool(v)
}

func parseDecimal(q url.Values, key string) (*decimal.Decimal, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// parseDate accepts RFC 3339 or a plain date. A plain end date covers the
// whole day.
func parseDate(q url.Values, key string, endOfDay bool) (*time.Time, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func parseFilter(q url.Values) (history.Filter, string, error) {
	var (
		f   history.Filter
		err error
	)
	if f.IncludeServices, err = parseBool(q, "services", true); err != nil {
		return f, "services", err
	}
	if f.IncludeProducts, err = parseBool(q, "products", true); err != nil {
		return f, "products", err
	}
	if f.MinPrice, err = parseDecimal(q, "min_price"); err != nil {
		return f, "min_price", err
	}
	if f.MaxPrice, err = parseDecimal(q, "max_price"); err != nil {
		return f, "max_price", err
	}
	if f.StartDate, err = parseDate(q, "start_date", false); err != nil {
		return f, "start_date", err
	}
	if f.EndDate, err = parseDate(q, "end_date", true); err != nil {
		return f, "end_date", err
	}
	return f, "", nil
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	f, param, err := parseFilter(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_filter", "invalid "+param)
		return
	}

	reg := h.registry.Get(getRegisterID(r.Context()))
	respondJSON(w, http.StatusOK, reg.History(r.Context(), f))
}
