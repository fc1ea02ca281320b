package card

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"cardvault/internal/httpx"
)

type HTTPHandler struct {
	repo Repository
}

func NewHTTPHandler(repo Repository) *HTTPHandler {
	return &HTTPHandler{repo: repo}
}

// Search handles GET /v1/cards/search, a case-insensitive name search against
// the local store.
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if len(q) < 2 {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "query must be at least 2 characters", nil)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 175 {
		limit = 50
	}

	cards, err := h.repo.SearchByName(r.Context(), q, limit)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, r, cards, map[string]any{"total_cards": len(cards)})
}

// GetByID handles GET /v1/cards/{id}. It returns the verbatim payload retained
// at ingest time.
func (h *HTTPHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "card id is required", nil)
		return
	}

	c, err := h.repo.GetByID(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Card not found", nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, r, json.RawMessage(c.RawJSON), nil)
}

// List handles GET /v1/cards, the filtered paginated listing.
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(query.Get("page_size"))
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	f := Filter{
		Name:     query.Get("name"),
		SetCode:  query.Get("set"),
		Rarity:   query.Get("rarity"),
		TypeLine: query.Get("type"),
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	}
	if v := query.Get("min_cmc"); v != "" {
		if cmc, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinCMC = &cmc
		}
	}
	if v := query.Get("max_cmc"); v != "" {
		if cmc, err := strconv.ParseFloat(v, 64); err == nil {
			f.MaxCMC = &cmc
		}
	}

	cards, total, err := h.repo.List(r.Context(), f)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, r, cards, map[string]any{
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": (total + pageSize - 1) / pageSize,
	})
}
