package deck

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

type createDeckRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Format      *string `json:"format"`
	IsPublic    bool    `json:"is_public"`
}

// Create handles POST /v1/decks.
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON", nil)
		return
	}
	if req.Name == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", []httpx.ErrorDetail{
			{Field: "name", Message: "name is required"},
		})
		return
	}

	d := Deck{
		Name:        req.Name,
		Description: req.Description,
		Format:      req.Format,
		IsPublic:    req.IsPublic,
	}
	if err := h.repo.Create(r.Context(), &d); err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create deck", nil)
		return
	}
	httpx.JSONSuccessCreated(w, r, d)
}

// Get handles GET /v1/decks/{id}.
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.repo.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, ErrNotFound) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Deck not found", nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load deck", nil)
		return
	}
	httpx.JSONSuccess(w, r, d, nil)
}

// List handles GET /v1/decks with page and page_size parameters.
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	pageSize := 20
	if v := r.URL.Query().Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			pageSize = n
		}
	}

	decks, total, err := h.repo.List(r.Context(), pageSize, (page-1)*pageSize)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list decks", nil)
		return
	}
	if decks == nil {
		decks = []Deck{}
	}

	totalPages := (total + pageSize - 1) / pageSize
	httpx.JSONSuccess(w, r, decks, map[string]any{
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": totalPages,
	})
}

type updateDeckRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Format      *string `json:"format"`
	IsPublic    *bool   `json:"is_public"`
}

// Update handles PATCH /v1/decks/{id}. Absent fields keep their current
// values.
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON", nil)
		return
	}

	d, err := h.repo.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, ErrNotFound) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Deck not found", nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load deck", nil)
		return
	}

	if req.Name != nil {
		if *req.Name == "" {
			httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", []httpx.ErrorDetail{
				{Field: "name", Message: "name must not be empty"},
			})
			return
		}
		d.Name = *req.Name
	}
	if req.Description != nil {
		d.Description = req.Description
	}
	if req.Format != nil {
		d.Format = req.Format
	}
	if req.IsPublic != nil {
		d.IsPublic = *req.IsPublic
	}

	if err := h.repo.Update(r.Context(), d); err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update deck", nil)
		return
	}
	httpx.JSONSuccess(w, r, d, nil)
}

// Delete handles DELETE /v1/decks/{id}.
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.repo.Delete(r.Context(), r.PathValue("id"))
	if errors.Is(err, ErrNotFound) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Deck not found", nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete deck", nil)
		return
	}
	httpx.JSONNoContent(w)
}

// AddCard handles POST /v1/decks/{id}/cards. Adding a card that is already
// in the deck replaces its quantity and flags.
func (h *HTTPHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	var req AddCardInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON", nil)
		return
	}

	var details []httpx.ErrorDetail
	if req.CardID == "" {
		details = append(details, httpx.ErrorDetail{Field: "card_id", Message: "card_id is required"})
	}
	if req.Quantity < 1 {
		details = append(details, httpx.ErrorDetail{Field: "quantity", Message: "quantity must be at least 1"})
	}
	if details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
		return
	}

	deckID := r.PathValue("id")
	if _, err := h.repo.GetByID(r.Context(), deckID); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Deck not found", nil)
			return
		}
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load deck", nil)
		return
	}

	dc, err := h.repo.AddCard(r.Context(), deckID, req)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to add card", nil)
		return
	}
	httpx.JSONSuccessCreated(w, r, dc)
}

// RemoveCard handles DELETE /v1/decks/{id}/cards/{cardID}.
func (h *HTTPHandler) RemoveCard(w http.ResponseWriter, r *http.Request) {
	err := h.repo.RemoveCard(r.Context(), r.PathValue("id"), r.PathValue("cardID"))
	if errors.Is(err, ErrNotFound) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Card not in deck", nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to remove card", nil)
		return
	}
	httpx.JSONNoContent(w)
}

// ListCards handles GET /v1/decks/{id}/cards.
func (h *HTTPHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	deckID := r.PathValue("id")
	if _, err := h.repo.GetByID(r.Context(), deckID); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Deck not found", nil)
			return
		}
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load deck", nil)
		return
	}

	cards, err := h.repo.ListCards(r.Context(), deckID)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list cards", nil)
		return
	}
	if cards == nil {
		cards = []DeckCard{}
	}
	httpx.JSONSuccess(w, r, cards, map[string]any{"total": len(cards)})
}
