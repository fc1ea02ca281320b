package deck

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("deck not found")

type Deck struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Format      *string   `json:"format,omitempty"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DeckCard is one card entry in a deck; CardID references the ingested cards
// table.
type DeckCard struct {
	ID          string    `json:"id"`
	DeckID      string    `json:"deck_id"`
	CardID      string    `json:"card_id"`
	Quantity    int       `json:"quantity"`
	IsSideboard bool      `json:"is_sideboard"`
	IsCommander bool      `json:"is_commander"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type AddCardInput struct {
	CardID      string `json:"card_id"`
	Quantity    int    `json:"quantity"`
	IsSideboard bool   `json:"is_sideboard"`
	IsCommander bool   `json:"is_commander"`
}

type Repository interface {
	Create(ctx context.Context, d *Deck) error
	GetByID(ctx context.Context, id string) (*Deck, error)
	List(ctx context.Context, limit, offset int) ([]Deck, int, error)
	Update(ctx context.Context, d *Deck) error
	Delete(ctx context.Context, id string) error
	AddCard(ctx context.Context, deckID string, in AddCardInput) (*DeckCard, error)
	RemoveCard(ctx context.Context, deckID, cardID string) error
	ListCards(ctx context.Context, deckID string) ([]DeckCard, error)
}
