package deck

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, d *Deck) error {
	d.ID = uuid.New().String()

	const sql = `
		INSERT INTO decks (id, name, description, format, is_public)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, sql, d.ID, d.Name, d.Description, d.Format, d.IsPublic).
		Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create deck: %w", err)
	}
	return nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (*Deck, error) {
	const sql = `
		SELECT id, name, description, format, is_public, created_at, updated_at
		FROM decks WHERE id = $1`

	var d Deck
	err := r.db.QueryRow(ctx, sql, id).
		Scan(&d.ID, &d.Name, &d.Description, &d.Format, &d.IsPublic, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PostgresRepo) List(ctx context.Context, limit, offset int) ([]Deck, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM decks`).Scan(&total); err != nil {
		return nil, 0, err
	}

	const sql = `
		SELECT id, name, description, format, is_public, created_at, updated_at
		FROM decks ORDER BY updated_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, sql, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var decks []Deck
	for rows.Next() {
		var d Deck
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.Format, &d.IsPublic, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		decks = append(decks, d)
	}
	return decks, total, rows.Err()
}

func (r *PostgresRepo) Update(ctx context.Context, d *Deck) error {
	const sql = `
		UPDATE decks SET
			name = $1,
			description = $2,
			format = $3,
			is_public = $4,
			updated_at = now()
		WHERE id = $5
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, sql, d.Name, d.Description, d.Format, d.IsPublic, d.ID).Scan(&d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM decks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddCard inserts a card entry, or updates quantity and flags when the card
// is already in the deck.
func (r *PostgresRepo) AddCard(ctx context.Context, deckID string, in AddCardInput) (*DeckCard, error) {
	const sql = `
		INSERT INTO deck_cards (id, deck_id, card_id, quantity, is_sideboard, is_commander)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (deck_id, card_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			is_sideboard = EXCLUDED.is_sideboard,
			is_commander = EXCLUDED.is_commander,
			updated_at = now()
		RETURNING id, created_at, updated_at`

	dc := DeckCard{
		DeckID:      deckID,
		CardID:      in.CardID,
		Quantity:    in.Quantity,
		IsSideboard: in.IsSideboard,
		IsCommander: in.IsCommander,
	}
	err := r.db.QueryRow(ctx, sql, uuid.New().String(), deckID, in.CardID, in.Quantity, in.IsSideboard, in.IsCommander).
		Scan(&dc.ID, &dc.CreatedAt, &dc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("add card to deck %s: %w", deckID, err)
	}
	return &dc, nil
}

func (r *PostgresRepo) RemoveCard(ctx context.Context, deckID, cardID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM deck_cards WHERE deck_id = $1 AND card_id = $2`, deckID, cardID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) ListCards(ctx context.Context, deckID string) ([]DeckCard, error) {
	const sql = `
		SELECT id, deck_id, card_id, quantity, is_sideboard, is_commander, created_at, updated_at
		FROM deck_cards WHERE deck_id = $1 ORDER BY created_at`

	rows, err := r.db.Query(ctx, sql, deckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []DeckCard
	for rows.Next() {
		var dc DeckCard
		if err := rows.Scan(&dc.ID, &dc.DeckID, &dc.CardID, &dc.Quantity, &dc.IsSideboard, &dc.IsCommander, &dc.CreatedAt, &dc.UpdatedAt); err != nil {
			return nil, err
		}
		cards = append(cards, dc)
	}
	return cards, rows.Err()
}
