package card

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("card not found")

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// execer is satisfied by both *pgxpool.Pool and pgx.Tx, so the same upsert
// runs standalone or inside a batch transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const upsertSQL = `
	INSERT INTO cards (
		id, oracle_id, name, lang, released_at, uri, scryfall_uri, layout,
		highres_image, image_status, mana_cost, cmc, type_line, oracle_text,
		power, toughness, loyalty, defense, colors, color_identity, keywords,
		legalities, games, reserved, foil, nonfoil, finishes, oversized, promo,
		reprint, variation, set_id, set_code, set_name, set_type, set_uri,
		set_search_uri, scryfall_set_uri, rulings_uri, prints_search_uri,
		collector_number, digital, rarity, flavor_text, card_back_id, artist,
		artist_ids, illustration_id, border_color, frame, full_art, textless,
		booster, story_spotlight, edhrec_rank, penny_rank, prices, related_uris,
		purchase_uris, image_uris, card_faces, all_parts, raw_json, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
		$31, $32, $33, $34, $35, $36, $37, $38, $39, $40, $41, $42, $43, $44,
		$45, $46, $47, $48, $49, $50, $51, $52, $53, $54, $55, $56, $57, $58,
		$59, $60, $61, $62, $63, now()
	)
	ON CONFLICT (id) DO UPDATE SET
		oracle_id = EXCLUDED.oracle_id,
		name = EXCLUDED.name,
		lang = EXCLUDED.lang,
		released_at = EXCLUDED.released_at,
		uri = EXCLUDED.uri,
		scryfall_uri = EXCLUDED.scryfall_uri,
		layout = EXCLUDED.layout,
		highres_image = EXCLUDED.highres_image,
		image_status = EXCLUDED.image_status,
		mana_cost = EXCLUDED.mana_cost,
		cmc = EXCLUDED.cmc,
		type_line = EXCLUDED.type_line,
		oracle_text = EXCLUDED.oracle_text,
		power = EXCLUDED.power,
		toughness = EXCLUDED.toughness,
		loyalty = EXCLUDED.loyalty,
		defense = EXCLUDED.defense,
		colors = EXCLUDED.colors,
		color_identity = EXCLUDED.color_identity,
		keywords = EXCLUDED.keywords,
		legalities = EXCLUDED.legalities,
		games = EXCLUDED.games,
		reserved = EXCLUDED.reserved,
		foil = EXCLUDED.foil,
		nonfoil = EXCLUDED.nonfoil,
		finishes = EXCLUDED.finishes,
		oversized = EXCLUDED.oversized,
		promo = EXCLUDED.promo,
		reprint = EXCLUDED.reprint,
		variation = EXCLUDED.variation,
		set_id = EXCLUDED.set_id,
		set_code = EXCLUDED.set_code,
		set_name = EXCLUDED.set_name,
		set_type = EXCLUDED.set_type,
		set_uri = EXCLUDED.set_uri,
		set_search_uri = EXCLUDED.set_search_uri,
		scryfall_set_uri = EXCLUDED.scryfall_set_uri,
		rulings_uri = EXCLUDED.rulings_uri,
		prints_search_uri = EXCLUDED.prints_search_uri,
		collector_number = EXCLUDED.collector_number,
		digital = EXCLUDED.digital,
		rarity = EXCLUDED.rarity,
		flavor_text = EXCLUDED.flavor_text,
		card_back_id = EXCLUDED.card_back_id,
		artist = EXCLUDED.artist,
		artist_ids = EXCLUDED.artist_ids,
		illustration_id = EXCLUDED.illustration_id,
		border_color = EXCLUDED.border_color,
		frame = EXCLUDED.frame,
		full_art = EXCLUDED.full_art,
		textless = EXCLUDED.textless,
		booster = EXCLUDED.booster,
		story_spotlight = EXCLUDED.story_spotlight,
		edhrec_rank = EXCLUDED.edhrec_rank,
		penny_rank = EXCLUDED.penny_rank,
		prices = EXCLUDED.prices,
		related_uris = EXCLUDED.related_uris,
		purchase_uris = EXCLUDED.purchase_uris,
		image_uris = EXCLUDED.image_uris,
		card_faces = EXCLUDED.card_faces,
		all_parts = EXCLUDED.all_parts,
		raw_json = EXCLUDED.raw_json,
		updated_at = now()`

func upsertArgs(c *Card) []any {
	return []any{
		c.ID, c.OracleID, c.Name, c.Lang, c.ReleasedAt, c.URI, c.ScryfallURI,
		c.Layout, c.HighresImage, c.ImageStatus, c.ManaCost, c.CMC, c.TypeLine,
		c.OracleText, c.Power, c.Toughness, c.Loyalty, c.Defense, c.Colors,
		c.ColorIdentity, c.Keywords, c.Legalities, c.Games, c.Reserved, c.Foil,
		c.Nonfoil, c.Finishes, c.Oversized, c.Promo, c.Reprint, c.Variation,
		c.SetID, c.SetCode, c.SetName, c.SetType, c.SetURI, c.SetSearchURI,
		c.ScryfallSetURI, c.RulingsURI, c.PrintsURI, c.CollectorNo, c.Digital,
		c.Rarity, c.FlavorText, c.CardBackID, c.Artist, c.ArtistIDs,
		c.IllustrationID, c.BorderColor, c.Frame, c.FullArt, c.Textless,
		c.Booster, c.StorySpotlight, c.EdhrecRank, c.PennyRank, c.Prices,
		c.RelatedURIs, c.PurchaseURIs, c.ImageURIs, c.CardFaces, c.AllParts,
		c.RawJSON,
	}
}

func upsertOne(ctx context.Context, db execer, c *Card) error {
	if _, err := db.Exec(ctx, upsertSQL, upsertArgs(c)...); err != nil {
		return fmt.Errorf("upsert card %s: %w", c.ID, err)
	}
	return nil
}

// Upsert inserts or overwrites a single card keyed on its Scryfall id. Every
// column except created_at is replaced; updated_at is bumped.
func (r *PostgresRepo) Upsert(ctx context.Context, c *Card) error {
	return upsertOne(ctx, r.db, c)
}

// UpsertBatch applies a batch of cards inside one transaction. Any failure
// aborts the whole batch; nothing from a failed batch is committed.
func (r *PostgresRepo) UpsertBatch(ctx context.Context, cards []Card) (int, error) {
	if len(cards) == 0 {
		return 0, nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range cards {
		if err := upsertOne(ctx, tx, &cards[i]); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return len(cards), nil
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM cards`).Scan(&n)
	return n, err
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (*Card, error) {
	const sql = `
		SELECT id, name, raw_json, created_at, updated_at
		FROM cards WHERE id = $1`

	var c Card
	err := r.db.QueryRow(ctx, sql, id).Scan(&c.ID, &c.Name, &c.RawJSON, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// listColumns is the read-side projection served by the HTTP handlers.
const listColumns = `
	id, name, mana_cost, cmc, power, toughness, type_line, oracle_text,
	colors, color_identity, rarity, keywords, set_code, set_name, layout,
	image_uris, legalities`

func scanListed(rows pgx.Rows) ([]Card, error) {
	var cards []Card
	for rows.Next() {
		var c Card
		if err := rows.Scan(
			&c.ID, &c.Name, &c.ManaCost, &c.CMC, &c.Power, &c.Toughness,
			&c.TypeLine, &c.OracleText, &c.Colors, &c.ColorIdentity, &c.Rarity,
			&c.Keywords, &c.SetCode, &c.SetName, &c.Layout, &c.ImageURIs,
			&c.Legalities,
		); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// SearchByName does a case-insensitive partial match on card names.
func (r *PostgresRepo) SearchByName(ctx context.Context, name string, limit int) ([]Card, error) {
	sql := `SELECT ` + listColumns + `
		FROM cards WHERE name ILIKE $1
		ORDER BY name LIMIT $2`

	rows, err := r.db.Query(ctx, sql, "%"+name+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanListed(rows)
}

// List returns a filtered, paginated slice of cards plus the total count of
// matches. Count and data share the same WHERE clause and arguments so the
// reported total always reflects the active filters.
func (r *PostgresRepo) List(ctx context.Context, f Filter) ([]Card, int, error) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Name != "" {
		add("name ILIKE $%d", "%"+f.Name+"%")
	}
	if f.SetCode != "" {
		add("set_code = $%d", f.SetCode)
	}
	if f.Rarity != "" {
		add("rarity = $%d", f.Rarity)
	}
	if f.TypeLine != "" {
		add("type_line ILIKE $%d", "%"+f.TypeLine+"%")
	}
	if f.MinCMC != nil {
		add("cmc >= $%d", *f.MinCMC)
	}
	if f.MaxCMC != nil {
		add("cmc <= $%d", *f.MaxCMC)
	}

	where := "1=1"
	if len(conds) > 0 {
		where = strings.Join(conds, " AND ")
	}

	var total int
	countSQL := `SELECT COUNT(*) FROM cards WHERE ` + where
	if err := r.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cards: %w", err)
	}

	dataSQL := fmt.Sprintf(`SELECT %s FROM cards WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		listColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, dataSQL, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	cards, err := scanListed(rows)
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}
