package card

import (
	"context"
	"time"
)

// Card is the flat storage representation of one printing. Nullable scalars
// are pointers so an absent source field stays NULL in the database; nested
// structures (legalities, prices, faces, related objects) are kept as opaque
// serialized blobs; RawJSON retains the verbatim source record.
type Card struct {
	ID             string   `json:"id"`
	OracleID       *string  `json:"oracle_id,omitempty"`
	Name           string   `json:"name"`
	Lang           *string  `json:"lang,omitempty"`
	ReleasedAt     *string  `json:"released_at,omitempty"`
	URI            *string  `json:"uri,omitempty"`
	ScryfallURI    *string  `json:"scryfall_uri,omitempty"`
	Layout         *string  `json:"layout,omitempty"`
	HighresImage   *bool    `json:"highres_image,omitempty"`
	ImageStatus    *string  `json:"image_status,omitempty"`
	ManaCost       *string  `json:"mana_cost,omitempty"`
	CMC            *float64 `json:"cmc,omitempty"`
	TypeLine       *string  `json:"type_line,omitempty"`
	OracleText     *string  `json:"oracle_text,omitempty"`
	Power          *string  `json:"power,omitempty"`
	Toughness      *string  `json:"toughness,omitempty"`
	Loyalty        *string  `json:"loyalty,omitempty"`
	Defense        *string  `json:"defense,omitempty"`
	Colors         *string  `json:"colors,omitempty"`
	ColorIdentity  *string  `json:"color_identity,omitempty"`
	Keywords       *string  `json:"keywords,omitempty"`
	Games          *string  `json:"games,omitempty"`
	Reserved       *bool    `json:"reserved,omitempty"`
	Foil           *bool    `json:"foil,omitempty"`
	Nonfoil        *bool    `json:"nonfoil,omitempty"`
	Finishes       *string  `json:"finishes,omitempty"`
	Oversized      *bool    `json:"oversized,omitempty"`
	Promo          *bool    `json:"promo,omitempty"`
	Reprint        *bool    `json:"reprint,omitempty"`
	Variation      *bool    `json:"variation,omitempty"`
	SetID          *string  `json:"set_id,omitempty"`
	SetCode        *string  `json:"set,omitempty"`
	SetName        *string  `json:"set_name,omitempty"`
	SetType        *string  `json:"set_type,omitempty"`
	SetURI         *string  `json:"set_uri,omitempty"`
	SetSearchURI   *string  `json:"set_search_uri,omitempty"`
	ScryfallSetURI *string  `json:"scryfall_set_uri,omitempty"`
	RulingsURI     *string  `json:"rulings_uri,omitempty"`
	PrintsURI      *string  `json:"prints_search_uri,omitempty"`
	CollectorNo    *string  `json:"collector_number,omitempty"`
	Digital        *bool    `json:"digital,omitempty"`
	Rarity         *string  `json:"rarity,omitempty"`
	FlavorText     *string  `json:"flavor_text,omitempty"`
	CardBackID     *string  `json:"card_back_id,omitempty"`
	Artist         *string  `json:"artist,omitempty"`
	ArtistIDs      *string  `json:"artist_ids,omitempty"`
	IllustrationID *string  `json:"illustration_id,omitempty"`
	BorderColor    *string  `json:"border_color,omitempty"`
	Frame          *string  `json:"frame,omitempty"`
	FullArt        *bool    `json:"full_art,omitempty"`
	Textless       *bool    `json:"textless,omitempty"`
	Booster        *bool    `json:"booster,omitempty"`
	StorySpotlight *bool    `json:"story_spotlight,omitempty"`
	EdhrecRank     *int     `json:"edhrec_rank,omitempty"`
	PennyRank      *int     `json:"penny_rank,omitempty"`

	// Opaque serialized blobs ("null" when absent at the source).
	Legalities   string `json:"legalities,omitempty"`
	Prices       string `json:"prices,omitempty"`
	RelatedURIs  string `json:"related_uris,omitempty"`
	PurchaseURIs string `json:"purchase_uris,omitempty"`
	ImageURIs    string `json:"image_uris,omitempty"`
	CardFaces    string `json:"card_faces,omitempty"`
	AllParts     string `json:"all_parts,omitempty"`

	RawJSON   string    `json:"-"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Filter narrows the local card listing. Zero values mean "no constraint".
type Filter struct {
	Name     string
	SetCode  string
	Rarity   string
	TypeLine string
	MinCMC   *float64
	MaxCMC   *float64
	Limit    int
	Offset   int
}

// Repository is the storage contract for normalized cards.
type Repository interface {
	Upsert(ctx context.Context, c *Card) error
	UpsertBatch(ctx context.Context, cards []Card) (int, error)
	Count(ctx context.Context) (int, error)
	GetByID(ctx context.Context, id string) (*Card, error)
	SearchByName(ctx context.Context, name string, limit int) ([]Card, error)
	List(ctx context.Context, f Filter) ([]Card, int, error)
}
