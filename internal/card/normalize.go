package card

import (
	"encoding/json"
	"strings"
)

// Multi-faced cards (split, transform, modal_dfc, flip, adventure, meld) keep
// some fields on card_faces[] instead of the top level. Normalize flattens one
// raw record into a Card, falling back to the first face only when the
// top-level field is absent. It is total: missing or malformed input produces
// empty fields, never an error, and the verbatim payload is always retained.
func Normalize(raw json.RawMessage) Card {
	c := Card{RawJSON: string(raw)}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		c.Legalities, c.Prices = "null", "null"
		c.RelatedURIs, c.PurchaseURIs = "null", "null"
		c.ImageURIs, c.CardFaces, c.AllParts = "null", "null", "null"
		return c
	}

	face := frontFace(obj)

	if s := str(obj, "id"); s != nil {
		c.ID = *s
	}
	if s := str(obj, "name"); s != nil {
		c.Name = *s
	}
	c.OracleID = str(obj, "oracle_id")
	c.Lang = str(obj, "lang")
	c.ReleasedAt = str(obj, "released_at")
	c.URI = str(obj, "uri")
	c.ScryfallURI = str(obj, "scryfall_uri")
	c.Layout = str(obj, "layout")
	c.HighresImage = boolean(obj, "highres_image")
	c.ImageStatus = str(obj, "image_status")
	c.CMC = number(obj, "cmc")
	c.TypeLine = str(obj, "type_line")

	// Face-fallback-eligible scalars.
	c.ManaCost = strOrFace(obj, face, "mana_cost")
	c.OracleText = strOrFace(obj, face, "oracle_text")
	c.Power = strOrFace(obj, face, "power")
	c.Toughness = strOrFace(obj, face, "toughness")
	c.Loyalty = strOrFace(obj, face, "loyalty")
	c.Defense = strOrFace(obj, face, "defense")
	c.FlavorText = strOrFace(obj, face, "flavor_text")
	c.Artist = strOrFace(obj, face, "artist")
	c.IllustrationID = strOrFace(obj, face, "illustration_id")

	// Multi-valued fields flatten to comma-joined strings; only the color
	// fields look at the front face.
	c.Colors = joinOrFace(obj, face, "colors")
	c.ColorIdentity = joinOrFace(obj, face, "color_identity")
	c.Keywords = join(obj, "keywords")
	c.Games = join(obj, "games")
	c.Finishes = join(obj, "finishes")
	c.ArtistIDs = join(obj, "artist_ids")

	c.Reserved = boolean(obj, "reserved")
	c.Foil = boolean(obj, "foil")
	c.Nonfoil = boolean(obj, "nonfoil")
	c.Oversized = boolean(obj, "oversized")
	c.Promo = boolean(obj, "promo")
	c.Reprint = boolean(obj, "reprint")
	c.Variation = boolean(obj, "variation")
	c.SetID = str(obj, "set_id")
	c.SetCode = str(obj, "set")
	c.SetName = str(obj, "set_name")
	c.SetType = str(obj, "set_type")
	c.SetURI = str(obj, "set_uri")
	c.SetSearchURI = str(obj, "set_search_uri")
	c.ScryfallSetURI = str(obj, "scryfall_set_uri")
	c.RulingsURI = str(obj, "rulings_uri")
	c.PrintsURI = str(obj, "prints_search_uri")
	c.CollectorNo = str(obj, "collector_number")
	c.Digital = boolean(obj, "digital")
	c.Rarity = str(obj, "rarity")
	c.CardBackID = str(obj, "card_back_id")
	c.BorderColor = str(obj, "border_color")
	c.Frame = str(obj, "frame")
	c.FullArt = boolean(obj, "full_art")
	c.Textless = boolean(obj, "textless")
	c.Booster = boolean(obj, "booster")
	c.StorySpotlight = boolean(obj, "story_spotlight")
	c.EdhrecRank = integer(obj, "edhrec_rank")
	c.PennyRank = integer(obj, "penny_rank")

	c.Legalities = blob(obj, "legalities")
	c.Prices = blob(obj, "prices")
	c.RelatedURIs = blob(obj, "related_uris")
	c.PurchaseURIs = blob(obj, "purchase_uris")
	c.CardFaces = blob(obj, "card_faces")
	c.AllParts = blob(obj, "all_parts")
	c.ImageURIs = imageBlob(obj, face)

	return c
}

// NormalizePage normalizes every record of one search page.
func NormalizePage(records []json.RawMessage) []Card {
	cards := make([]Card, 0, len(records))
	for _, raw := range records {
		cards = append(cards, Normalize(raw))
	}
	return cards
}

func frontFace(obj map[string]json.RawMessage) map[string]json.RawMessage {
	rawFaces, ok := obj["card_faces"]
	if !ok {
		return nil
	}
	var faces []map[string]json.RawMessage
	if err := json.Unmarshal(rawFaces, &faces); err != nil || len(faces) == 0 {
		return nil
	}
	return faces[0]
}

// str returns the field as a string, or nil when the key is absent, null, or
// not a JSON string. Decoding into a pointer maps JSON null to absence.
func str(obj map[string]json.RawMessage, key string) *string {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return s
}

func strOrFace(obj, face map[string]json.RawMessage, key string) *string {
	if s := str(obj, key); s != nil {
		return s
	}
	if face != nil {
		return str(face, key)
	}
	return nil
}

func boolean(obj map[string]json.RawMessage, key string) *bool {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	var b *bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil
	}
	return b
}

func number(obj map[string]json.RawMessage, key string) *float64 {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	var f *float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	return f
}

func integer(obj map[string]json.RawMessage, key string) *int {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	var n *int
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil
	}
	return n
}

// join flattens a JSON array of strings to a comma-joined string. Non-string
// elements are skipped; a missing or non-array value yields nil.
func join(obj map[string]json.RawMessage, key string) *string {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	return joinRaw(raw)
}

func joinRaw(raw json.RawMessage) *string {
	var elems *[]json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil || elems == nil {
		return nil
	}
	parts := make([]string, 0, len(*elems))
	for _, e := range *elems {
		var s string
		if err := json.Unmarshal(e, &s); err == nil {
			parts = append(parts, s)
		}
	}
	joined := strings.Join(parts, ",")
	return &joined
}

func joinOrFace(obj, face map[string]json.RawMessage, key string) *string {
	if s := join(obj, key); s != nil {
		return s
	}
	if face != nil {
		return join(face, key)
	}
	return nil
}

// blob keeps a nested structure verbatim, serialized as text. Absent fields
// become the literal "null" so the column round-trips as JSON.
func blob(obj map[string]json.RawMessage, key string) string {
	raw, ok := obj[key]
	if !ok {
		return "null"
	}
	return string(raw)
}

// imageBlob prefers a top-level image_uris object, else the front face's.
func imageBlob(obj, face map[string]json.RawMessage) string {
	if raw, ok := obj["image_uris"]; ok && isObject(raw) {
		return string(raw)
	}
	if face != nil {
		if raw, ok := face["image_uris"]; ok && isObject(raw) {
			return string(raw)
		}
	}
	return "null"
}

func isObject(raw json.RawMessage) bool {
	trimmed := strings.TrimLeft(string(raw), " \t\r\n")
	return strings.HasPrefix(trimmed, "{")
}
