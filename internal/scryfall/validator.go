package scryfall

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// QueryErrorCode identifies why a search query was rejected before being sent.
type QueryErrorCode string

const (
	EmptyQuery            QueryErrorCode = "EMPTY_QUERY"
	UnbalancedParentheses QueryErrorCode = "UNBALANCED_PARENTHESES"
	UnbalancedQuotes      QueryErrorCode = "UNBALANCED_QUOTES"
	InvalidField          QueryErrorCode = "INVALID_FIELD"
	ConsecutiveOperators  QueryErrorCode = "CONSECUTIVE_OPERATORS"
	LeadingOperator       QueryErrorCode = "LEADING_OPERATOR"
	TrailingOperator      QueryErrorCode = "TRAILING_OPERATOR"
)

// QueryError is a pre-network validation failure for a single query.
type QueryError struct {
	Code  QueryErrorCode
	Field string // set for InvalidField
}

func (e *QueryError) Error() string {
	switch e.Code {
	case EmptyQuery:
		return "query cannot be empty"
	case UnbalancedParentheses:
		return "unbalanced parentheses in query"
	case UnbalancedQuotes:
		return "unbalanced quotes in query"
	case InvalidField:
		return fmt.Sprintf("invalid field: %q", e.Field)
	case ConsecutiveOperators:
		return "consecutive operators are not allowed"
	case LeadingOperator:
		return "query cannot start with an operator"
	case TrailingOperator:
		return "query cannot end with an operator"
	}
	return string(e.Code)
}

// validFields is the set of search fields Scryfall recognizes ahead of a
// comparison character. Bare words are free-text search and always accepted.
var validFields = map[string]bool{
	// card name and text
	"name": true, "oracle": true, "type": true, "o": true, "t": true,
	"m": true, "mana": true, "devotion": true,
	// colors and identity
	"c": true, "color": true, "id": true, "identity": true, "ci": true,
	// card stats
	"cmc": true, "mv": true, "manavalue": true, "power": true, "pow": true,
	"toughness": true, "tou": true, "loyalty": true, "loy": true,
	// rarity and set info
	"r": true, "rarity": true, "s": true, "set": true, "e": true,
	"edition": true, "cn": true, "number": true,
	// format legality
	"f": true, "format": true, "legal": true, "banned": true, "restricted": true,
	// card predicates
	"is": true, "not": true, "has": true,
	// prices and availability
	"usd": true, "eur": true, "tix": true, "price": true,
	// art and frames
	"art": true, "artist": true, "flavor": true, "ft": true,
	"watermark": true, "wm": true,
	// misc
	"year": true, "date": true, "lang": true, "game": true, "new": true,
	"order": true, "unique": true, "prefer": true, "include": true,
	"border": true, "frame": true, "stamp": true, "keyword": true,
}

// Validate checks a Scryfall search query for structural problems before any
// request is issued. Rules are applied in order; the first failure wins.
func Validate(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return &QueryError{Code: EmptyQuery}
	}
	if err := checkBalancedParens(trimmed); err != nil {
		return err
	}
	if err := checkBalancedQuotes(trimmed); err != nil {
		return err
	}
	if err := checkFieldSyntax(trimmed); err != nil {
		return err
	}
	return checkOperatorPositions(trimmed)
}

// ValidateAll validates each query independently and returns one result per
// input, in input order. It never stops at the first failure; the fan-out
// pipeline needs the full picture.
func ValidateAll(queries []string) []error {
	errs := make([]error, len(queries))
	for i, q := range queries {
		errs[i] = Validate(q)
	}
	return errs
}

// Encode percent-encodes a validated query for use in a search URL.
func Encode(query string) string {
	return url.QueryEscape(query)
}

func checkBalancedParens(query string) error {
	depth := 0
	inQuotes := false
	for _, ch := range query {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == '(' && !inQuotes:
			depth++
		case ch == ')' && !inQuotes:
			depth--
			if depth < 0 {
				return &QueryError{Code: UnbalancedParentheses}
			}
		}
	}
	if depth != 0 {
		return &QueryError{Code: UnbalancedParentheses}
	}
	return nil
}

func checkBalancedQuotes(query string) error {
	if strings.Count(query, `"`)%2 != 0 {
		return &QueryError{Code: UnbalancedQuotes}
	}
	return nil
}

// checkFieldSyntax scans for field names preceding a comparison character
// (outside quoted spans) and rejects ones that are neither recognized fields
// nor plain alphanumeric words.
func checkFieldSyntax(query string) error {
	inQuotes := false
	var current strings.Builder
	for _, ch := range query {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
			current.Reset()
		case (ch == ':' || ch == '=' || ch == '<' || ch == '>' || ch == '!') && !inQuotes:
			field := strings.ToLower(strings.TrimSpace(current.String()))
			if field != "" && !strings.HasPrefix(field, "-") && !validFields[field] {
				if !isWordLike(field) {
					return &QueryError{Code: InvalidField, Field: field}
				}
			}
			current.Reset()
		case (ch == ' ' || ch == '(' || ch == ')') && !inQuotes:
			current.Reset()
		case !inQuotes:
			current.WriteRune(ch)
		}
	}
	return nil
}

func isWordLike(s string) bool {
	for _, ch := range s {
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '_' {
			return false
		}
	}
	return true
}

func checkOperatorPositions(query string) error {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(query)))
	if len(words) == 0 {
		return nil
	}
	isOp := func(w string) bool { return w == "or" || w == "and" }

	if isOp(words[0]) {
		return &QueryError{Code: LeadingOperator}
	}
	if isOp(words[len(words)-1]) {
		return &QueryError{Code: TrailingOperator}
	}
	prevWasOp := false
	for _, w := range words {
		op := isOp(w)
		if op && prevWasOp {
			return &QueryError{Code: ConsecutiveOperators}
		}
		prevWasOp = op
	}
	return nil
}
