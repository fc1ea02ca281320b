package scryfall

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codeOf(t *testing.T, err error) QueryErrorCode {
	t.Helper()
	var qe *QueryError
	require.True(t, errors.As(err, &qe), "expected *QueryError, got %v", err)
	return qe.Code
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode QueryErrorCode // empty means valid
	}{
		{"simple field query", "type:creature", ""},
		{"free text", "lightning bolt", ""},
		{"grouped query", "(type:creature or type:artifact) c:red", ""},
		{"quoted value", `name:"Birds of Paradise"`, ""},
		{"parens inside quotes ignored", `name:"(test)"`, ""},
		{"comparison operators", "cmc>=3 power<5 rarity=mythic", ""},
		{"negated field", "-type:land", ""},
		{"bare word before colon accepted", "foobar:value", ""},

		{"empty", "", EmptyQuery},
		{"whitespace only", "   ", EmptyQuery},
		{"unclosed paren", "(type:creature", UnbalancedParentheses},
		{"extra closing paren", "type:creature)", UnbalancedParentheses},
		{"close before open", ")type:creature(", UnbalancedParentheses},
		{"odd quotes", `name:"unterminated`, UnbalancedQuotes},
		{"three quotes", `a"b"c"`, UnbalancedQuotes},
		{"leading or", "or type:creature", LeadingOperator},
		{"leading and", "and c:red", LeadingOperator},
		{"trailing or", "type:creature or", TrailingOperator},
		{"consecutive operators", "type:creature and and c:red", ConsecutiveOperators},
		{"or and adjacent", "c:red or and t:goblin", ConsecutiveOperators},
		{"invalid field with punctuation", "ty&pe:creature", InvalidField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.query)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantCode, codeOf(t, err))
		})
	}
}

func TestValidate_FirstFailureWins(t *testing.T) {
	// Both parens and quotes are broken; parens are checked first.
	err := Validate(`(name:"broken`)
	assert.Equal(t, UnbalancedParentheses, codeOf(t, err))
}

func TestValidate_QuotedParensNeverAffectBalance(t *testing.T) {
	for _, q := range []string{
		`name:"(("`,
		`o:")" (t:creature)`,
		`"(((" and t:goblin`,
	} {
		assert.NoError(t, Validate(q), "query %q", q)
	}
}

func TestValidate_InvalidFieldReportsName(t *testing.T) {
	err := Validate("bad-field:value")
	var qe *QueryError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, InvalidField, qe.Code)
	assert.Equal(t, "bad-field", qe.Field)
}

func TestValidateAll(t *testing.T) {
	errs := ValidateAll([]string{"type:creature", "", "c:red", "(broken"})
	require.Len(t, errs, 4)
	assert.NoError(t, errs[0])
	assert.Equal(t, EmptyQuery, codeOf(t, errs[1]))
	assert.NoError(t, errs[2])
	assert.Equal(t, UnbalancedParentheses, codeOf(t, errs[3]))
}

func TestEncode(t *testing.T) {
	assert.Equal(t, "type%3Acreature+c%3Ared", Encode("type:creature c:red"))
}
