package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcherInvestmentTrades(t *testing.T) {
	matcher, err := NewMatcher(DefaultRules())
	require.NoError(t, err)

	tests := []struct {
		name         string
		description  string
		wantCategory string
	}{
		{
			name:         "buy order",
			description:  "DEGIRO Buy 10 VWRL @ 98.52",
			wantCategory: "Investments:Buy",
		},
		{
			name:         "sell order",
			description:  "DEGIRO Sell 5 AAPL @ 187.10",
			wantCategory: "Investments:Sell",
		},
		{
			name:         "dutch buy order",
			description:  "Koop 3 ASML @ 650,00",
			wantCategory: "Investments:Buy",
		},
		{
			name:         "dutch sell order",
			description:  "Verkoop 12 SHELL @ 29,85",
			wantCategory: "Investments:Sell",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match := matcher.Apply(tt.description)
			require.NotNil(t, match)
			assert.Equal(t, "Investment Trade", match.RuleName)
			assert.Equal(t, tt.wantCategory, match.Category)
		})
	}
}

func TestMatcherNoMatch(t *testing.T) {
	matcher, err := NewMatcher(DefaultRules())
	require.NoError(t, err)

	assert.Nil(t, matcher.Apply("Albert Heijn 1403 AMSTERDAM"))
	assert.Nil(t, matcher.Apply(""))
}

func TestMatcherPriorityOrder(t *testing.T) {
	matcher, err := NewMatcher([]Rule{
		{Name: "low", Regex: `coffee`, Category: "Dining", Priority: 10},
		{Name: "high", Regex: `coffee`, Category: "Groceries", Priority: 50},
	})
	require.NoError(t, err)

	match := matcher.Apply("COFFEE COMPANY AMSTERDAM")
	require.NotNil(t, match)
	assert.Equal(t, "high", match.RuleName)
	assert.Equal(t, "Groceries", match.Category)
}

func TestMatcherCaseInsensitiveByDefault(t *testing.T) {
	matcher, err := NewMatcher([]Rule{
		{Name: "salary", Regex: `\bsalaris\b`, Category: "Income:Salary"},
	})
	require.NoError(t, err)

	match := matcher.Apply("SALARIS AUGUSTUS ACME BV")
	require.NotNil(t, match)
	assert.Equal(t, "Income:Salary", match.Category)
}

func TestMatcherInvalidRegex(t *testing.T) {
	_, err := NewMatcher([]Rule{{Name: "bad", Regex: `([`, Category: "X"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}

func TestDefaultRulesCompile(t *testing.T) {
	matcher, err := NewMatcher(DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, len(DefaultRules()), matcher.Len())
}
