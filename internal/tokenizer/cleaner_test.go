package tokenizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanStripsBankingNoise(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "card terminal prefix",
			input: "BEA, Betaalpas CCV*Gebroeders van Hez,PAS142",
			want:  "Gebroeders van Hez",
		},
		{
			name:  "sepa field tags",
			input: "/TRTP/iDEAL/NAME/bol.com/REMI/12345",
			want:  "bol.com",
		},
		{
			name:  "plain merchant untouched",
			input: "Starbucks",
			want:  "Starbucks",
		},
		{
			name:  "long opaque id dropped",
			input: "Albert Heijn NL27INGB0000000000",
			want:  "Albert Heijn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.input))
		})
	}
}

func TestCleanRevertsWhenEverythingStripped(t *testing.T) {
	// All segments are noise; the trimmed original comes back rather
	// than an empty token.
	input := "TRTP/SEPA/12345"
	assert.Equal(t, input, Clean(input))
}

func TestCleanEmptyInput(t *testing.T) {
	assert.Equal(t, "", Clean(""))
	assert.Equal(t, "", Clean("   "))
}

func TestCleanDeterministic(t *testing.T) {
	input := "BEA, Betaalpas CCV*Gebroeders van Hez,PAS142"
	first := Clean(input)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Clean(input))
	}
}

func TestHeuristicCleanerBatchShape(t *testing.T) {
	c := NewHeuristicCleaner()

	in := []string{"STARBUCKS #123", "", "/TRTP/iDEAL/NAME/bol.com/REMI/12345"}
	out, err := c.TokenizeBatch(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, out, len(in))
	assert.Equal(t, "", out[1])
}

func TestParseTokensToleratesFences(t *testing.T) {
	c := &openAIClient{}

	tokens, err := c.parseTokens("```json\n{\"tokens\": [\"starbucks\", \"amazon\"]}\n```", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"starbucks", "amazon"}, tokens)
}

func TestParseTokensCountMismatch(t *testing.T) {
	c := &openAIClient{}

	_, err := c.parseTokens(`{"tokens": ["only one"]}`, 2)
	assert.Error(t, err)
}
