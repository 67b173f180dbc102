package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillfin/quill/internal/model"
)

func suggested() model.PendingResolution {
	return model.PendingResolution{
		TransactionID:     "t1",
		RawDescription:    "STARBUCKS CFE AMS",
		CleanedToken:      "starbucks cfe",
		SuggestedEntity:   "Starbucks",
		SuggestedCategory: "Dining",
		SuggestedScore:    0.82,
	}
}

func TestConfirmResolutionAcceptsSuggestion(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("a\n"), &out)

	decision, err := p.ConfirmResolution(context.Background(), suggested())
	require.NoError(t, err)
	assert.Equal(t, model.DecisionAccept, decision.Action)
	assert.Contains(t, out.String(), "STARBUCKS CFE AMS")
	assert.Contains(t, out.String(), "starbucks cfe")
	assert.Contains(t, out.String(), "0.82")
}

func TestConfirmResolutionNamesNewEntity(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("n\nStarbucks Reserve\nDining\n"), &out)

	decision, err := p.ConfirmResolution(context.Background(), suggested())
	require.NoError(t, err)
	assert.Equal(t, model.DecisionNew, decision.Action)
	assert.Equal(t, "Starbucks Reserve", decision.CanonicalName)
	assert.Equal(t, "Dining", decision.Category)
}

func TestConfirmResolutionSkips(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("s\n"), &out)

	decision, err := p.ConfirmResolution(context.Background(), suggested())
	require.NoError(t, err)
	assert.Equal(t, model.DecisionSkip, decision.Action)
}

func TestConfirmResolutionRepromptsOnInvalidChoice(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("x\nz\na\n"), &out)

	decision, err := p.ConfirmResolution(context.Background(), suggested())
	require.NoError(t, err)
	assert.Equal(t, model.DecisionAccept, decision.Action)
}

func TestConfirmResolutionWithoutSuggestion(t *testing.T) {
	pending := model.PendingResolution{
		TransactionID:  "t2",
		RawDescription: "MYSTERY VENDOR 42",
		CleanedToken:   "mystery vendor",
	}

	t.Run("names entity directly", func(t *testing.T) {
		var out bytes.Buffer
		p := NewPrompter(strings.NewReader("Mystery Vendor\nMisc\n"), &out)

		decision, err := p.ConfirmResolution(context.Background(), pending)
		require.NoError(t, err)
		assert.Equal(t, model.DecisionNew, decision.Action)
		assert.Equal(t, "Mystery Vendor", decision.CanonicalName)
		assert.Equal(t, "Misc", decision.Category)
	})

	t.Run("literal skip", func(t *testing.T) {
		var out bytes.Buffer
		p := NewPrompter(strings.NewReader("skip\n"), &out)

		decision, err := p.ConfirmResolution(context.Background(), pending)
		require.NoError(t, err)
		assert.Equal(t, model.DecisionSkip, decision.Action)
	})

	t.Run("empty name defaults to cleaned token", func(t *testing.T) {
		var out bytes.Buffer
		p := NewPrompter(strings.NewReader("\n\n"), &out)

		decision, err := p.ConfirmResolution(context.Background(), pending)
		require.NoError(t, err)
		assert.Equal(t, model.DecisionNew, decision.Action)
		assert.Equal(t, "mystery vendor", decision.CanonicalName)
		assert.Empty(t, decision.Category, "empty category is the caller's UNKNOWN")
	})
}

func TestConfirmResolutionCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("a\n"), &out)

	_, err := p.ConfirmResolution(ctx, suggested())
	require.ErrorIs(t, err, context.Canceled)
}

func TestReadLineTrimsAndCancels(t *testing.T) {
	r := NewNonBlockingReader(strings.NewReader("  hello  \n"))
	line, err := r.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello", line)

	blocked := NewNonBlockingReader(blockingReader{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = blocked.ReadLine(ctx)
	require.ErrorIs(t, err, ErrInputCancelled)
}

type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) {
	select {}
}
