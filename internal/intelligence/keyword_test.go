package intelligence

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordSummarizeAndTag(t *testing.T) {
	p := NewKeywordProvider(4)

	e, err := p.SummarizeAndTag(context.Background(), "Saw a comet near Saturn tonight! #Backyard Got a photo too.")
	require.NoError(t, err)
	assert.Equal(t, "Saw a comet near Saturn tonight!", e.Summary)
	assert.Equal(t, []string{"#Backyard", "#Saturn", "#Comet", "#Astrophotography"}, e.Tags)
}

func TestKeywordFallbackTag(t *testing.T) {
	p := NewKeywordProvider(4)

	e, err := p.SummarizeAndTag(context.Background(), "Hello everyone")
	require.NoError(t, err)
	assert.Equal(t, "Hello everyone", e.Summary)
	assert.Equal(t, []string{"#Cosmos"}, e.Tags)

	e, err = p.SummarizeAndTag(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, "Observation logged.", e.Summary)
}

func TestKeywordSummaryIsShortened(t *testing.T) {
	p := NewKeywordProvider(4)

	e, err := p.SummarizeAndTag(context.Background(), strings.Repeat("stars ", 60))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(e.Summary, "..."))
	assert.LessOrEqual(t, len([]rune(e.Summary)), summaryRunes+3)
}

func TestKeywordGenerate(t *testing.T) {
	p := NewKeywordProvider(4)
	ctx := context.Background()

	reply, err := p.Generate(ctx, "The JWST pillars image is stunning")
	require.NoError(t, err)
	assert.Contains(t, reply, "Nebulae")

	reply, err = p.Generate(ctx, "good morning")
	require.NoError(t, err)
	assert.Equal(t, "Fascinating perspective!", reply)
}

func TestKeywordHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewKeywordProvider(4)
	_, err := p.Generate(ctx, "comet")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = p.SummarizeAndTag(ctx, "comet")
	assert.ErrorIs(t, err, context.Canceled)
}
