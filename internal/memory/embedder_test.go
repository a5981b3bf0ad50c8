package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChargramEmbedder_DeterministicAndNormalized(t *testing.T) {
	t.Parallel()

	e := NewChargramEmbedder(0)
	require.Equal(t, DefaultEmbeddingDims, e.Dimensions())

	a, err := e.Embed(context.Background(), "User lives in New York.")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "User lives in New York.")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.InDelta(t, 1.0, Cosine(a, a), 1e-6)
}

func TestChargramEmbedder_RelatedTextIsCloser(t *testing.T) {
	t.Parallel()

	e := NewChargramEmbedder(256)
	ctx := context.Background()

	fact, _ := e.Embed(ctx, "User now plays basketball.")
	topic, _ := e.Embed(ctx, "user's current sport basketball")
	other, _ := e.Embed(ctx, "Favorite color is green")

	assert.Greater(t, Cosine(fact, topic), Cosine(fact, other))
}

func TestChargramEmbedder_EmptyText(t *testing.T) {
	t.Parallel()

	vec, err := NewChargramEmbedder(8).Embed(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), vec)
	assert.Zero(t, Cosine(vec, vec))
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"?!", nil},
		{"User lives in New-York.", []string{"user", "lives", "in", "new-york"}},
		{"Loves the café near Köln", []string{"loves", "the", "café", "near", "köln"}},
		{"MÜNCHEN 1860", []string{"münchen", "1860"}},
		{"東京に住んでいる", []string{"東京に住んでいる"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Tokenize(tt.in), "Tokenize(%q)", tt.in)
	}
}

func TestChargramEmbedder_AccentedWordsMatch(t *testing.T) {
	t.Parallel()

	e := NewChargramEmbedder(256)
	ctx := context.Background()

	fact, _ := e.Embed(ctx, "User drinks coffee at the café.")
	topic, _ := e.Embed(ctx, "café")
	other, _ := e.Embed(ctx, "User owns a dog.")

	assert.Greater(t, Cosine(fact, topic), Cosine(fact, other))
}
