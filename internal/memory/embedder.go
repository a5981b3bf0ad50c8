package memory

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// DefaultEmbeddingDims matches the 384-dimension sentence embedders the
// vector stores are sized for.
const DefaultEmbeddingDims = 384

// Embedder turns text into a fixed-size vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// tokenPattern matches letters and digits of any script, so "café" and
// "München" stay whole words.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_\-]+`)

// ChargramEmbedder hashes character trigrams and word tokens into a
// normalized vector. It needs no model files, is deterministic, and gives
// texts sharing words or word fragments a higher cosine similarity.
type ChargramEmbedder struct {
	dims int
}

// NewChargramEmbedder returns an embedder producing vectors of dims
// dimensions. A non-positive dims selects DefaultEmbeddingDims.
func NewChargramEmbedder(dims int) *ChargramEmbedder {
	if dims <= 0 {
		dims = DefaultEmbeddingDims
	}
	return &ChargramEmbedder{dims: dims}
}

// Dimensions implements Embedder.
func (e *ChargramEmbedder) Dimensions() int { return e.dims }

// Embed implements Embedder. Empty text yields the zero vector.
func (e *ChargramEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dims)
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return vec, nil
	}

	window := []rune("#" + normalized + "#")
	for i := 0; i+3 <= len(window); i++ {
		vec[e.bucket(string(window[i:i+3]))] += 1
	}
	for _, token := range Tokenize(normalized) {
		vec[e.bucket("tok:"+token)] += 1.25
	}

	normalize(vec)
	return vec, nil
}

func (e *ChargramEmbedder) bucket(s string) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(e.dims))
}

// Tokenize lowercases text and splits it into word tokens.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v * v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}

// Cosine returns the cosine similarity of two equally sized vectors,
// or 0 when either is the zero vector.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i] * b[i])
		na += float64(a[i] * a[i])
		nb += float64(b[i] * b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
