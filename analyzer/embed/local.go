package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultLocalDimensions is the vector size used by LocalEmbedder when
// none is specified.
const DefaultLocalDimensions = 256

// LocalEmbedder is a deterministic, offline embedder.
//
// It hashes lowercased tokens into a fixed number of signed buckets and
// L2-normalizes the result, which makes cosine similarity behave like
// token overlap. It is not a semantic model, but it gives the rest of the
// pipeline real similarity behavior without any API key or network, and
// identical text always produces identical vectors.
type LocalEmbedder struct {
	dims int
}

// NewLocalEmbedder creates a LocalEmbedder with the given vector size.
// Non-positive sizes use DefaultLocalDimensions.
func NewLocalEmbedder(dims int) *LocalEmbedder {
	if dims <= 0 {
		dims = DefaultLocalDimensions
	}
	return &LocalEmbedder{dims: dims}
}

// Embed implements Embedder.
func (l *LocalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = l.vector(text)
	}
	return vectors, nil
}

// Dimensions implements Embedder.
func (l *LocalEmbedder) Dimensions() int {
	return l.dims
}

func (l *LocalEmbedder) vector(text string) []float32 {
	v := make([]float32, l.dims)

	tokens := tokenize(text)
	for _, tok := range tokens {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()

		idx := int(sum % uint64(l.dims))
		// Use a high hash bit for the sign so buckets cancel rather
		// than only accumulate, which keeps vectors discriminative.
		if sum&(1<<63) != 0 {
			v[idx]--
		} else {
			v[idx]++
		}
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range v {
			v[i] *= scale
		}
	}
	return v
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
