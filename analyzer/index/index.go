// Package index provides similarity search over embedded filing chunks.
//
// An Index stores chunks together with their embedding vectors and
// structured metadata, and answers natural-language queries by ranking
// stored chunks by cosine similarity against the embedded query, subject
// to metadata filters (tickers, form types, filing-date window).
//
// Implementations:
//   - MemIndex: in-memory, for tests and short-lived runs (memory.go)
//   - SQLiteIndex: single-file persistent index (sqlite.go)
//   - MySQLIndex: shared persistent index (mysql.go)
package index

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/shelby-garrison/SEC-Filing/analyzer/filing"
)

// ErrClosed is returned by operations on a closed index.
var ErrClosed = errors.New("index is closed")

// DefaultSearchLimit is the result count used when Search is called with
// a non-positive limit.
const DefaultSearchLimit = 5

// dedupePrefixLen is the number of leading content characters used as the
// deduplication key for search results. Filings repeat boilerplate across
// sections; near-identical chunks collapse to the highest-scoring one.
const dedupePrefixLen = 100

// overfetchFactor controls how many ranked candidates are considered
// before deduplication trims the list back to the requested limit.
const overfetchFactor = 2

// Filter restricts a search to chunks matching the given metadata.
// Empty fields impose no constraint.
type Filter struct {
	// Tickers limits results to these exchange symbols.
	Tickers []string

	// Forms limits results to these SEC form types.
	Forms []filing.Form

	// From and To bound the filing date, inclusive. A zero time leaves
	// that end of the window open.
	From time.Time
	To   time.Time
}

// Matches reports whether the chunk metadata satisfies the filter.
func (f Filter) Matches(meta filing.ChunkMetadata) bool {
	if len(f.Tickers) > 0 {
		found := false
		for _, t := range f.Tickers {
			if t == meta.Ticker {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Forms) > 0 {
		found := false
		for _, form := range f.Forms {
			if form == meta.Form {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.From.IsZero() && meta.FiledAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && meta.FiledAt.After(f.To) {
		return false
	}
	return true
}

// Result is a chunk returned from a search, with its similarity score.
// Scores are cosine similarities in [-1, 1]; higher is more similar.
type Result struct {
	Chunk filing.Chunk
	Score float64
}

// Index stores embedded filing chunks and serves similarity queries.
//
// Implementations must be safe for concurrent use. Add is an upsert:
// re-adding a chunk with the same ChunkID replaces the stored row, so
// re-ingesting a filing is idempotent.
type Index interface {
	// Add embeds and stores the given chunks. An empty slice is a no-op.
	Add(ctx context.Context, chunks []filing.Chunk) error

	// Search embeds the query, ranks matching chunks by cosine
	// similarity, deduplicates near-identical content, and returns at
	// most limit results. No matches is an empty slice, not an error.
	Search(ctx context.Context, query string, filter Filter, limit int) ([]Result, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Close releases any underlying resources.
	Close() error
}

// candidate pairs a stored chunk with its embedding for ranking.
type candidate struct {
	chunk filing.Chunk
	vec   []float32
}

// rank scores candidates against the query vector, orders them best
// first, and applies overfetch-then-dedupe down to limit results.
func rank(queryVec []float32, cands []candidate, limit int) []Result {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	scored := make([]Result, 0, len(cands))
	for _, c := range cands {
		scored = append(scored, Result{Chunk: c.chunk, Score: cosine(queryVec, c.vec)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.Meta.ChunkID() < scored[j].Chunk.Meta.ChunkID()
	})

	if over := limit * overfetchFactor; len(scored) > over {
		scored = scored[:over]
	}

	seen := make(map[string]bool, len(scored))
	results := make([]Result, 0, limit)
	for _, r := range scored {
		key := r.Chunk.Text
		if len(key) > dedupePrefixLen {
			key = key[:dedupePrefixLen]
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		results = append(results, r)
		if len(results) >= limit {
			break
		}
	}
	return results
}

// cosine computes cosine similarity, treating mismatched lengths over
// the shared prefix and zero vectors as zero similarity.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// encodeVector packs a vector as little-endian float32 bytes for storage.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector unpacks a vector stored by encodeVector.
func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
