package index

import (
	"context"
	"sync"

	"github.com/shelby-garrison/SEC-Filing/analyzer/embed"
	"github.com/shelby-garrison/SEC-Filing/analyzer/filing"
)

// MemIndex is an in-memory Index.
//
// Designed for tests and short-lived analysis runs; everything is lost
// when the process exits. Safe for concurrent use.
type MemIndex struct {
	embedder embed.Embedder

	mu      sync.RWMutex
	entries map[string]candidate // chunkID -> stored chunk + vector
	closed  bool
}

// NewMemIndex creates an empty in-memory index using the given embedder.
func NewMemIndex(embedder embed.Embedder) *MemIndex {
	return &MemIndex{
		embedder: embedder,
		entries:  make(map[string]candidate),
	}
}

// Add implements Index.
func (m *MemIndex) Add(ctx context.Context, chunks []filing.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	for i, c := range chunks {
		m.entries[c.Meta.ChunkID()] = candidate{chunk: c, vec: vectors[i]}
	}
	return nil
}

// Search implements Index.
func (m *MemIndex) Search(ctx context.Context, query string, filter Filter, limit int) ([]Result, error) {
	vectors, err := m.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	var cands []candidate
	for _, entry := range m.entries {
		if filter.Matches(entry.chunk.Meta) {
			cands = append(cands, entry)
		}
	}
	return rank(vectors[0], cands, limit), nil
}

// Count implements Index.
func (m *MemIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, ErrClosed
	}
	return len(m.entries), nil
}

// Close implements Index.
func (m *MemIndex) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.entries = nil
	return nil
}
