package embed

import (
	"context"
	"sync"
)

// MockEmbedder is a test implementation of Embedder.
//
// It records every call and supports error injection. Unless explicit
// responses are queued, it produces deterministic vectors from an
// internal LocalEmbedder so similarity-dependent tests behave sensibly.
//
// Example:
//
//	mock := embed.NewMockEmbedder(64)
//	mock.Err = errors.New("boom")
//	_, err := mock.Embed(ctx, []string{"text"})
//	// err == mock.Err, call still recorded in mock.Calls
type MockEmbedder struct {
	// Responses, when non-empty, are returned in order; each call
	// consumes one entry. When exhausted, vectors fall back to the
	// deterministic local embedding.
	Responses [][][]float32

	// Err, if set, is returned by Embed instead of vectors.
	Err error

	// Calls records the inputs of every Embed invocation.
	Calls [][]string

	local *LocalEmbedder

	mu    sync.Mutex
	index int
}

// NewMockEmbedder creates a MockEmbedder producing vectors of the given
// size.
func NewMockEmbedder(dims int) *MockEmbedder {
	return &MockEmbedder{local: NewLocalEmbedder(dims)}
}

// Embed implements Embedder.
func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, texts)

	if m.Err != nil {
		return nil, m.Err
	}
	if m.index < len(m.Responses) {
		resp := m.Responses[m.index]
		m.index++
		return resp, nil
	}
	return m.local.Embed(ctx, texts)
}

// Dimensions implements Embedder.
func (m *MockEmbedder) Dimensions() int {
	return m.local.Dimensions()
}
