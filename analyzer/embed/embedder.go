// Package embed provides text embedding for filing chunks and search
// queries.
//
// The Embedder interface abstracts over providers (OpenAI, Google Gemini)
// and a deterministic local implementation that needs no network access.
// All implementations must return one vector per input text, in input
// order, and must be safe for concurrent use.
package embed

import (
	"context"
	"errors"
	"fmt"
)

// Embedder converts texts into fixed-dimension vectors.
type Embedder interface {
	// Embed returns one vector per input text, in the same order.
	// It must respect context cancellation. An empty input returns an
	// empty result, not an error.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the length of the vectors this embedder
	// produces. All vectors from one embedder have the same length.
	Dimensions() int
}

// Error is a provider failure with retryability classification.
//
// Retryable errors (rate limits, timeouts, 5xx) can be retried with
// backoff; permanent errors (bad API key, exceeded quota) cannot.
type Error struct {
	Code      string
	Message   string
	Retryable bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("embed: %s: %s", e.Code, e.Message)
}

// IsRetryable reports whether err is a transient provider failure.
func IsRetryable(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}
