// Package synth turns retrieved filing excerpts into a written answer.
//
// A Synthesizer receives the user's question together with the ranked
// excerpts the index returned and produces prose grounded in those
// excerpts. The Claude-backed implementation is the default; MockSynthesizer
// serves tests and offline runs.
package synth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shelby-garrison/SEC-Filing/analyzer/index"
)

// Synthesizer produces an answer from a question and its supporting
// excerpts. Implementations must be safe for concurrent use.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (Answer, error)
}

// Request carries a question and the excerpts to ground the answer in.
type Request struct {
	Question string
	Results  []index.Result
}

// Answer is a synthesized response.
type Answer struct {
	// Text is the answer prose.
	Text string

	// Sources lists the chunk IDs the answer drew on, in rank order.
	Sources []string

	// TokensUsed is the total input plus output token count reported by
	// the provider, zero when unknown.
	TokensUsed int

	// Duration is the wall time of the provider call.
	Duration time.Duration
}

// Error describes a synthesis failure.
type Error struct {
	Code      string
	Message   string
	Retryable bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("synth: %s: %s", e.Code, e.Message)
}

// IsRetryable reports whether err is a transient synthesis failure.
func IsRetryable(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}
