package synth

import (
	"context"
	"fmt"
	"sync"
)

// MockSynthesizer is a test double. It records requests and returns
// canned answers, or a fixed error when Err is set.
type MockSynthesizer struct {
	mu sync.Mutex

	// Answers are returned in order; once exhausted, a summary answer
	// naming the excerpt count is generated.
	Answers []Answer

	// Err, when set, is returned by every call.
	Err error

	// Requests records every request received.
	Requests []Request
}

// Synthesize implements Synthesizer.
func (m *MockSynthesizer) Synthesize(_ context.Context, req Request) (Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return Answer{}, m.Err
	}
	if len(m.Answers) > 0 {
		a := m.Answers[0]
		m.Answers = m.Answers[1:]
		return a, nil
	}
	return Answer{
		Text:    fmt.Sprintf("mock answer from %d excerpts", len(req.Results)),
		Sources: sourceIDs(req.Results),
	}, nil
}

// CallCount returns how many requests the mock has received.
func (m *MockSynthesizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
