package emit

import "sync"

// BufferedEmitter stores events in memory, keyed by run ID. It backs
// tests and the interactive session's run summaries.
//
// Everything stays in memory; long-lived processes should Clear runs
// they are done with.
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event
}

// HistoryFilter selects events from a run's history. Empty fields do
// not filter; set fields combine with AND.
type HistoryFilter struct {
	Ticker string
	Msg    string
}

// NewBufferedEmitter creates an empty BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{events: make(map[string][]Event)}
}

// Emit appends the event to its run's history.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[event.RunID] = append(b.events[event.RunID], event)
}

// History returns a copy of all events for runID in emission order.
func (b *BufferedEmitter) History(runID string) []Event {
	return b.HistoryWithFilter(runID, HistoryFilter{})
}

// HistoryWithFilter returns the events for runID matching the filter,
// in emission order.
func (b *BufferedEmitter) HistoryWithFilter(runID string, filter HistoryFilter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := []Event{}
	for _, event := range b.events[runID] {
		if filter.Ticker != "" && event.Ticker != filter.Ticker {
			continue
		}
		if filter.Msg != "" && event.Msg != filter.Msg {
			continue
		}
		result = append(result, event)
	}
	return result
}

// Clear drops the history for runID, or every run when runID is empty.
func (b *BufferedEmitter) Clear(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if runID == "" {
		b.events = make(map[string][]Event)
		return
	}
	delete(b.events, runID)
}
