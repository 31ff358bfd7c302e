// Package emit publishes pipeline observability events.
//
// The analyzer emits an Event at each significant point of an ingest or
// query run: run start/finish, per-ticker progress, fetched filings,
// indexed chunks, searches, and synthesized answers. Emitters route
// those events to a backend: structured logs, OpenTelemetry spans, an
// in-memory buffer for tests and dashboards, or nowhere at all.
package emit

import "time"

// Event names used by the pipeline.
const (
	IngestStart    = "ingest_start"
	IngestComplete = "ingest_complete"
	TickerStart    = "ticker_start"
	TickerComplete = "ticker_complete"
	TickerError    = "ticker_error"
	FilingFetched  = "filing_fetched"
	ChunksIndexed  = "chunks_indexed"
	SearchRun      = "search_run"
	AnswerReady    = "answer_ready"
)

// Event is a single observability record from a pipeline run.
type Event struct {
	// RunID identifies the ingest or query run the event belongs to.
	RunID string

	// Ticker is the company the event concerns, empty for run-level
	// events.
	Ticker string

	// Msg names the event, one of the constants above.
	Msg string

	// Time is when the event occurred.
	Time time.Time

	// Meta carries event-specific fields. Common keys: "form",
	// "filing_id", "chunks", "duration_ms", "error", "retryable",
	// "question", "results", "tokens".
	Meta map[string]any
}

// Emitter receives pipeline events.
//
// Implementations must be safe for concurrent use, must not block the
// pipeline, and must not panic; backend failures are swallowed or
// logged internally.
type Emitter interface {
	Emit(event Event)
}

// NewEvent builds an event stamped with the current time.
func NewEvent(runID, ticker, msg string, meta map[string]any) Event {
	return Event{
		RunID:  runID,
		Ticker: ticker,
		Msg:    msg,
		Time:   time.Now(),
		Meta:   meta,
	}
}
