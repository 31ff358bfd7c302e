package analyzer

import (
	"errors"
	"fmt"
)

// Ingest stages, used in TickerError and the ingest_errors metric.
const (
	StageFetch = "fetch"
	StageIndex = "index"
)

// TickerError records why one ticker's ingest failed. One ticker
// failing does not abort the run; the report carries these instead.
type TickerError struct {
	Ticker string
	Stage  string
	Err    error
}

func (e *TickerError) Error() string {
	return fmt.Sprintf("ingest %s: %s stage: %v", e.Ticker, e.Stage, e.Err)
}

func (e *TickerError) Unwrap() error { return e.Err }

// ErrNoTickers is returned when a run is asked to ingest or answer
// without any ticker to work on.
var ErrNoTickers = errors.New("no tickers specified")
