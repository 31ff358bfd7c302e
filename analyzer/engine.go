// Package analyzer wires the filing pipeline together: fetch filings
// from EDGAR, chunk and enrich them, store them in a vector index, and
// answer questions grounded in the indexed excerpts.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shelby-garrison/SEC-Filing/analyzer/emit"
	"github.com/shelby-garrison/SEC-Filing/analyzer/filing"
	"github.com/shelby-garrison/SEC-Filing/analyzer/index"
	"github.com/shelby-garrison/SEC-Filing/analyzer/process"
	"github.com/shelby-garrison/SEC-Filing/analyzer/query"
	"github.com/shelby-garrison/SEC-Filing/analyzer/synth"
)

// DefaultConcurrency is the number of tickers ingested in parallel.
const DefaultConcurrency = 4

// Fetcher retrieves filings for one ticker. *edgar.Client is the
// production implementation.
type Fetcher interface {
	Filings(ctx context.Context, ticker string, forms []filing.Form, from, to time.Time) ([]filing.Filing, error)
}

// Engine runs ingest and question-answering over a shared index.
type Engine struct {
	fetcher     Fetcher
	processor   *process.Processor
	index       index.Index
	parser      *query.Parser
	synthesizer synth.Synthesizer
	emitter     emit.Emitter
	metrics     *Metrics
	concurrency int
}

// Option configures an Engine.
type Option func(*Engine) error

// WithFetcher sets the filing source.
func WithFetcher(f Fetcher) Option {
	return func(e *Engine) error {
		if f == nil {
			return errors.New("fetcher must not be nil")
		}
		e.fetcher = f
		return nil
	}
}

// WithIndex sets the vector index.
func WithIndex(idx index.Index) Option {
	return func(e *Engine) error {
		if idx == nil {
			return errors.New("index must not be nil")
		}
		e.index = idx
		return nil
	}
}

// WithSynthesizer sets the answer synthesizer. Without one, Investigate
// returns excerpts but no prose answer.
func WithSynthesizer(s synth.Synthesizer) Option {
	return func(e *Engine) error {
		e.synthesizer = s
		return nil
	}
}

// WithProcessor overrides the default chunking processor.
func WithProcessor(p *process.Processor) Option {
	return func(e *Engine) error {
		if p == nil {
			return errors.New("processor must not be nil")
		}
		e.processor = p
		return nil
	}
}

// WithParser overrides the default question parser.
func WithParser(p *query.Parser) Option {
	return func(e *Engine) error {
		if p == nil {
			return errors.New("parser must not be nil")
		}
		e.parser = p
		return nil
	}
}

// WithEmitter sets the observability emitter.
func WithEmitter(em emit.Emitter) Option {
	return func(e *Engine) error {
		if em == nil {
			return errors.New("emitter must not be nil")
		}
		e.emitter = em
		return nil
	}
}

// WithMetrics sets the Prometheus metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) error {
		e.metrics = m
		return nil
	}
}

// WithConcurrency sets how many tickers are ingested in parallel.
func WithConcurrency(n int) Option {
	return func(e *Engine) error {
		if n < 1 {
			return fmt.Errorf("concurrency must be at least 1, got %d", n)
		}
		e.concurrency = n
		return nil
	}
}

// New creates an Engine. A fetcher and an index are required; the
// processor, parser, and emitter default to working implementations.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		processor:   process.NewProcessor(),
		parser:      query.NewParser(),
		emitter:     emit.NewNullEmitter(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if e.fetcher == nil {
		return nil, errors.New("a fetcher is required")
	}
	if e.index == nil {
		return nil, errors.New("an index is required")
	}
	return e, nil
}

// IngestRequest selects what to ingest.
type IngestRequest struct {
	// RunID labels the run in events; generated when empty.
	RunID string

	// Tickers to ingest. Required.
	Tickers []string

	// Forms to fetch; defaults to the common report forms.
	Forms []filing.Form

	// From and To bound the filing-date window, inclusive. Zero values
	// leave the window open on that side.
	From time.Time
	To   time.Time
}

// TickerResult summarizes one ticker's ingest.
type TickerResult struct {
	Ticker  string
	Filings int
	Chunks  int
}

// IngestReport summarizes a whole ingest run. A ticker appears either
// in Results or in Errors, never both.
type IngestReport struct {
	RunID    string
	Results  []TickerResult
	Errors   []*TickerError
	Duration time.Duration
}

// TotalChunks returns the number of chunks indexed across all tickers.
func (r IngestReport) TotalChunks() int {
	total := 0
	for _, tr := range r.Results {
		total += tr.Chunks
	}
	return total
}

// Ingest fetches, chunks, and indexes filings for every requested
// ticker, running up to the configured concurrency in parallel. A
// failing ticker is recorded in the report and does not stop the rest.
func (e *Engine) Ingest(ctx context.Context, req IngestRequest) (IngestReport, error) {
	if len(req.Tickers) == 0 {
		return IngestReport{}, ErrNoTickers
	}
	runID := req.RunID
	if runID == "" {
		runID = fmt.Sprintf("ingest-%d", time.Now().UnixNano())
	}
	forms := req.Forms
	if len(forms) == 0 {
		forms = filing.AllForms()
	}

	start := time.Now()
	e.emitter.Emit(emit.NewEvent(runID, "", emit.IngestStart, map[string]any{
		"tickers": len(req.Tickers),
	}))

	type outcome struct {
		result TickerResult
		err    *TickerError
	}
	outcomes := make([]outcome, len(req.Tickers))

	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup
	for i, ticker := range req.Tickers {
		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				outcomes[i] = outcome{err: &TickerError{Ticker: ticker, Stage: StageFetch, Err: ctx.Err()}}
				return
			}

			result, terr := e.ingestTicker(ctx, runID, ticker, forms, req.From, req.To)
			outcomes[i] = outcome{result: result, err: terr}
		}(i, ticker)
	}
	wg.Wait()

	report := IngestReport{RunID: runID, Duration: time.Since(start)}
	for _, o := range outcomes {
		if o.err != nil {
			report.Errors = append(report.Errors, o.err)
			continue
		}
		report.Results = append(report.Results, o.result)
	}

	e.emitter.Emit(emit.NewEvent(runID, "", emit.IngestComplete, map[string]any{
		"chunks":      report.TotalChunks(),
		"errors":      len(report.Errors),
		"duration_ms": report.Duration.Milliseconds(),
	}))
	return report, nil
}

func (e *Engine) ingestTicker(ctx context.Context, runID, ticker string, forms []filing.Form, from, to time.Time) (TickerResult, *TickerError) {
	e.metrics.IngestStarted()
	defer e.metrics.IngestFinished()

	e.emitter.Emit(emit.NewEvent(runID, ticker, emit.TickerStart, nil))

	fetchStart := time.Now()
	filings, err := e.fetcher.Filings(ctx, ticker, forms, from, to)
	if err != nil {
		e.metrics.RecordIngestError(ticker, StageFetch)
		e.emitter.Emit(emit.NewEvent(runID, ticker, emit.TickerError, map[string]any{
			"stage": StageFetch,
			"error": err.Error(),
		}))
		return TickerResult{}, &TickerError{Ticker: ticker, Stage: StageFetch, Err: err}
	}
	fetchLatency := time.Since(fetchStart)

	result := TickerResult{Ticker: ticker}
	for _, f := range filings {
		e.metrics.RecordFilingFetched(ticker, string(f.Form), fetchLatency/time.Duration(max(len(filings), 1)))
		e.emitter.Emit(emit.NewEvent(runID, ticker, emit.FilingFetched, map[string]any{
			"form":      string(f.Form),
			"filing_id": f.ID,
		}))

		chunks := e.processor.Process(f)
		if len(chunks) == 0 {
			continue
		}

		indexStart := time.Now()
		if err := e.index.Add(ctx, chunks); err != nil {
			e.metrics.RecordIngestError(ticker, StageIndex)
			e.emitter.Emit(emit.NewEvent(runID, ticker, emit.TickerError, map[string]any{
				"stage":     StageIndex,
				"filing_id": f.ID,
				"error":     err.Error(),
			}))
			return TickerResult{}, &TickerError{Ticker: ticker, Stage: StageIndex, Err: err}
		}
		e.metrics.RecordChunksIndexed(ticker, len(chunks), time.Since(indexStart))
		e.emitter.Emit(emit.NewEvent(runID, ticker, emit.ChunksIndexed, map[string]any{
			"filing_id": f.ID,
			"chunks":    len(chunks),
		}))

		result.Filings++
		result.Chunks += len(chunks)
	}

	e.emitter.Emit(emit.NewEvent(runID, ticker, emit.TickerComplete, map[string]any{
		"filings": result.Filings,
		"chunks":  result.Chunks,
	}))
	return result, nil
}

// InvestigateRequest asks a question of the indexed filings. Explicit
// fields override whatever the question parser extracts.
type InvestigateRequest struct {
	RunID    string
	Question string

	// Tickers restricts the search; when empty, tickers parsed from the
	// question are used.
	Tickers []string

	// Forms restricts the search; when empty, forms parsed from the
	// question are used.
	Forms []filing.Form

	// From and To bound the filing date, inclusive; when zero, dates
	// parsed from the question are used.
	From time.Time
	To   time.Time

	// Limit caps the excerpt count; defaults to index.DefaultSearchLimit.
	Limit int
}

// TickerFindings groups the excerpts for one ticker, preserving rank
// order within the group.
type TickerFindings struct {
	Ticker  string
	Results []index.Result
}

// Findings is the outcome of an investigation.
type Findings struct {
	RunID string

	// Hints are the attributes extracted from the question.
	Hints query.Hints

	// Results are all matching excerpts in rank order.
	Results []index.Result

	// ByTicker groups Results by ticker, ordered by each ticker's best
	// rank.
	ByTicker []TickerFindings

	// Answer is the synthesized response; zero when no synthesizer is
	// configured.
	Answer synth.Answer
}

// Investigate parses the question, searches the index, and synthesizes
// an answer from the matching excerpts.
func (e *Engine) Investigate(ctx context.Context, req InvestigateRequest) (Findings, error) {
	runID := req.RunID
	if runID == "" {
		runID = fmt.Sprintf("query-%d", time.Now().UnixNano())
	}

	hints := e.parser.Parse(req.Question)
	filter := index.Filter{Tickers: req.Tickers, Forms: req.Forms, From: req.From, To: req.To}
	if len(filter.Tickers) == 0 {
		filter.Tickers = hints.Tickers
	}
	if len(filter.Forms) == 0 {
		filter.Forms = hints.Forms
	}
	if filter.From.IsZero() {
		filter.From = hints.From
	}
	if filter.To.IsZero() {
		filter.To = hints.To
	}
	limit := req.Limit
	if limit <= 0 {
		limit = index.DefaultSearchLimit
	}

	searchStart := time.Now()
	results, err := e.index.Search(ctx, req.Question, filter, limit)
	if err != nil {
		return Findings{}, fmt.Errorf("search: %w", err)
	}
	e.metrics.RecordSearch(time.Since(searchStart))
	e.emitter.Emit(emit.NewEvent(runID, "", emit.SearchRun, map[string]any{
		"question": req.Question,
		"results":  len(results),
	}))

	findings := Findings{
		RunID:    runID,
		Hints:    hints,
		Results:  results,
		ByTicker: groupByTicker(results),
	}

	if e.synthesizer != nil {
		answer, err := e.synthesizer.Synthesize(ctx, synth.Request{
			Question: req.Question,
			Results:  results,
		})
		if err != nil {
			return Findings{}, fmt.Errorf("synthesize: %w", err)
		}
		findings.Answer = answer
		e.emitter.Emit(emit.NewEvent(runID, "", emit.AnswerReady, map[string]any{
			"tokens": answer.TokensUsed,
		}))
	}

	return findings, nil
}

// groupByTicker splits ranked results into per-ticker groups. Groups
// are ordered by the rank of their best result, and results keep their
// rank order within each group.
func groupByTicker(results []index.Result) []TickerFindings {
	byTicker := make(map[string]*TickerFindings)
	var order []string
	for _, r := range results {
		t := r.Chunk.Meta.Ticker
		g, ok := byTicker[t]
		if !ok {
			g = &TickerFindings{Ticker: t}
			byTicker[t] = g
			// results arrive in rank order, so first-seen order is
			// best-rank order
			order = append(order, t)
		}
		g.Results = append(g.Results, r)
	}

	groups := make([]TickerFindings, 0, len(order))
	for _, t := range order {
		groups = append(groups, *byTicker[t])
	}
	return groups
}
