package emit

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
)

func TestLogEmitterTextOutput(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(&buf, false)

	emitter.Emit(NewEvent("ingest-001", "AAPL", FilingFetched, map[string]any{
		"form": "10-K",
	}))

	line := buf.String()
	for _, want := range []string{"[filing_fetched]", "runID=ingest-001", "ticker=AAPL", `"form":"10-K"`} {
		if !strings.Contains(line, want) {
			t.Errorf("output %q missing %q", line, want)
		}
	}
}

func TestLogEmitterTextOmitsEmptyTicker(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(&buf, false)

	emitter.Emit(NewEvent("ingest-001", "", IngestStart, nil))

	if strings.Contains(buf.String(), "ticker=") {
		t.Errorf("output %q should not contain ticker", buf.String())
	}
}

func TestLogEmitterJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(&buf, true)

	emitter.Emit(NewEvent("query-7", "MSFT", SearchRun, map[string]any{
		"results": 5,
	}))

	var decoded struct {
		RunID  string         `json:"runID"`
		Ticker string         `json:"ticker"`
		Msg    string         `json:"msg"`
		Meta   map[string]any `json:"meta"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.RunID != "query-7" || decoded.Ticker != "MSFT" || decoded.Msg != SearchRun {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Meta["results"] != float64(5) {
		t.Errorf("meta results = %v, want 5", decoded.Meta["results"])
	}
}

func TestBufferedEmitterHistory(t *testing.T) {
	b := NewBufferedEmitter()

	b.Emit(NewEvent("run-1", "", IngestStart, nil))
	b.Emit(NewEvent("run-1", "AAPL", TickerComplete, map[string]any{"chunks": 42}))
	b.Emit(NewEvent("run-2", "MSFT", TickerError, map[string]any{"error": "boom"}))

	got := b.History("run-1")
	if len(got) != 2 {
		t.Fatalf("History(run-1) = %d events, want 2", len(got))
	}
	if got[0].Msg != IngestStart || got[1].Ticker != "AAPL" {
		t.Errorf("History(run-1) = %+v", got)
	}
	if len(b.History("missing")) != 0 {
		t.Error("History(missing) should be empty")
	}
}

func TestBufferedEmitterFilter(t *testing.T) {
	b := NewBufferedEmitter()

	b.Emit(NewEvent("run-1", "AAPL", FilingFetched, nil))
	b.Emit(NewEvent("run-1", "AAPL", ChunksIndexed, nil))
	b.Emit(NewEvent("run-1", "MSFT", FilingFetched, nil))

	got := b.HistoryWithFilter("run-1", HistoryFilter{Ticker: "AAPL"})
	if len(got) != 2 {
		t.Errorf("ticker filter = %d events, want 2", len(got))
	}

	got = b.HistoryWithFilter("run-1", HistoryFilter{Ticker: "AAPL", Msg: ChunksIndexed})
	if len(got) != 1 || got[0].Msg != ChunksIndexed {
		t.Errorf("combined filter = %+v", got)
	}
}

func TestBufferedEmitterClear(t *testing.T) {
	b := NewBufferedEmitter()
	b.Emit(NewEvent("run-1", "", IngestStart, nil))
	b.Emit(NewEvent("run-2", "", IngestStart, nil))

	b.Clear("run-1")
	if len(b.History("run-1")) != 0 {
		t.Error("run-1 should be cleared")
	}
	if len(b.History("run-2")) != 1 {
		t.Error("run-2 should survive")
	}

	b.Clear("")
	if len(b.History("run-2")) != 0 {
		t.Error("all runs should be cleared")
	}
}

func TestBufferedEmitterConcurrent(t *testing.T) {
	b := NewBufferedEmitter()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Emit(NewEvent("run-1", "AAPL", FilingFetched, nil))
			}
		}()
	}
	wg.Wait()

	if got := len(b.History("run-1")); got != 1000 {
		t.Errorf("History = %d events, want 1000", got)
	}
}

func TestNullEmitterDiscards(t *testing.T) {
	var e Emitter = NewNullEmitter()
	e.Emit(NewEvent("run-1", "", IngestStart, nil)) // must not panic
}
