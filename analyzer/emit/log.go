package emit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LogEmitter writes events to a writer, one per line.
//
// Text mode prints a human-readable key=value line:
//
//	[filing_fetched] runID=ingest-001 ticker=AAPL meta={"form":"10-K"}
//
// JSON mode prints one JSON object per line (JSONL), suitable for
// piping into log tooling.
type LogEmitter struct {
	mu       sync.Mutex
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter creates a LogEmitter. A nil writer defaults to stdout.
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{writer: writer, jsonMode: jsonMode}
}

// Emit writes the event in the configured format. Write errors are
// discarded; losing a log line must not fail a pipeline run.
func (l *LogEmitter) Emit(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.jsonMode {
		l.emitJSON(event)
		return
	}
	l.emitText(event)
}

func (l *LogEmitter) emitJSON(event Event) {
	data, err := json.Marshal(struct {
		RunID  string         `json:"runID"`
		Ticker string         `json:"ticker,omitempty"`
		Msg    string         `json:"msg"`
		Time   time.Time      `json:"time"`
		Meta   map[string]any `json:"meta,omitempty"`
	}{
		RunID:  event.RunID,
		Ticker: event.Ticker,
		Msg:    event.Msg,
		Time:   event.Time,
		Meta:   event.Meta,
	})
	if err != nil {
		fmt.Fprintf(l.writer, "{\"error\":\"failed to marshal event: %v\"}\n", err)
		return
	}
	fmt.Fprintf(l.writer, "%s\n", data)
}

func (l *LogEmitter) emitText(event Event) {
	fmt.Fprintf(l.writer, "[%s] runID=%s", event.Msg, event.RunID)
	if event.Ticker != "" {
		fmt.Fprintf(l.writer, " ticker=%s", event.Ticker)
	}
	if len(event.Meta) > 0 {
		if metaJSON, err := json.Marshal(event.Meta); err == nil {
			fmt.Fprintf(l.writer, " meta=%s", metaJSON)
		} else {
			fmt.Fprintf(l.writer, " meta=%v", event.Meta)
		}
	}
	fmt.Fprint(l.writer, "\n")
}
