// Package filing defines the core domain types for SEC filings and the
// text chunks derived from them.
package filing

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Form identifies an SEC form type.
type Form string

// Form types the analyzer understands.
const (
	Form10K   Form = "10-K"    // annual report
	Form10Q   Form = "10-Q"    // quarterly report
	Form8K    Form = "8-K"     // current report
	FormDef14 Form = "DEF 14A" // proxy statement
)

// AllForms returns the form types fetched by default.
func AllForms() []Form {
	return []Form{Form10K, Form10Q, Form8K}
}

// ParseForm matches a string against the known form types. The comparison
// is case-insensitive and tolerates a missing dash ("10K").
func ParseForm(s string) (Form, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	switch normalized {
	case "10-K", "10K":
		return Form10K, nil
	case "10-Q", "10Q":
		return Form10Q, nil
	case "8-K", "8K":
		return Form8K, nil
	case "DEF 14A", "DEF14A":
		return FormDef14, nil
	}
	return "", fmt.Errorf("unknown filing form %q", s)
}

// Filing is a single SEC filing fetched from EDGAR.
//
// ID is the accession number with dashes stripped, which is stable across
// re-fetches and used to derive chunk identifiers.
type Filing struct {
	// ID is the accession number without dashes (e.g. "000032019323000106").
	ID string

	// CompanyName is the registrant title from the EDGAR company database.
	CompanyName string

	// Ticker is the exchange symbol the filing was requested for.
	Ticker string

	// Form is the SEC form type of this filing.
	Form Form

	// FiledAt is the filing date reported in the submissions feed.
	FiledAt time.Time

	// Content is the primary document converted to plain text.
	Content string

	// CIK is the zero-padded ten digit Central Index Key.
	CIK string

	// AccessionNumber is the original dashed accession number.
	AccessionNumber string

	// FileNumber is the SEC file number, when present in the feed.
	FileNumber string
}

// Metrics holds the financial figures extracted from a chunk of filing text.
type Metrics struct {
	// CurrencyAmounts are dollar figures in absolute terms (multipliers
	// like "million" already applied).
	CurrencyAmounts []float64

	// Percentages are percentage figures as written (e.g. 12.5 for "12.5%").
	Percentages []float64
}

// Empty reports whether no metrics were extracted.
func (m Metrics) Empty() bool {
	return len(m.CurrencyAmounts) == 0 && len(m.Percentages) == 0
}

// Summary returns a short human-readable description of the extracted
// metrics, or the empty string when there are none.
func (m Metrics) Summary() string {
	if m.Empty() {
		return ""
	}
	return fmt.Sprintf("%d currency amounts, %d percentages",
		len(m.CurrencyAmounts), len(m.Percentages))
}

// CSV encodes both metric lists as comma-separated strings. This is the
// storage representation used by index backends.
func (m Metrics) CSV() (currency, percentages string) {
	return joinFloats(m.CurrencyAmounts), joinFloats(m.Percentages)
}

// MetricsFromCSV parses the storage representation produced by CSV.
// Malformed entries are skipped rather than failing the whole row.
func MetricsFromCSV(currency, percentages string) Metrics {
	return Metrics{
		CurrencyAmounts: splitFloats(currency),
		Percentages:     splitFloats(percentages),
	}
}

func joinFloats(vals []float64) string {
	if len(vals) == 0 {
		return ""
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

func splitFloats(s string) []float64 {
	if s == "" {
		return nil
	}
	var vals []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			continue
		}
		vals = append(vals, v)
	}
	return vals
}

// Chunk is a unit of indexed filing text.
type Chunk struct {
	// Text is the normalized chunk content.
	Text string

	// Meta describes where the chunk came from and what was extracted
	// from it.
	Meta ChunkMetadata
}

// ChunkMetadata carries the structured attributes stored alongside each
// chunk in the index and used for search filtering.
type ChunkMetadata struct {
	FilingID    string
	CompanyName string
	Ticker      string
	Form        Form
	FiledAt     time.Time
	Section     string
	ChunkIndex  int
	TotalChunks int
	Metrics     Metrics
}

// ChunkID returns the stable identifier for this chunk. Re-ingesting the
// same filing produces the same IDs, so index writes are idempotent.
func (m ChunkMetadata) ChunkID() string {
	return fmt.Sprintf("%s_%d", m.FilingID, m.ChunkIndex)
}
