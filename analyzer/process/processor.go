// Package process turns raw filing text into normalized, sectioned,
// metric-annotated chunks ready for indexing.
package process

import (
	"regexp"
	"strings"

	"github.com/shelby-garrison/SEC-Filing/analyzer/filing"
)

// Well-known filing sections. Text that matches none of the heading
// patterns lands in SectionOther.
const (
	SectionRiskFactors         = "risk_factors"
	SectionMDA                 = "mda"
	SectionBusiness            = "business"
	SectionFinancialStatements = "financial_statements"
	SectionMarketRisk          = "market_risk"
	SectionOther               = "other"
)

// sectionPattern pairs a section name with the heading regexp that opens it.
// Order matters: the first matching pattern wins, and the risk-factors
// pattern must be tried before the bare "Business" pattern.
type sectionPattern struct {
	name string
	re   *regexp.Regexp
}

var sectionPatterns = []sectionPattern{
	{SectionRiskFactors, regexp.MustCompile(`(?i)(Item\s*1A\.?\s*)?Risk\s*Factors`)},
	{SectionMDA, regexp.MustCompile(`(?i)(Item\s*7\.?\s*)?Management'?s?\s*Discussion\s*and\s*Analysis`)},
	{SectionBusiness, regexp.MustCompile(`(?i)(Item\s*1\.?\s*)?Business`)},
	{SectionFinancialStatements, regexp.MustCompile(`(?i)(Item\s*8\.?\s*)?Financial\s*Statements`)},
	{SectionMarketRisk, regexp.MustCompile(`(?i)(Item\s*7A\.?\s*)?Quantitative\s*and\s*Qualitative\s*Disclosures\s*[Aa]bout\s*Market\s*Risk`)},
}

var (
	specialChars = regexp.MustCompile(`[^\w\s.,;:\-()'"$%]`)
	multiSpace   = regexp.MustCompile(`\s+`)
)

// Processor converts filings into indexable chunks.
type Processor struct {
	splitter *Splitter
}

// NewProcessor creates a Processor with the default chunk size and overlap.
func NewProcessor() *Processor {
	return &Processor{splitter: NewSplitter(DefaultChunkSize, DefaultChunkOverlap)}
}

// NewProcessorWithSplitter creates a Processor using a custom splitter.
func NewProcessorWithSplitter(s *Splitter) *Processor {
	return &Processor{splitter: s}
}

// Process partitions a filing into sections, normalizes each section,
// splits it into chunks, and annotates every chunk with its extracted
// financial metrics. A filing with no content produces no chunks.
//
// Chunk indices are assigned per section, so ChunkID values are stable as
// long as the filing content is.
func (p *Processor) Process(f filing.Filing) []filing.Chunk {
	if strings.TrimSpace(f.Content) == "" {
		return nil
	}

	var chunks []filing.Chunk
	index := 0

	sections := Partition(f.Content)
	for _, sec := range sections {
		normalized := Normalize(sec.Content)
		pieces := p.splitter.Split(normalized)
		for _, piece := range pieces {
			chunks = append(chunks, filing.Chunk{
				Text: piece,
				Meta: filing.ChunkMetadata{
					FilingID:    f.ID,
					CompanyName: f.CompanyName,
					Ticker:      f.Ticker,
					Form:        f.Form,
					FiledAt:     f.FiledAt,
					Section:     sec.Name,
					ChunkIndex:  index,
					Metrics:     ExtractMetrics(piece),
				},
			})
			index++
		}
	}

	for i := range chunks {
		chunks[i].Meta.TotalChunks = len(chunks)
	}
	return chunks
}

// Section is a contiguous run of filing text under one heading.
type Section struct {
	Name    string
	Content string
}

// Partition walks the text line by line and starts a new section whenever
// a line matches one of the heading patterns. Leading text before the
// first heading is SectionOther.
func Partition(text string) []Section {
	var sections []Section
	var current strings.Builder
	currentName := SectionOther

	for _, line := range strings.Split(text, "\n") {
		name := SectionOf(line)
		if name != SectionOther {
			if current.Len() > 0 {
				sections = append(sections, Section{Name: currentName, Content: current.String()})
				current.Reset()
			}
			currentName = name
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		sections = append(sections, Section{Name: currentName, Content: current.String()})
	}
	return sections
}

// SectionOf returns the section a heading line opens, or SectionOther.
func SectionOf(line string) string {
	for _, sp := range sectionPatterns {
		if sp.re.MatchString(line) {
			return sp.name
		}
	}
	return SectionOther
}

// Normalize collapses whitespace and strips characters that carry no
// meaning for retrieval, keeping punctuation relevant to financial text
// ($, %, decimals).
func Normalize(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	text = specialChars.ReplaceAllString(text, " ")
	text = multiSpace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
