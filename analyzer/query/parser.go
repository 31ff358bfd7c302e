// Package query extracts structured search hints from natural-language
// questions: ticker symbols, company names, filing form types, and date
// ranges.
package query

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shelby-garrison/SEC-Filing/analyzer/filing"
)

// Hints are the structured attributes recognized in a question. Zero
// values mean "no constraint".
type Hints struct {
	// Tickers mentioned by symbol or company name.
	Tickers []string

	// Forms mentioned verbatim (10-K, 10-Q, 8-K, DEF 14A).
	Forms []filing.Form

	// From and To bound the filing-date window. Zero when the question
	// names no period.
	From time.Time
	To   time.Time
}

// defaultCompanyNames maps well-known company names to tickers.
var defaultCompanyNames = map[string]string{
	"apple":           "AAPL",
	"microsoft":       "MSFT",
	"google":          "GOOGL",
	"alphabet":        "GOOGL",
	"meta":            "META",
	"facebook":        "META",
	"amazon":          "AMZN",
	"jpmorgan":        "JPM",
	"jp morgan":       "JPM",
	"bank of america": "BAC",
	"goldman sachs":   "GS",
	"morgan stanley":  "MS",
	"wells fargo":     "WFC",
}

var (
	tickerRe   = regexp.MustCompile(`\$?([A-Z]{1,5})\b`)
	lastNRe    = regexp.MustCompile(`(?i)\b(?:last|past)\s+(\d+)\s+(day|week|month|year)s?\b`)
	yearRe     = regexp.MustCompile(`(?i)\bin\s+(20\d{2})\b`)
	quarterRe  = regexp.MustCompile(`(?i)\bQ([1-4])\s+(20\d{2})\b`)
	formTokens = []filing.Form{filing.Form10K, filing.Form10Q, filing.Form8K, filing.FormDef14}
)

// Parser extracts Hints from questions.
type Parser struct {
	companyNames map[string]string
	knownTickers map[string]bool
	now          func() time.Time
}

// Option configures a Parser.
type Option func(*Parser)

// WithCompanyNames adds or overrides company-name to ticker mappings.
// Names are matched case-insensitively.
func WithCompanyNames(names map[string]string) Option {
	return func(p *Parser) {
		for name, ticker := range names {
			p.companyNames[strings.ToLower(name)] = strings.ToUpper(ticker)
		}
	}
}

// WithKnownTickers restricts bare-symbol matches to the given set.
// Without it, any 1-5 letter uppercase token that is not a common word
// is taken as a ticker, which is noisy on questions written in caps.
func WithKnownTickers(tickers []string) Option {
	return func(p *Parser) {
		p.knownTickers = make(map[string]bool, len(tickers))
		for _, t := range tickers {
			p.knownTickers[strings.ToUpper(t)] = true
		}
	}
}

// withNow fixes the clock, for tests.
func withNow(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// NewParser creates a Parser with the built-in company-name map.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		companyNames: make(map[string]string, len(defaultCompanyNames)),
		now:          time.Now,
	}
	for name, ticker := range defaultCompanyNames {
		p.companyNames[name] = ticker
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts all hints from a question.
func (p *Parser) Parse(question string) Hints {
	h := Hints{
		Tickers: p.extractTickers(question),
		Forms:   extractForms(question),
	}
	h.From, h.To = p.extractDates(question)
	return h
}

// extractTickers finds company references. Name matches win over bare
// symbol tokens, mirroring how people actually phrase questions
// ("Apple's supply chain risk" rather than "AAPL supply chain risk").
func (p *Parser) extractTickers(question string) []string {
	lower := strings.ToLower(question)

	var tickers []string
	seen := make(map[string]bool)
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			tickers = append(tickers, t)
		}
	}

	for name, ticker := range p.companyNames {
		if strings.Contains(lower, name) {
			add(ticker)
		}
	}
	if len(tickers) > 0 {
		return tickers
	}

	for _, match := range tickerRe.FindAllStringSubmatch(question, -1) {
		symbol := match[1]
		if p.knownTickers != nil {
			if p.knownTickers[symbol] {
				add(symbol)
			}
			continue
		}
		add(symbol)
	}
	return tickers
}

func extractForms(question string) []filing.Form {
	upper := strings.ToUpper(question)
	var forms []filing.Form
	for _, form := range formTokens {
		if strings.Contains(upper, string(form)) {
			forms = append(forms, form)
		}
	}
	return forms
}

// extractDates recognizes relative windows ("last 90 days"), explicit
// years ("in 2023"), and quarters ("Q3 2023"), in that order of
// precedence.
func (p *Parser) extractDates(question string) (from, to time.Time) {
	if m := lastNRe.FindStringSubmatch(question); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			now := p.now()
			switch strings.ToLower(m[2]) {
			case "day":
				return now.AddDate(0, 0, -n), now
			case "week":
				return now.AddDate(0, 0, -7*n), now
			case "month":
				return now.AddDate(0, -n, 0), now
			case "year":
				return now.AddDate(-n, 0, 0), now
			}
		}
	}

	if m := quarterRe.FindStringSubmatch(question); m != nil {
		q, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		startMonth := time.Month((q-1)*3 + 1)
		from = time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 3, 0).Add(-time.Second)
		return from, to
	}

	if m := yearRe.FindStringSubmatch(question); m != nil {
		year, _ := strconv.Atoi(m[1])
		from = time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
		to = time.Date(year, 12, 31, 23, 59, 59, 0, time.UTC)
		return from, to
	}

	return time.Time{}, time.Time{}
}
