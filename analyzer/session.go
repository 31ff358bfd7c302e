package analyzer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/shelby-garrison/SEC-Filing/analyzer/filing"
)

// CompanyGroup is a named set of tickers offered in the interactive
// session.
type CompanyGroup struct {
	Name    string
	Tickers []string
}

// DefaultCompanyGroups are the ticker sets offered when none are
// configured.
func DefaultCompanyGroups() []CompanyGroup {
	tech := []string{"AAPL", "MSFT", "GOOGL", "META", "AMZN"}
	banking := []string{"JPM", "BAC", "GS", "MS", "WFC"}
	return []CompanyGroup{
		{Name: "Technology", Tickers: tech},
		{Name: "Banking", Tickers: banking},
		{Name: "All companies", Tickers: append(append([]string{}, tech...), banking...)},
	}
}

// previewLen caps how much of each excerpt the session prints.
const previewLen = 500

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	tickerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	sourceStyle  = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	answerStyle  = lipgloss.NewStyle().PaddingLeft(2)
	excerptStyle = lipgloss.NewStyle().PaddingLeft(4)
)

// Session drives an interactive analysis loop: pick a company group,
// pick a filing type, ask questions, repeat.
type Session struct {
	engine *Engine
	groups []CompanyGroup
	in     *bufio.Scanner
	out    io.Writer
}

// NewSession creates a Session reading prompts from in and writing to
// out. Nil groups fall back to DefaultCompanyGroups.
func NewSession(engine *Engine, in io.Reader, out io.Writer, groups []CompanyGroup) *Session {
	if groups == nil {
		groups = DefaultCompanyGroups()
	}
	return &Session{
		engine: engine,
		groups: groups,
		in:     bufio.NewScanner(in),
		out:    out,
	}
}

// Run executes the interactive loop until the user declines to
// continue, input ends, or the context is cancelled.
func (s *Session) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, titleStyle.Render("SEC Filing Analyzer"))
	fmt.Fprintln(s.out)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		group, ok := s.chooseGroup()
		if !ok {
			return nil
		}
		forms, ok := s.chooseForms()
		if !ok {
			return nil
		}

		question, ok := s.prompt("Your question: ")
		if !ok {
			return nil
		}
		if strings.TrimSpace(question) == "" {
			fmt.Fprintln(s.out, errorStyle.Render("Please enter a question."))
			continue
		}

		findings, err := s.engine.Investigate(ctx, InvestigateRequest{
			Question: question,
			Tickers:  group.Tickers,
			Forms:    forms,
		})
		if err != nil {
			fmt.Fprintln(s.out, errorStyle.Render(fmt.Sprintf("Investigation failed: %v", err)))
		} else {
			s.printFindings(findings)
		}

		again, ok := s.prompt("Ask another question? (y/n): ")
		if !ok || !strings.HasPrefix(strings.ToLower(strings.TrimSpace(again)), "y") {
			return nil
		}
		fmt.Fprintln(s.out)
	}
}

// chooseGroup prompts for a company group by number. An unrecognized
// choice falls back to every company across all groups.
func (s *Session) chooseGroup() (CompanyGroup, bool) {
	fmt.Fprintln(s.out, promptStyle.Render("Choose a company group:"))
	for i, g := range s.groups {
		fmt.Fprintf(s.out, "  %d. %s (%s)\n", i+1, g.Name, strings.Join(g.Tickers, " "))
	}

	choice, ok := s.prompt("> ")
	if !ok {
		return CompanyGroup{}, false
	}
	idx := parseChoice(choice, len(s.groups))
	if idx < 0 {
		return allCompanies(s.groups), true
	}
	return s.groups[idx], true
}

// allCompanies merges every group's tickers, preserving order and
// dropping duplicates.
func allCompanies(groups []CompanyGroup) CompanyGroup {
	seen := make(map[string]bool)
	all := CompanyGroup{Name: "All companies"}
	for _, g := range groups {
		for _, t := range g.Tickers {
			if !seen[t] {
				seen[t] = true
				all.Tickers = append(all.Tickers, t)
			}
		}
	}
	return all
}

// chooseForms prompts for a filing type. The last option means "all".
func (s *Session) chooseForms() ([]filing.Form, bool) {
	options := []struct {
		label string
		forms []filing.Form
	}{
		{"10-K (annual report)", []filing.Form{filing.Form10K}},
		{"10-Q (quarterly report)", []filing.Form{filing.Form10Q}},
		{"8-K (current report)", []filing.Form{filing.Form8K}},
		{"All filing types", nil},
	}

	fmt.Fprintln(s.out, promptStyle.Render("Choose a filing type:"))
	for i, o := range options {
		fmt.Fprintf(s.out, "  %d. %s\n", i+1, o.label)
	}

	choice, ok := s.prompt("> ")
	if !ok {
		return nil, false
	}
	idx := parseChoice(choice, len(options))
	if idx < 0 {
		return nil, true
	}
	return options[idx].forms, true
}

func (s *Session) prompt(label string) (string, bool) {
	fmt.Fprint(s.out, promptStyle.Render(label))
	if !s.in.Scan() {
		return "", false
	}
	return s.in.Text(), true
}

// parseChoice maps a 1-based menu answer to an index. Unrecognized
// input returns -1 so callers can apply their own fallback.
func parseChoice(input string, n int) int {
	input = strings.TrimSpace(input)
	if len(input) == 1 && input[0] >= '1' && int(input[0]-'1') < n {
		return int(input[0] - '1')
	}
	return -1
}

// printFindings renders the grouped excerpts and, when present, the
// synthesized answer.
func (s *Session) printFindings(f Findings) {
	fmt.Fprintln(s.out)
	if len(f.Results) == 0 {
		fmt.Fprintln(s.out, errorStyle.Render("No matching filings found."))
		return
	}

	for _, group := range f.ByTicker {
		fmt.Fprintln(s.out, tickerStyle.Render(group.Ticker))
		for _, r := range group.Results {
			meta := r.Chunk.Meta
			fmt.Fprintln(s.out, sourceStyle.Render(fmt.Sprintf("%s %s filed %s, section %s (score %.2f)",
				meta.CompanyName, meta.Form, meta.FiledAt.Format("2006-01-02"), meta.Section, r.Score)))
			fmt.Fprintln(s.out, excerptStyle.Render(preview(r.Chunk.Text)))
			if !meta.Metrics.Empty() {
				fmt.Fprintln(s.out, sourceStyle.Render("Metrics: "+meta.Metrics.Summary()))
			}
		}
		fmt.Fprintln(s.out)
	}

	if f.Answer.Text != "" {
		fmt.Fprintln(s.out, titleStyle.Render("Answer"))
		fmt.Fprintln(s.out, answerStyle.Render(f.Answer.Text))
		fmt.Fprintln(s.out)
	}
}

func preview(text string) string {
	if len(text) <= previewLen {
		return text
	}
	return text[:previewLen] + "..."
}
