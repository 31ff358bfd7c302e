// main.go sets up the command-line interface for the SEC filing
// analyzer using Cobra: the root command, the ingest, ask, interactive,
// and version subcommands, and the wiring from configuration to a
// running engine.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/shelby-garrison/SEC-Filing/analyzer"
	"github.com/shelby-garrison/SEC-Filing/analyzer/edgar"
	"github.com/shelby-garrison/SEC-Filing/analyzer/embed"
	"github.com/shelby-garrison/SEC-Filing/analyzer/emit"
	"github.com/shelby-garrison/SEC-Filing/analyzer/filing"
	"github.com/shelby-garrison/SEC-Filing/analyzer/index"
	"github.com/shelby-garrison/SEC-Filing/analyzer/synth"
	"github.com/shelby-garrison/SEC-Filing/internal/config"
)

var version = "dev" // set by the linker

var (
	cfgFile     string
	verbose     bool
	jsonOut     bool
	metricsAddr string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "secanalyzer",
		Short:         "Analyze SEC filings with semantic search",
		Long:          "secanalyzer ingests SEC EDGAR filings into a local vector index and answers natural-language questions about them.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default secanalyzer.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline events to stderr")
	cmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "machine-readable output")
	cmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	cmd.AddCommand(newIngestCmd(), newAskCmd(), newInteractiveCmd(), newVersionCmd())
	return cmd
}

// buildEngine resolves configuration and assembles the pipeline.
// The returned cleanup closes the index.
func buildEngine(cmd *cobra.Command) (*analyzer.Engine, config.Config, func(), error) {
	cfg, err := config.Load(cmd.Flags(), cfgFile)
	if err != nil {
		return nil, cfg, nil, err
	}

	embedder, err := buildEmbedder(cmd.Context(), cfg)
	if err != nil {
		return nil, cfg, nil, err
	}

	idx, err := buildIndex(cfg, embedder)
	if err != nil {
		return nil, cfg, nil, err
	}
	cleanup := func() { _ = idx.Close() }

	fetcher := edgar.NewClient(
		edgar.WithUserAgent(cfg.Edgar.UserAgent),
		edgar.WithRequestInterval(cfg.Edgar.RequestInterval),
		edgar.WithMaxFilings(cfg.Edgar.MaxFilings),
	)

	registry := prometheus.NewRegistry()
	opts := []analyzer.Option{
		analyzer.WithFetcher(fetcher),
		analyzer.WithIndex(idx),
		analyzer.WithConcurrency(cfg.Ingest.Workers),
		analyzer.WithMetrics(analyzer.NewMetrics(registry)),
	}
	if verbose {
		opts = append(opts, analyzer.WithEmitter(emit.NewLogEmitter(os.Stderr, jsonOut)))
	}
	if cfg.Synth.Enabled {
		opts = append(opts, analyzer.WithSynthesizer(
			synth.NewAnthropicSynthesizer(cfg.Synth.APIKey, cfg.Synth.Model)))
	}

	engine, err := analyzer.New(opts...)
	if err != nil {
		cleanup()
		return nil, cfg, nil, err
	}

	if metricsAddr != "" {
		srv := serveMetrics(metricsAddr, registry)
		closeIdx := cleanup
		cleanup = func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
			closeIdx()
		}
	}
	return engine, cfg, cleanup, nil
}

// serveMetrics exposes the registry on /metrics in the background.
func serveMetrics(addr string, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintln(os.Stderr, "metrics server:", err)
		}
	}()
	return srv
}

func buildEmbedder(ctx context.Context, cfg config.Config) (embed.Embedder, error) {
	switch cfg.Embedder.Provider {
	case "local":
		return embed.NewLocalEmbedder(embed.DefaultLocalDimensions), nil
	case "openai":
		return embed.NewOpenAIEmbedder(cfg.Embedder.APIKey, cfg.Embedder.Model)
	case "google":
		return embed.NewGoogleEmbedder(ctx, cfg.Embedder.APIKey, cfg.Embedder.Model)
	default:
		return nil, fmt.Errorf("unknown embedder provider %q", cfg.Embedder.Provider)
	}
}

func buildIndex(cfg config.Config, embedder embed.Embedder) (index.Index, error) {
	switch cfg.Index.Driver {
	case "memory":
		return index.NewMemIndex(embedder), nil
	case "sqlite":
		return index.NewSQLiteIndex(cfg.Index.SQLitePath, embedder)
	case "mysql":
		return index.NewMySQLIndex(cfg.Index.MySQLDSN, embedder)
	default:
		return nil, fmt.Errorf("unknown index driver %q", cfg.Index.Driver)
	}
}

func parseForms(types []string) ([]filing.Form, error) {
	var forms []filing.Form
	for _, t := range types {
		form, err := filing.ParseForm(t)
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
	return forms, nil
}

func newIngestCmd() *cobra.Command {
	var (
		tickers []string
		types   []string
		days    int
	)
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch, chunk, and index filings for the given tickers",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, cfg, cleanup, err := buildEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			forms, err := parseForms(types)
			if err != nil {
				return err
			}
			window := days
			if window <= 0 {
				window = cfg.Ingest.WindowDays
			}
			now := time.Now()

			report, err := engine.Ingest(cmd.Context(), analyzer.IngestRequest{
				Tickers: tickers,
				Forms:   forms,
				From:    now.AddDate(0, 0, -window),
				To:      now,
			})
			if err != nil {
				return err
			}
			printReport(cmd, report)
			if len(report.Errors) == len(tickers) {
				return fmt.Errorf("all %d tickers failed", len(tickers))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&tickers, "tickers", nil, "tickers to ingest (required)")
	cmd.Flags().StringSliceVar(&types, "types", nil, "filing types to fetch (10-K, 10-Q, 8-K)")
	cmd.Flags().IntVar(&days, "days", 0, "how many days back to fetch (default from config)")
	_ = cmd.MarkFlagRequired("tickers")
	return cmd
}

func printReport(cmd *cobra.Command, report analyzer.IngestReport) {
	if jsonOut {
		out := struct {
			RunID   string                  `json:"runID"`
			Results []analyzer.TickerResult `json:"results"`
			Errors  []string                `json:"errors,omitempty"`
		}{RunID: report.RunID, Results: report.Results}
		for _, e := range report.Errors {
			out.Errors = append(out.Errors, e.Error())
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}

	for _, r := range report.Results {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d filings, %d chunks\n", r.Ticker, r.Filings, r.Chunks)
	}
	for _, e := range report.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: failed at %s stage: %v\n", e.Ticker, e.Stage, e.Err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks in %s\n",
		report.TotalChunks(), report.Duration.Round(time.Millisecond))
}

func newAskCmd() *cobra.Command {
	var (
		tickers []string
		types   []string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "ask \"question\"",
		Short: "Answer a question from the indexed filings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, cleanup, err := buildEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			forms, err := parseForms(types)
			if err != nil {
				return err
			}

			findings, err := engine.Investigate(cmd.Context(), analyzer.InvestigateRequest{
				Question: args[0],
				Tickers:  tickers,
				Forms:    forms,
				Limit:    limit,
			})
			if err != nil {
				return err
			}
			printFindings(cmd, findings)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&tickers, "tickers", nil, "restrict the search to these tickers")
	cmd.Flags().StringSliceVar(&types, "types", nil, "restrict the search to these filing types")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum excerpts to retrieve")
	return cmd
}

func printFindings(cmd *cobra.Command, findings analyzer.Findings) {
	out := cmd.OutOrStdout()

	if jsonOut {
		type excerpt struct {
			Ticker  string  `json:"ticker"`
			Company string  `json:"company"`
			Form    string  `json:"form"`
			FiledAt string  `json:"filedAt"`
			Section string  `json:"section"`
			Score   float64 `json:"score"`
			Text    string  `json:"text"`
		}
		doc := struct {
			RunID    string    `json:"runID"`
			Answer   string    `json:"answer,omitempty"`
			Sources  []string  `json:"sources,omitempty"`
			Excerpts []excerpt `json:"excerpts"`
		}{RunID: findings.RunID, Answer: findings.Answer.Text, Sources: findings.Answer.Sources}
		for _, r := range findings.Results {
			m := r.Chunk.Meta
			doc.Excerpts = append(doc.Excerpts, excerpt{
				Ticker:  m.Ticker,
				Company: m.CompanyName,
				Form:    string(m.Form),
				FiledAt: m.FiledAt.Format("2006-01-02"),
				Section: m.Section,
				Score:   r.Score,
				Text:    r.Chunk.Text,
			})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(doc)
		return
	}

	if len(findings.Results) == 0 {
		fmt.Fprintln(out, "No matching filings found.")
		return
	}
	for _, group := range findings.ByTicker {
		fmt.Fprintln(out, group.Ticker)
		for _, r := range group.Results {
			m := r.Chunk.Meta
			fmt.Fprintf(out, "  %s %s filed %s, section %s (score %.2f)\n",
				m.CompanyName, m.Form, m.FiledAt.Format("2006-01-02"), m.Section, r.Score)
			fmt.Fprintf(out, "    %s\n", truncate(r.Chunk.Text, 500))
		}
	}
	if findings.Answer.Text != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Answer:")
		fmt.Fprintln(out, findings.Answer.Text)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func newInteractiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive analysis session",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, cfg, cleanup, err := buildEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			var groups []analyzer.CompanyGroup
			for _, g := range cfg.Groups {
				groups = append(groups, analyzer.CompanyGroup{
					Name:    g.Name,
					Tickers: normalizeTickers(g.Tickers),
				})
			}

			session := analyzer.NewSession(engine, cmd.InOrStdin(), cmd.OutOrStdout(), groups)
			return session.Run(cmd.Context())
		},
	}
}

func normalizeTickers(tickers []string) []string {
	out := make([]string, len(tickers))
	for i, t := range tickers {
		out[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	return out
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the secanalyzer version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "secanalyzer %s\n", version)
		},
	}
}
