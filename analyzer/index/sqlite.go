package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shelby-garrison/SEC-Filing/analyzer/embed"
	"github.com/shelby-garrison/SEC-Filing/analyzer/filing"
)

// SQLiteIndex is a single-file persistent Index.
//
// Chunks, metadata, and embedding vectors live in one SQLite database,
// which makes the analyzer fully self-contained: no external services
// beyond the embedder. WAL mode is enabled so searches can proceed while
// an ingest is writing.
//
// Candidate rows are filtered by metadata in SQL; similarity ranking
// happens in Go over the filtered set. Filing corpora are small enough
// (a few thousand chunks per company-year) that this stays fast without
// a dedicated vector extension.
type SQLiteIndex struct {
	db       *sql.DB
	embedder embed.Embedder

	mu     sync.RWMutex
	closed bool
}

// NewSQLiteIndex opens (or creates) a SQLite-backed index at path.
// Use ":memory:" for an ephemeral database.
func NewSQLiteIndex(path string, embedder embed.Embedder) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open SQLite index: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configure SQLite index: %w", err)
		}
	}

	idx := &SQLiteIndex{db: db, embedder: embedder}
	if err := idx.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create index schema: %w", err)
	}
	return idx, nil
}

func (s *SQLiteIndex) createTables(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS filing_chunks (
			chunk_id TEXT PRIMARY KEY,
			filing_id TEXT NOT NULL,
			company_name TEXT NOT NULL,
			ticker TEXT NOT NULL,
			form TEXT NOT NULL,
			filed_at TEXT NOT NULL,
			section TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			total_chunks INTEGER NOT NULL,
			currency_amounts TEXT NOT NULL DEFAULT '',
			percentages TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			embedding BLOB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	for _, stmt := range []string{
		"CREATE INDEX IF NOT EXISTS idx_chunks_ticker ON filing_chunks(ticker)",
		"CREATE INDEX IF NOT EXISTS idx_chunks_form ON filing_chunks(form)",
		"CREATE INDEX IF NOT EXISTS idx_chunks_filing ON filing_chunks(filing_id)",
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Add implements Index. Rows are keyed by chunk ID, so re-adding a
// chunk replaces the previous row.
func (s *SQLiteIndex) Add(ctx context.Context, chunks []filing.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin index transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO filing_chunks
			(chunk_id, filing_id, company_name, ticker, form, filed_at,
			 section, chunk_index, total_chunks, currency_amounts,
			 percentages, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		cur, pct := c.Meta.Metrics.CSV()
		_, err := stmt.ExecContext(ctx,
			c.Meta.ChunkID(), c.Meta.FilingID, c.Meta.CompanyName,
			c.Meta.Ticker, string(c.Meta.Form),
			c.Meta.FiledAt.UTC().Format(time.RFC3339),
			c.Meta.Section, c.Meta.ChunkIndex, c.Meta.TotalChunks,
			cur, pct, c.Text, encodeVector(vectors[i]),
		)
		if err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.Meta.ChunkID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit index transaction: %w", err)
	}
	return nil
}

// Search implements Index.
func (s *SQLiteIndex) Search(ctx context.Context, query string, filter Filter, limit int) ([]Result, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}

	where, args := buildFilterClause(filter, "?")
	q := `
		SELECT filing_id, company_name, ticker, form, filed_at, section,
		       chunk_index, total_chunks, currency_amounts, percentages,
		       content, embedding
		FROM filing_chunks` + where

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	defer rows.Close()

	cands, err := scanCandidates(rows)
	if err != nil {
		return nil, err
	}
	return rank(vectors[0], cands, limit), nil
}

// Count implements Index.
func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM filing_chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// Close implements Index.
func (s *SQLiteIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SQLiteIndex) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// buildFilterClause renders the metadata filter as a WHERE clause with
// the given placeholder style ("?" for sqlite/mysql).
func buildFilterClause(filter Filter, placeholder string) (string, []any) {
	var clauses []string
	var args []any

	if len(filter.Tickers) > 0 {
		marks := make([]string, len(filter.Tickers))
		for i, t := range filter.Tickers {
			marks[i] = placeholder
			args = append(args, t)
		}
		clauses = append(clauses, fmt.Sprintf("ticker IN (%s)", strings.Join(marks, ", ")))
	}
	if len(filter.Forms) > 0 {
		marks := make([]string, len(filter.Forms))
		for i, form := range filter.Forms {
			marks[i] = placeholder
			args = append(args, string(form))
		}
		clauses = append(clauses, fmt.Sprintf("form IN (%s)", strings.Join(marks, ", ")))
	}
	// filed_at is stored as RFC3339 UTC text, which sorts
	// lexicographically in time order.
	if !filter.From.IsZero() {
		clauses = append(clauses, "filed_at >= "+placeholder)
		args = append(args, filter.From.UTC().Format(time.RFC3339))
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "filed_at <= "+placeholder)
		args = append(args, filter.To.UTC().Format(time.RFC3339))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// scanCandidates reads filing_chunks rows into ranking candidates.
func scanCandidates(rows *sql.Rows) ([]candidate, error) {
	var cands []candidate
	for rows.Next() {
		var (
			meta     filing.ChunkMetadata
			form     string
			filedAt  string
			cur, pct string
			content  string
			blob     []byte
		)
		err := rows.Scan(&meta.FilingID, &meta.CompanyName, &meta.Ticker,
			&form, &filedAt, &meta.Section, &meta.ChunkIndex,
			&meta.TotalChunks, &cur, &pct, &content, &blob)
		if err != nil {
			return nil, fmt.Errorf("scan chunk row: %w", err)
		}
		meta.Form = filing.Form(form)
		if t, err := time.Parse(time.RFC3339, filedAt); err == nil {
			meta.FiledAt = t
		}
		meta.Metrics = filing.MetricsFromCSV(cur, pct)

		cands = append(cands, candidate{
			chunk: filing.Chunk{Text: content, Meta: meta},
			vec:   decodeVector(blob),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk rows: %w", err)
	}
	return cands, nil
}
