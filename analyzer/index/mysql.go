package index

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/shelby-garrison/SEC-Filing/analyzer/embed"
	"github.com/shelby-garrison/SEC-Filing/analyzer/filing"
)

// MySQLIndex is a MySQL/MariaDB-backed Index for shared deployments
// where several analysts or processes work against one corpus.
//
// The DSN format is the go-sql-driver format:
//
//	user:password@tcp(localhost:3306)/filings
//
// Credentials belong in the environment, not in source. Ranking works
// the same way as SQLiteIndex: SQL filters candidates, Go ranks them.
type MySQLIndex struct {
	db       *sql.DB
	embedder embed.Embedder

	mu     sync.RWMutex
	closed bool
}

// NewMySQLIndex connects to MySQL, verifies the connection, and creates
// the schema if needed.
func NewMySQLIndex(dsn string, embedder embed.Embedder) (*MySQLIndex, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open MySQL index: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping MySQL: %w", err)
	}

	idx := &MySQLIndex{db: db, embedder: embedder}
	if err := idx.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create index schema: %w", err)
	}
	return idx, nil
}

func (m *MySQLIndex) createTables(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS filing_chunks (
			chunk_id VARCHAR(128) PRIMARY KEY,
			filing_id VARCHAR(64) NOT NULL,
			company_name VARCHAR(255) NOT NULL,
			ticker VARCHAR(16) NOT NULL,
			form VARCHAR(16) NOT NULL,
			filed_at VARCHAR(40) NOT NULL,
			section VARCHAR(64) NOT NULL,
			chunk_index INT NOT NULL,
			total_chunks INT NOT NULL,
			currency_amounts TEXT NOT NULL,
			percentages TEXT NOT NULL,
			content MEDIUMTEXT NOT NULL,
			embedding MEDIUMBLOB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_chunks_ticker (ticker),
			INDEX idx_chunks_form (form),
			INDEX idx_chunks_filing (filing_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
	`
	_, err := m.db.ExecContext(ctx, schema)
	return err
}

// Add implements Index.
func (m *MySQLIndex) Add(ctx context.Context, chunks []filing.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := m.checkOpen(); err != nil {
		return err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin index transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO filing_chunks
			(chunk_id, filing_id, company_name, ticker, form, filed_at,
			 section, chunk_index, total_chunks, currency_amounts,
			 percentages, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			company_name = VALUES(company_name),
			filed_at = VALUES(filed_at),
			section = VALUES(section),
			total_chunks = VALUES(total_chunks),
			currency_amounts = VALUES(currency_amounts),
			percentages = VALUES(percentages),
			content = VALUES(content),
			embedding = VALUES(embedding)
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
func (m *MySQLIndex) Search(ctx context.Context, query string, filter Filter, limit int) ([]Result, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}

	vectors, err := m.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}

	where, args := buildFilterClause(filter, "?")
	q := `
		SELECT filing_id, company_name, ticker, form, filed_at, section,
		       chunk_index, total_chunks, currency_amounts, percentages,
		       content, embedding
		FROM filing_chunks` + where

	rows, err := m.db.QueryContext(ctx, q, args...)
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
func (m *MySQLIndex) Count(ctx context.Context) (int, error) {
	if err := m.checkOpen(); err != nil {
		return 0, err
	}
	var n int
	if err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM filing_chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// Close implements Index.
func (m *MySQLIndex) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return m.db.Close()
}

func (m *MySQLIndex) checkOpen() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}
