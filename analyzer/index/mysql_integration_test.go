package index

import (
	"context"
	"os"
	"testing"

	"github.com/shelby-garrison/SEC-Filing/analyzer/embed"
	"github.com/shelby-garrison/SEC-Filing/analyzer/filing"
)

// TestMySQLIndexIntegration validates MySQLIndex against a real server.
//
// Prerequisites:
//   - MySQL server running (local, Docker, or cloud)
//   - TEST_MYSQL_DSN environment variable set, e.g.
//     "user:password@tcp(localhost:3306)/filings_test"
//
// To run:
//
//	export TEST_MYSQL_DSN="user:password@tcp(localhost:3306)/filings_test"
//	go test -v -run TestMySQLIndexIntegration ./analyzer/index
func TestMySQLIndexIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("Skipping MySQL integration test: set TEST_MYSQL_DSN to run")
	}

	ctx := context.Background()
	idx, err := NewMySQLIndex(dsn, embed.NewLocalEmbedder(128))
	if err != nil {
		t.Fatalf("NewMySQLIndex failed: %v", err)
	}
	defer idx.Close()

	chunk := testChunk("mysql-it-1", "AAPL", filing.Form10K, 0, "integration test chunk about supply chain")
	if err := idx.Add(ctx, []filing.Chunk{chunk}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	results, err := idx.Search(ctx, "supply chain", Filter{Tickers: []string{"AAPL"}}, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	if results[0].Chunk.Meta.FilingID != "mysql-it-1" {
		t.Errorf("unexpected filing ID %q", results[0].Chunk.Meta.FilingID)
	}
}

func TestMySQLIndexContract(t *testing.T) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("Skipping MySQL contract test: set TEST_MYSQL_DSN to run")
	}

	indexContract(t, func(t *testing.T) Index {
		idx, err := NewMySQLIndex(dsn, embed.NewLocalEmbedder(128))
		if err != nil {
			t.Fatalf("NewMySQLIndex failed: %v", err)
		}
		ctx := context.Background()
		if _, err := idx.db.ExecContext(ctx, "DELETE FROM filing_chunks"); err != nil {
			t.Fatalf("truncate failed: %v", err)
		}
		return idx
	})
}
