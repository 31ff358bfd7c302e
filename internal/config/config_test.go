package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Index.Driver != "sqlite" {
		t.Errorf("Index.Driver = %q, want sqlite", c.Index.Driver)
	}
	if c.Embedder.Provider != "local" {
		t.Errorf("Embedder.Provider = %q, want local", c.Embedder.Provider)
	}
	if c.Edgar.RequestInterval != 100*time.Millisecond {
		t.Errorf("Edgar.RequestInterval = %v", c.Edgar.RequestInterval)
	}
	if c.Edgar.MaxFilings != 5 {
		t.Errorf("Edgar.MaxFilings = %d, want 5", c.Edgar.MaxFilings)
	}
	if c.Ingest.Workers != 4 || c.Ingest.WindowDays != 365 {
		t.Errorf("Ingest = %+v", c.Ingest)
	}
	if !strings.Contains(c.Edgar.UserAgent, "contact") {
		t.Errorf("Edgar.UserAgent = %q, want a contact address", c.Edgar.UserAgent)
	}
	if c.Synth.Enabled {
		t.Error("Synth.Enabled should default to false")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SECANALYZER_INDEX_DRIVER", "memory")
	t.Setenv("SECANALYZER_EMBEDDER_PROVIDER", "openai")
	t.Setenv("SECANALYZER_EMBEDDER_API_KEY", "sk-test")
	t.Setenv("SECANALYZER_INGEST_WORKERS", "8")

	c, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Index.Driver != "memory" {
		t.Errorf("Index.Driver = %q, want memory", c.Index.Driver)
	}
	if c.Embedder.Provider != "openai" || c.Embedder.APIKey != "sk-test" {
		t.Errorf("Embedder = %+v", c.Embedder)
	}
	if c.Ingest.Workers != 8 {
		t.Errorf("Ingest.Workers = %d, want 8", c.Ingest.Workers)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secanalyzer.yaml")
	content := `index:
  driver: memory
ingest:
  window_days: 30
groups:
  - name: Autos
    tickers: [TSLA, F]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Index.Driver != "memory" {
		t.Errorf("Index.Driver = %q, want memory", c.Index.Driver)
	}
	if c.Ingest.WindowDays != 30 {
		t.Errorf("Ingest.WindowDays = %d, want 30", c.Ingest.WindowDays)
	}
	if len(c.Groups) != 1 || c.Groups[0].Name != "Autos" || len(c.Groups[0].Tickers) != 2 {
		t.Errorf("Groups = %+v", c.Groups)
	}
	// Defaults still fill unset keys.
	if c.Edgar.MaxFilings != 5 {
		t.Errorf("Edgar.MaxFilings = %d, want 5", c.Edgar.MaxFilings)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(nil, filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadFlagOverridesEnv(t *testing.T) {
	t.Setenv("SECANALYZER_INDEX_DRIVER", "memory")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("index.driver", "", "")
	if err := flags.Set("index.driver", "sqlite"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	c, err := Load(flags, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Index.Driver != "sqlite" {
		t.Errorf("Index.Driver = %q, want sqlite (flag wins)", c.Index.Driver)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		c, err := Load(nil, "")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad driver", func(c *Config) { c.Index.Driver = "postgres" }, "unknown index driver"},
		{"mysql without dsn", func(c *Config) { c.Index.Driver = "mysql" }, "mysql_dsn"},
		{"bad provider", func(c *Config) { c.Embedder.Provider = "cohere" }, "unknown embedder provider"},
		{"openai without key", func(c *Config) { c.Embedder.Provider = "openai" }, "EMBEDDER_API_KEY"},
		{"synth without key", func(c *Config) { c.Synth.Enabled = true }, "SYNTH_API_KEY"},
		{"zero workers", func(c *Config) { c.Ingest.Workers = 0 }, "workers"},
		{"zero window", func(c *Config) { c.Ingest.WindowDays = 0 }, "window_days"},
		{"zero max filings", func(c *Config) { c.Edgar.MaxFilings = 0 }, "max_filings"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
