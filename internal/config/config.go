// Package config loads analyzer configuration from secanalyzer.yaml,
// SECANALYZER_* environment variables, and bound CLI flags, in rising
// order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the fully resolved analyzer configuration.
type Config struct {
	Edgar    EdgarConfig    `mapstructure:"edgar"`
	Index    IndexConfig    `mapstructure:"index"`
	Embedder EmbedderConfig `mapstructure:"embedder"`
	Synth    SynthConfig    `mapstructure:"synth"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Groups   []GroupConfig  `mapstructure:"groups"`
}

// EdgarConfig controls the EDGAR client.
type EdgarConfig struct {
	// UserAgent identifies the caller to the SEC, which requires a
	// contact address in the string.
	UserAgent string `mapstructure:"user_agent"`

	// RequestInterval is the minimum spacing between EDGAR requests.
	RequestInterval time.Duration `mapstructure:"request_interval"`

	// MaxFilings caps filings fetched per ticker.
	MaxFilings int `mapstructure:"max_filings"`
}

// IndexConfig selects and configures the vector index backend.
type IndexConfig struct {
	// Driver is one of memory, sqlite, mysql.
	Driver string `mapstructure:"driver"`

	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string `mapstructure:"sqlite_path"`

	// MySQLDSN is the connection string for the mysql driver.
	MySQLDSN string `mapstructure:"mysql_dsn"`
}

// EmbedderConfig selects and configures the embedding provider.
type EmbedderConfig struct {
	// Provider is one of local, openai, google.
	Provider string `mapstructure:"provider"`

	// Model overrides the provider's default model.
	Model string `mapstructure:"model"`

	// APIKey authenticates with the provider. Supply it through the
	// SECANALYZER_EMBEDDER_API_KEY environment variable rather than the
	// config file.
	APIKey string `mapstructure:"api_key"`
}

// SynthConfig controls answer synthesis.
type SynthConfig struct {
	// Enabled turns Claude-backed answers on.
	Enabled bool `mapstructure:"enabled"`

	// Model overrides the default Claude model.
	Model string `mapstructure:"model"`

	// APIKey authenticates with Anthropic. Supply it through the
	// SECANALYZER_SYNTH_API_KEY environment variable.
	APIKey string `mapstructure:"api_key"`
}

// IngestConfig controls ingest runs.
type IngestConfig struct {
	// WindowDays is how far back the filing-date window reaches.
	WindowDays int `mapstructure:"window_days"`

	// Workers is how many tickers are ingested in parallel.
	Workers int `mapstructure:"workers"`
}

// GroupConfig is a named ticker set offered in the interactive session.
type GroupConfig struct {
	Name    string   `mapstructure:"name"`
	Tickers []string `mapstructure:"tickers"`
}

// Defaults returns the default configuration values, keyed the way the
// config file is.
func Defaults() map[string]any {
	return map[string]any{
		"edgar.user_agent":       "sec-filing-analyzer/1.0 (research contact: filings@example.com)",
		"edgar.request_interval": 100 * time.Millisecond,
		"edgar.max_filings":      5,
		"index.driver":           "sqlite",
		"index.sqlite_path":      "secfilings.db",
		"index.mysql_dsn":        "",
		"embedder.provider":      "local",
		"embedder.model":         "",
		"embedder.api_key":       "",
		"synth.enabled":          false,
		"synth.model":            "",
		"synth.api_key":          "",
		"ingest.window_days":     365,
		"ingest.workers":         4,
	}
}

// Load resolves the configuration. Sources, lowest to highest
// precedence: Defaults, secanalyzer.yaml (explicit path, then the user
// config dir, then the working directory), SECANALYZER_* environment
// variables, and bound flags. A missing config file is not an error.
func Load(flags *pflag.FlagSet, configFile string) (Config, error) {
	var c Config
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigName("secanalyzer")
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	if userDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(userDir, "secanalyzer"))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, fmt.Errorf("read config: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("secanalyzer")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("parse config: %w", err)
	}
	return c, c.Validate()
}

// Validate rejects values the pipeline cannot run with.
func (c Config) Validate() error {
	switch c.Index.Driver {
	case "memory", "sqlite", "mysql":
	default:
		return fmt.Errorf("unknown index driver %q", c.Index.Driver)
	}
	if c.Index.Driver == "mysql" && c.Index.MySQLDSN == "" {
		return fmt.Errorf("index driver mysql requires index.mysql_dsn")
	}

	switch c.Embedder.Provider {
	case "local", "openai", "google":
	default:
		return fmt.Errorf("unknown embedder provider %q", c.Embedder.Provider)
	}
	if c.Embedder.Provider != "local" && c.Embedder.APIKey == "" {
		return fmt.Errorf("embedder provider %s requires SECANALYZER_EMBEDDER_API_KEY", c.Embedder.Provider)
	}

	if c.Synth.Enabled && c.Synth.APIKey == "" {
		return fmt.Errorf("answer synthesis requires SECANALYZER_SYNTH_API_KEY")
	}

	if c.Ingest.Workers < 1 {
		return fmt.Errorf("ingest.workers must be at least 1, got %d", c.Ingest.Workers)
	}
	if c.Ingest.WindowDays < 1 {
		return fmt.Errorf("ingest.window_days must be at least 1, got %d", c.Ingest.WindowDays)
	}
	if c.Edgar.MaxFilings < 1 {
		return fmt.Errorf("edgar.max_filings must be at least 1, got %d", c.Edgar.MaxFilings)
	}
	return nil
}
