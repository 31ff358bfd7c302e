// Package edgar fetches company filings from the SEC EDGAR system.
//
// EDGAR has no authentication but enforces fair-use rules: every request
// must carry an identifying User-Agent, and clients must stay under ten
// requests per second. The Client enforces both, spacing requests even
// when called from concurrent goroutines.
package edgar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shelby-garrison/SEC-Filing/analyzer/filing"
)

// Defaults for a newly constructed Client.
const (
	DefaultBaseURL         = "https://www.sec.gov"
	DefaultDataURL         = "https://data.sec.gov"
	DefaultUserAgent       = "sec-filing-analyzer/1.0 (research contact: filings@example.com)"
	DefaultRequestInterval = 100 * time.Millisecond
	DefaultMaxFilings      = 5
)

// noContent is stored as filing content when the primary document
// cannot be fetched or yields no text.
const noContent = "no content available"

// ErrUnknownTicker is returned when a ticker has no entry in the EDGAR
// company database.
var ErrUnknownTicker = errors.New("ticker not found in EDGAR company database")

// statusError is an HTTP failure with retryability classification.
type statusError struct {
	status int
	url    string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("edgar: unexpected status %d from %s", e.status, e.url)
}

func (e *statusError) retryable() bool {
	return e.status == http.StatusTooManyRequests || e.status >= 500
}

// Client talks to EDGAR.
//
// All methods are safe for concurrent use; the request interval is
// enforced across goroutines so a concurrent ingest cannot exceed the
// SEC's rate limits.
type Client struct {
	httpClient *http.Client
	baseURL    string
	dataURL    string
	userAgent  string
	maxFilings int
	maxRetries int
	retryDelay time.Duration

	mu          sync.Mutex
	interval    time.Duration
	nextAllowed time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURLs overrides the www and data endpoints. Tests point these
// at httptest servers.
func WithBaseURLs(baseURL, dataURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
		c.dataURL = strings.TrimRight(dataURL, "/")
	}
}

// WithUserAgent sets the identifying User-Agent sent to the SEC.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRequestInterval sets the minimum spacing between requests.
func WithRequestInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithMaxFilings caps how many filings Filings returns per ticker.
func WithMaxFilings(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxFilings = n
		}
	}
}

// NewClient creates an EDGAR client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultBaseURL,
		dataURL:    DefaultDataURL,
		userAgent:  DefaultUserAgent,
		maxFilings: DefaultMaxFilings,
		maxRetries: 3,
		retryDelay: 500 * time.Millisecond,
		interval:   DefaultRequestInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// companyRecord is one entry of company_tickers.json.
type companyRecord struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// submissionsFeed is the relevant slice of the per-CIK submissions JSON.
// The feed is column-oriented: parallel arrays indexed together.
type submissionsFeed struct {
	Filings struct {
		Recent recentFilings `json:"recent"`
	} `json:"filings"`
}

type recentFilings struct {
	Form            []string `json:"form"`
	FilingDate      []string `json:"filingDate"`
	AccessionNumber []string `json:"accessionNumber"`
	PrimaryDocument []string `json:"primaryDocument"`
	FileNumber      []string `json:"fileNumber"`
}

// ResolveTicker looks a ticker up in the EDGAR company database and
// returns its zero-padded ten digit CIK and registrant title.
func (c *Client) ResolveTicker(ctx context.Context, ticker string) (cik, title string, err error) {
	body, err := c.get(ctx, c.baseURL+"/files/company_tickers.json")
	if err != nil {
		return "", "", fmt.Errorf("fetch company database: %w", err)
	}

	var companies map[string]companyRecord
	if err := json.Unmarshal(body, &companies); err != nil {
		return "", "", fmt.Errorf("parse company database: %w", err)
	}

	upper := strings.ToUpper(ticker)
	for _, rec := range companies {
		if strings.ToUpper(rec.Ticker) == upper {
			return fmt.Sprintf("%010d", rec.CIK), rec.Title, nil
		}
	}
	return "", "", fmt.Errorf("%w: %s", ErrUnknownTicker, ticker)
}

// Filings fetches recent filings for a ticker, filtered by form type and
// filing-date window (inclusive on both ends), with each primary
// document downloaded and converted to plain text.
//
// At most the configured maximum number of filings is returned. A
// document that cannot be fetched degrades to placeholder content; feed
// and lookup failures are errors.
func (c *Client) Filings(ctx context.Context, ticker string, forms []filing.Form, from, to time.Time) ([]filing.Filing, error) {
	cik, title, err := c.ResolveTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, fmt.Sprintf("%s/submissions/CIK%s.json", c.dataURL, cik))
	if err != nil {
		return nil, fmt.Errorf("fetch submissions for %s: %w", ticker, err)
	}

	var feed submissionsFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parse submissions for %s: %w", ticker, err)
	}

	recent := feed.Filings.Recent
	wanted := make(map[filing.Form]bool, len(forms))
	for _, f := range forms {
		wanted[f] = true
	}

	var filings []filing.Filing
	for i, form := range recent.Form {
		if !wanted[filing.Form(form)] {
			continue
		}
		if i >= len(recent.FilingDate) || i >= len(recent.AccessionNumber) {
			break
		}

		filedAt, err := time.Parse("2006-01-02", recent.FilingDate[i])
		if err != nil {
			continue
		}
		if !from.IsZero() && filedAt.Before(from) {
			continue
		}
		if !to.IsZero() && filedAt.After(to) {
			continue
		}

		accession := recent.AccessionNumber[i]
		primary := ""
		if i < len(recent.PrimaryDocument) {
			primary = recent.PrimaryDocument[i]
		}
		fileNumber := ""
		if i < len(recent.FileNumber) {
			fileNumber = recent.FileNumber[i]
		}

		filings = append(filings, filing.Filing{
			ID:              strings.ReplaceAll(accession, "-", ""),
			CompanyName:     title,
			Ticker:          ticker,
			Form:            filing.Form(form),
			FiledAt:         filedAt,
			Content:         c.fetchDocument(ctx, cik, accession, primary),
			CIK:             cik,
			AccessionNumber: accession,
			FileNumber:      fileNumber,
		})
		if len(filings) >= c.maxFilings {
			break
		}
	}
	return filings, nil
}

// fetchDocument downloads a filing's primary document and extracts its
// text. Failures degrade to the placeholder: one unreachable document
// should not sink an entire ingest.
func (c *Client) fetchDocument(ctx context.Context, cik, accession, primary string) string {
	url := fmt.Sprintf("%s/Archives/edgar/data/%s/%s/%s",
		c.baseURL,
		strings.TrimLeft(cik, "0"),
		strings.ReplaceAll(accession, "-", ""),
		primary,
	)

	body, err := c.get(ctx, url)
	if err != nil {
		return noContent
	}

	text, err := ExtractText(strings.NewReader(string(body)))
	if err != nil || strings.TrimSpace(text) == "" {
		return noContent
	}
	return text
}

// get performs a rate-limited GET with the identifying User-Agent and
// retries transient failures.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		body, err := c.doGet(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			return nil, err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if attempt >= c.maxRetries {
			break
		}

		select {
		case <-time.After(c.retryDelay * time.Duration(attempt+1)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (c *Client) doGet(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{status: resp.StatusCode, url: url}
	}
	return io.ReadAll(resp.Body)
}

// wait blocks until this client is allowed to issue its next request.
// Slots are handed out under the lock so concurrent callers are spaced
// by the configured interval rather than racing through together.
func (c *Client) wait(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	var sleep time.Duration
	if c.nextAllowed.After(now) {
		sleep = c.nextAllowed.Sub(now)
		c.nextAllowed = c.nextAllowed.Add(c.interval)
	} else {
		c.nextAllowed = now.Add(c.interval)
	}
	c.mu.Unlock()

	if sleep <= 0 {
		return nil
	}
	select {
	case <-time.After(sleep):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
