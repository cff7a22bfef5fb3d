// Package pubmed fetches MEDLINE records from NCBI E-utilities.
package pubmed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the E-utilities efetch endpoint.
	BaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// RateLimit is 3 requests per second without an API key per NCBI policy.
	RateLimit = 3.0
	// RateLimitWithKey is 10 requests per second with an API key.
	RateLimitWithKey = 10.0

	// DefaultBatchSize is the largest number of ids efetch returns per request.
	DefaultBatchSize = 1000

	// Tool identifies this client to NCBI.
	Tool = "litrev"
)

// Client is a rate-limited HTTP client for efetch.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	email      string
	baseURL    string
	log        logrus.FieldLogger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the NCBI API key, which also raises the rate limit.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithEmail sets the contact address NCBI asks clients to send.
func WithEmail(email string) ClientOption {
	return func(c *Client) {
		c.email = email
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithLogger sets the logger used for batch progress.
func WithLogger(log logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a new efetch client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    BaseURL,
		log:        logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	limit := RateLimit
	if c.apiKey != "" {
		limit = RateLimitWithKey
	}
	c.limiter = rate.NewLimiter(rate.Limit(limit), 1)

	return c
}

// FetchBatch requests the MEDLINE records for ids in a single efetch call.
// Records come back in NCBI's order, which may omit unknown ids.
func (c *Client) FetchBatch(ctx context.Context, ids []string) ([]Medline, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	form := url.Values{}
	form.Set("db", "pubmed")
	form.Set("rettype", "medline")
	form.Set("retmode", "text")
	form.Set("retmax", fmt.Sprint(len(ids)))
	form.Set("id", strings.Join(ids, ","))
	form.Set("tool", Tool)
	if c.email != "" {
		form.Set("email", c.email)
	}
	if c.apiKey != "" {
		form.Set("api_key", c.apiKey)
	}

	// POST keeps long id lists out of the URL.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp); err != nil {
		return nil, err
	}

	return ParseMedline(resp.Body)
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return nil
}

// Fetch requests records for ids in batches of batchSize and returns them
// aligned with ids: result[i] is the record for ids[i], or nil when NCBI
// returned none for it.
func (c *Client) Fetch(ctx context.Context, ids []string, batchSize int) ([]Medline, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	out := make([]Medline, len(ids))
	for i := 0; i < len(ids); i += batchSize {
		j := min(i+batchSize, len(ids))
		c.log.WithFields(logrus.Fields{"from": i, "to": j}).Infof("fetching abstracts from %d to %d", i, j)

		records, err := c.FetchBatch(ctx, ids[i:j])
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				apiErr.Batch = fmt.Sprintf("%d-%d", i, j)
			}
			return nil, err
		}

		byPMID := make(map[string]Medline, len(records))
		for _, rec := range records {
			if pmid := rec.PMID(); pmid != "" {
				byPMID[pmid] = rec
			}
		}
		for k := i; k < j; k++ {
			out[k] = byPMID[strings.TrimSpace(ids[k])]
		}
	}

	return out, nil
}

// FetchAbstracts returns the abstract for each id, aligned with ids. Missing
// records and records without an abstract give nil.
func (c *Client) FetchAbstracts(ctx context.Context, ids []string, batchSize int) ([]*string, error) {
	records, err := c.Fetch(ctx, ids, batchSize)
	if err != nil {
		return nil, err
	}
	abstracts := make([]*string, len(records))
	for i, rec := range records {
		if rec != nil {
			abstracts[i] = rec.Abstract()
		}
	}
	return abstracts, nil
}
