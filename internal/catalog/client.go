package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"

	"github.com/tvtracker/tvtracker/internal/config"
)

const (
	defaultRetryDelay = 500 * time.Millisecond
	maxResponseBytes  = 16 << 20
)

// statusError reports a non-200 response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

var _ Provider = (*Client)(nil)

// Client is a TheTVDB XML API client.
type Client struct {
	httpClient *http.Client
	config     config.CatalogConfig
	logger     zerolog.Logger
	retryDelay time.Duration
}

// NewClient creates a new catalog client.
func NewClient(cfg config.CatalogConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config:     cfg,
		logger:     logger.With().Str("component", "catalog").Logger(),
		retryDelay: defaultRetryDelay,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "thetvdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Search looks a show name up by its normalized search key.
func (c *Client) Search(ctx context.Context, name string) (SearchResult, error) {
	params := url.Values{}
	params.Set("seriesname", NormalizeName(name))
	endpoint := fmt.Sprintf("%s/GetSeries.php?%s", strings.TrimRight(c.config.BaseURL, "/"), params.Encode())

	doc, err := c.getDocument(ctx, endpoint)
	if err != nil {
		return SearchResult{}, err
	}

	candidates := make([]Candidate, 0, len(doc.series))
	for _, r := range doc.series {
		cand, ok := r.toCandidate()
		if !ok {
			c.logger.Debug().Str("name", r.str("seriesname")).Msg("Skipping search result without series id")
			continue
		}
		candidates = append(candidates, cand)
	}

	result := NewSearchResult(candidates)
	c.logger.Debug().
		Str("query", name).
		Stringer("match", result.Kind).
		Int("results", len(candidates)).
		Msg("Series search completed")

	return result, nil
}

// ResolveIdentifier returns the canonical id of the first search candidate.
func (c *Client) ResolveIdentifier(ctx context.Context, name string) (int64, error) {
	result, err := c.Search(ctx, name)
	if err != nil {
		return 0, err
	}
	first, ok := result.First()
	if !ok {
		return 0, ErrNotFound
	}
	return first.ID, nil
}

// FetchMetadata fetches the full series record and its episodes.
func (c *Client) FetchMetadata(ctx context.Context, id int64) (*Metadata, error) {
	if !c.IsConfigured() {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ErrAPIKeyMissing)
	}

	language := c.config.Language
	if language == "" {
		language = "en"
	}
	endpoint := fmt.Sprintf("%s/%s/series/%d/all/%s.xml",
		strings.TrimRight(c.config.BaseURL, "/"), url.PathEscape(c.config.APIKey), id, url.PathEscape(language))

	doc, err := c.getDocument(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if len(doc.series) == 0 {
		return nil, fmt.Errorf("%w: series %d record missing from response", ErrUnavailable, id)
	}

	series, err := doc.series[0].toSeries()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	episodes := make([]Episode, 0, len(doc.episodes))
	for _, r := range doc.episodes {
		episodes = append(episodes, r.toEpisode())
	}

	c.logger.Debug().
		Int64("id", id).
		Str("title", series.Name).
		Int("episodes", len(episodes)).
		Msg("Got series record")

	return &Metadata{Series: series, Episodes: episodes}, nil
}

// getDocument fetches and decodes an XML document, retrying transient failures.
// Every failure is reported as ErrUnavailable.
func (c *Client) getDocument(ctx context.Context, endpoint string) (*document, error) {
	attempts := c.config.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var doc *document
	err := retry.Do(
		func() error {
			d, err := c.fetch(ctx, endpoint)
			if err != nil {
				return err
			}
			doc = d
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn().
				Err(err).
				Uint("attempt", n+1).
				Int("maxAttempts", attempts).
				Msg("Catalog request failed, will retry")
		}),
	)
	if err != nil {
		c.logger.Error().Err(err).Str("url", redact(endpoint, c.config.APIKey)).Msg("Catalog request failed")
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return doc, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string) (*document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode}
	}

	doc, err := decodeDocument(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return doc, nil
}

// isTransient reports whether a failed request is worth repeating: network
// errors, 5xx and 429 responses. Decode failures and other statuses are final.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}

	var netErr net.Error
	var dnsErr *net.DNSError
	if errors.As(err, &netErr) || errors.As(err, &dnsErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"connection refused",
		"connection reset",
		"no such host",
		"network is unreachable",
		"i/o timeout",
	} {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "***")
}
