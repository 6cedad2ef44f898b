// Package oscar queries the WMO OSCAR/Surface station search API.
package oscar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/couchcryptid/synop-ingest/internal/domain"
)

const defaultMaxRetries = 3

// Client implements stations.Catalog against the OSCAR/Surface REST API.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	logger        *slog.Logger
	maxRetries    uint64
	retryInterval time.Duration
}

// NewClient creates a station search client for baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:        logger,
		maxRetries:    defaultMaxRetries,
		retryInterval: time.Second,
	}
}

// Stations returns every catalog station of a territory. Network errors and
// 5xx or 429 responses are retried with exponential backoff.
func (c *Client) Stations(ctx context.Context, territory string) ([]domain.CatalogStation, error) {
	params := url.Values{"territoryName": {territory}}
	fullURL := c.baseURL + "?" + params.Encode()

	var resp searchResponse
	operation := func() error {
		r, err := c.fetch(ctx, fullURL)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("station search failed, retrying", "territory", territory, "error", err, "retry_in", wait)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval
	if err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx), notify); err != nil {
		return nil, fmt.Errorf("search stations of %s: %w", territory, err)
	}

	out := make([]domain.CatalogStation, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, fullURL string) (searchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return searchResponse{}, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return searchResponse{}, fmt.Errorf("station search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("oscar API error: status %d: %s", resp.StatusCode, body)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return searchResponse{}, err
		}
		return searchResponse{}, backoff.Permanent(err)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return searchResponse{}, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return sr, nil
}

// OSCAR API response types.

type searchResponse struct {
	Results []stationResult `json:"stationSearchResults"`
}

type stationResult struct {
	WIGOSID     string             `json:"wigosId"`
	Name        string             `json:"name"`
	Territory   *string            `json:"territory"`
	Latitude    *float64           `json:"latitude"`
	Longitude   *float64           `json:"longitude"`
	Elevation   *float64           `json:"elevation"`
	Identifiers []identifierResult `json:"wigosStationIdentifiers"`
}

type identifierResult struct {
	ID      string `json:"wigosStationIdentifier"`
	Primary bool   `json:"primary"`
}

func (r stationResult) toDomain() domain.CatalogStation {
	st := domain.CatalogStation{
		WIGOSID:   r.WIGOSID,
		Name:      r.Name,
		Territory: r.Territory,
		Longitude: r.Longitude,
		Latitude:  r.Latitude,
		Elevation: r.Elevation,
	}
	for _, id := range r.Identifiers {
		st.Identifiers = append(st.Identifiers, domain.CatalogIdentifier{ID: id.ID, Primary: id.Primary})
	}
	return st
}
