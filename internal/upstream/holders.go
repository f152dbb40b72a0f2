// Package upstream wraps the hosted services the cache core shields: the
// chain indexer that knows token holders, the profile document store, and
// the price feed. Each client owns its retry/backoff policy; the cache core
// only ever sees them through compute functions.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"go-holder-cache/internal/interfaces"
	"go-holder-cache/internal/models"
)

// ClientConfig tunes an upstream HTTP client.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	RetryMax   int
	HTTPClient *http.Client // optional; tests inject their own
}

// newHTTPClient builds a retrying HTTP client. Transient upstream errors are
// retried with backoff here so callers see only the final outcome.
func newHTTPClient(cfg ClientConfig) *http.Client {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil
	return rc.StandardClient()
}

// Ensure HTTPHolderIndex implements interfaces.HolderIndex
var _ interfaces.HolderIndex = (*HTTPHolderIndex)(nil)

// HTTPHolderIndex is the chain-indexer client.
type HTTPHolderIndex struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHolderIndex creates a holder index client.
func NewHolderIndex(cfg ClientConfig) *HTTPHolderIndex {
	return &HTTPHolderIndex{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  newHTTPClient(cfg),
	}
}

// TopHolders returns the top holders by balance.
func (h *HTTPHolderIndex) TopHolders(ctx context.Context, limit int) ([]models.Holder, error) {
	u := fmt.Sprintf("%s/holders?limit=%d", h.baseURL, limit)
	var out struct {
		Holders []models.Holder `json:"holders"`
	}
	if err := getJSON(ctx, h.client, u, h.apiKey, &out); err != nil {
		return nil, fmt.Errorf("holder index: %w", err)
	}
	return out.Holders, nil
}

// HolderByAddress returns one holder row, or models.ErrNotFound when the
// address holds no tokens.
func (h *HTTPHolderIndex) HolderByAddress(ctx context.Context, address string) (*models.Holder, error) {
	u := fmt.Sprintf("%s/holders/%s", h.baseURL, url.PathEscape(address))
	var out models.Holder
	if err := getJSON(ctx, h.client, u, h.apiKey, &out); err != nil {
		return nil, fmt.Errorf("holder index: %w", err)
	}
	return &out, nil
}

// getJSON performs a GET and decodes the JSON body. A 404 maps to
// models.ErrNotFound so callers can distinguish absence from failure.
func getJSON(ctx context.Context, client *http.Client, u, apiKey string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return models.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, u)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
