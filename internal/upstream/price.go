package upstream

import (
	"context"
	"fmt"
	"net/http"

	"go-holder-cache/internal/interfaces"
	"go-holder-cache/internal/models"
)

// Ensure HTTPPriceSource implements interfaces.PriceSource
var _ interfaces.PriceSource = (*HTTPPriceSource)(nil)

// HTTPPriceSource is the token price feed client.
type HTTPPriceSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewPriceSource creates a price feed client.
func NewPriceSource(cfg ClientConfig) *HTTPPriceSource {
	return &HTTPPriceSource{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  newHTTPClient(cfg),
	}
}

// TokenPrice returns the current token price.
func (p *HTTPPriceSource) TokenPrice(ctx context.Context) (*models.PricePoint, error) {
	var out models.PricePoint
	if err := getJSON(ctx, p.client, p.baseURL+"/price", p.apiKey, &out); err != nil {
		return nil, fmt.Errorf("price feed: %w", err)
	}
	return &out, nil
}
