package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go-holder-cache/internal/interfaces"
	"go-holder-cache/internal/models"
)

// batchChunkSize is the document store's limit on ids per batch query.
const batchChunkSize = 30

// Ensure HTTPProfileStore implements interfaces.ProfileStore
var _ interfaces.ProfileStore = (*HTTPProfileStore)(nil)

// HTTPProfileStore is the social-profile document store client. Batched
// lookups are chunked here; the cache core never sees chunking.
type HTTPProfileStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewProfileStore creates a profile store client.
func NewProfileStore(cfg ClientConfig) *HTTPProfileStore {
	return &HTTPProfileStore{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  newHTTPClient(cfg),
	}
}

// ProfilesByAddress fetches profiles for the given wallet addresses, in
// chunks of at most batchChunkSize. Addresses without a profile are simply
// absent from the result map.
func (p *HTTPProfileStore) ProfilesByAddress(ctx context.Context, addresses []string) (map[string]models.Profile, error) {
	result := make(map[string]models.Profile, len(addresses))
	for start := 0; start < len(addresses); start += batchChunkSize {
		end := start + batchChunkSize
		if end > len(addresses) {
			end = len(addresses)
		}
		profiles, err := p.fetchBatch(ctx, addresses[start:end])
		if err != nil {
			return nil, err
		}
		for _, prof := range profiles {
			if prof.Address != "" {
				result[strings.ToLower(prof.Address)] = prof
			}
		}
	}
	return result, nil
}

// ProfileByUsername returns one profile, or models.ErrNotFound when no such
// username exists.
func (p *HTTPProfileStore) ProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	u := fmt.Sprintf("%s/profiles/%s", p.baseURL, url.PathEscape(username))
	var out models.Profile
	if err := getJSON(ctx, p.client, u, p.apiKey, &out); err != nil {
		if err == models.ErrNotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("profile store: %w", err)
	}
	return &out, nil
}

func (p *HTTPProfileStore) fetchBatch(ctx context.Context, addresses []string) ([]models.Profile, error) {
	body, err := json.Marshal(map[string][]string{"addresses": addresses})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/profiles/batch", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("X-API-Key", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile store: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Profiles []models.Profile `json:"profiles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("profile store: %w", err)
	}
	return out.Profiles, nil
}
