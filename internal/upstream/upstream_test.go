package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-holder-cache/internal/models"
)

func TestHolderIndex_TopHolders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/holders", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"holders": []models.Holder{
				{Address: "0xaaa", Balance: 100},
				{Address: "0xbbb", Balance: 50},
			},
		})
	}))
	defer server.Close()

	index := NewHolderIndex(ClientConfig{BaseURL: server.URL, APIKey: "secret", HTTPClient: server.Client()})

	holders, err := index.TopHolders(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, holders, 2)
	assert.Equal(t, "0xaaa", holders[0].Address)
	assert.Equal(t, 100.0, holders[0].Balance)
}

func TestHolderIndex_HolderByAddress_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	index := NewHolderIndex(ClientConfig{BaseURL: server.URL, HTTPClient: server.Client()})

	_, err := index.HolderByAddress(context.Background(), "0xdead")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestHolderIndex_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	index := NewHolderIndex(ClientConfig{BaseURL: server.URL, HTTPClient: server.Client()})

	_, err := index.TopHolders(context.Background(), 10)
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrNotFound)
}

func TestProfileStore_ProfilesByAddress_Chunking(t *testing.T) {
	var batches int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/profiles/batch", r.URL.Path)
		atomic.AddInt32(&batches, 1)

		var req struct {
			Addresses []string `json:"addresses"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.LessOrEqual(t, len(req.Addresses), batchChunkSize)

		profiles := make([]models.Profile, 0, len(req.Addresses))
		for _, addr := range req.Addresses {
			profiles = append(profiles, models.Profile{Username: "u-" + addr, Address: addr})
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"profiles": profiles})
	}))
	defer server.Close()

	store := NewProfileStore(ClientConfig{BaseURL: server.URL, HTTPClient: server.Client()})

	addresses := make([]string, 75)
	for i := range addresses {
		addresses[i] = fmt.Sprintf("0x%03d", i)
	}

	result, err := store.ProfilesByAddress(context.Background(), addresses)
	require.NoError(t, err)
	assert.Len(t, result, 75)
	assert.Equal(t, int32(3), atomic.LoadInt32(&batches))
	assert.Equal(t, "u-0x007", result["0x007"].Username)
}

func TestProfileStore_ProfilesByAddress_NormalizesCase(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"profiles": []models.Profile{{Username: "alice", Address: "0xABCDEF"}},
		})
	}))
	defer server.Close()

	store := NewProfileStore(ClientConfig{BaseURL: server.URL, HTTPClient: server.Client()})

	result, err := store.ProfilesByAddress(context.Background(), []string{"0xabcdef"})
	require.NoError(t, err)
	assert.Contains(t, result, "0xabcdef")
}

func TestProfileStore_ProfileByUsername_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	store := NewProfileStore(ClientConfig{BaseURL: server.URL, HTTPClient: server.Client()})

	_, err := store.ProfileByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestProfileStore_ProfileByUsername(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/profiles/alice", r.URL.Path)
		_ = json.NewEncoder(w).Encode(models.Profile{Username: "alice", Address: "0xaaa", Bio: "gm"})
	}))
	defer server.Close()

	store := NewProfileStore(ClientConfig{BaseURL: server.URL, HTTPClient: server.Client()})

	profile, err := store.ProfileByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "gm", profile.Bio)
}

func TestPriceSource_TokenPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/price", r.URL.Path)
		_ = json.NewEncoder(w).Encode(models.PricePoint{USD: 1.23, Change24h: -4.5})
	}))
	defer server.Close()

	source := NewPriceSource(ClientConfig{BaseURL: server.URL, HTTPClient: server.Client()})

	price, err := source.TokenPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.23, price.USD)
	assert.Equal(t, -4.5, price.Change24h)
}
