package httpserver

import "encoding/json"

// PayloadResponse wraps a cached payload with its serving metadata.
// Polling clients use lastUpdated together with the /updates endpoints to
// decide whether a refetch is worth it.
type PayloadResponse struct {
	Success     bool            `json:"success"`
	Cached      bool            `json:"cached"`
	CacheAge    int             `json:"cacheAge"` // seconds
	Stale       bool            `json:"stale"`
	LastUpdated string          `json:"lastUpdated,omitempty"` // RFC3339
	Data        json.RawMessage `json:"data,omitempty"`
}

// UpdatesResponse answers "has anything changed since my timestamp".
type UpdatesResponse struct {
	Success     bool   `json:"success"`
	HasUpdates  bool   `json:"hasUpdates"`
	LastUpdated string `json:"lastUpdated,omitempty"` // RFC3339
}

// InvalidateRequest is the admin force-eviction request.
type InvalidateRequest struct {
	Key string `json:"key"`
}

// InvalidateResponse reports whether anything was evicted.
type InvalidateResponse struct {
	Success bool `json:"success"`
	Removed bool `json:"removed"`
}

// TaskResponse exposes refresh task state on the ops surface.
type TaskResponse struct {
	Success    bool   `json:"success"`
	Found      bool   `json:"found"`
	Key        string `json:"key,omitempty"`
	State      string `json:"state,omitempty"`
	StartedAt  string `json:"startedAt,omitempty"`
	FinishedAt string `json:"finishedAt,omitempty"`
}
