package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"go-holder-cache/internal/cache"
	"go-holder-cache/internal/cache/service"
	"go-holder-cache/internal/interfaces"
	"go-holder-cache/internal/models"
)

// handleHolders serves the leaderboard. Stale data is served immediately
// while a background refresh runs; with no cached copy at all the client
// gets the emergency empty list rather than an error.
func (s *Server) handleHolders(w http.ResponseWriter, r *http.Request) {
	ns := s.namespaces.Holders
	result, err := s.cacheService.Lookup(r.Context(), cache.HolderListKey(), service.LookupOptions{
		TTL:         ns.TTLPair(),
		NegativeTTL: s.namespaces.NegativeTTL.Std(),
		Timeout:     ns.RefreshTimeout.Std(),
		AllowStale:  true,
		Scope:       interfaces.ScopeGlobal,
		Loader:      s.assembler.BuildHolderList,
		Emergency:   s.assembler.EmptyHolderList(),
	})
	if err != nil {
		s.respondLookupError(w, err)
		return
	}
	s.writePayload(w, r, result, interfaces.ScopeGlobal)
}

// handleHolderUpdates answers incremental pollers watching the whole list.
func (s *Server) handleHolderUpdates(w http.ResponseWriter, r *http.Request) {
	s.respondUpdates(w, r, interfaces.ScopeGlobal)
}

// handleProfile serves one profile, with negative caching for usernames
// that do not exist.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	key, err := cache.ProfileKey(username)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ns := s.namespaces.Profile
	result, err := s.cacheService.Lookup(r.Context(), key, service.LookupOptions{
		TTL:         ns.TTLPair(),
		NegativeTTL: s.namespaces.NegativeTTL.Std(),
		Timeout:     ns.RefreshTimeout.Std(),
		Scope:       key,
		Loader: func(ctx context.Context) ([]byte, error) {
			return s.assembler.BuildProfile(ctx, username)
		},
	})
	if err != nil {
		s.respondLookupError(w, err)
		return
	}
	s.writePayload(w, r, result, key)
}

// handleWallet serves one wallet's holdings and linked profile.
func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	key, err := cache.WalletKey(address)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	scope := strings.ToLower(strings.TrimSpace(address))

	ns := s.namespaces.Holder
	result, err := s.cacheService.Lookup(r.Context(), key, service.LookupOptions{
		TTL:         ns.TTLPair(),
		NegativeTTL: s.namespaces.NegativeTTL.Std(),
		Timeout:     ns.RefreshTimeout.Std(),
		Scope:       scope,
		Loader: func(ctx context.Context) ([]byte, error) {
			return s.assembler.BuildWalletDetail(ctx, address)
		},
	})
	if err != nil {
		s.respondLookupError(w, err)
		return
	}
	s.writePayload(w, r, result, scope)
}

// handleWalletUpdates answers pollers watching one wallet: they learn that
// their wallet changed without being told about unrelated global churn.
func (s *Server) handleWalletUpdates(w http.ResponseWriter, r *http.Request) {
	address := strings.ToLower(strings.TrimSpace(mux.Vars(r)["address"]))
	if address == "" {
		writeJSONError(w, "address cannot be empty", http.StatusBadRequest)
		return
	}
	s.respondUpdates(w, r, address)
}

// handleInvalidate force-evicts one key from every tier.
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	var req InvalidateRequest
	if err := s.parseRequest(r, &req); err != nil {
		writeJSONError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Key == "" {
		writeJSONError(w, "missing required field: key", http.StatusBadRequest)
		return
	}
	removed := s.cacheService.Invalidate(req.Key)
	s.writeResponse(w, &InvalidateResponse{Success: true, Removed: removed})
}

// handleClearAll force-evicts everything.
func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	s.cacheService.ClearAll()
	s.writeResponse(w, map[string]interface{}{"success": true})
}

// handleTask reports the most recent refresh task for a key.
func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeJSONError(w, "missing required parameter: key", http.StatusBadRequest)
		return
	}
	task, found := s.cacheService.TaskFor(key)
	resp := &TaskResponse{Success: true, Found: found}
	if found {
		resp.Key = task.Key
		resp.State = string(task.State)
		resp.StartedAt = task.StartedAt.UTC().Format(time.RFC3339Nano)
		if !task.FinishedAt.IsZero() {
			resp.FinishedAt = task.FinishedAt.UTC().Format(time.RFC3339Nano)
		}
	}
	s.writeResponse(w, resp)
}

// writePayload renders a lookup result with its serving metadata.
func (s *Server) writePayload(w http.ResponseWriter, r *http.Request, result *service.Result, scope string) {
	resp := &PayloadResponse{
		Success:  true,
		Cached:   result.Cached,
		CacheAge: int(result.Age.Seconds()),
		Stale:    result.Stale,
		Data:     result.Data,
	}
	if lastMod := s.cacheService.LastModified(r.Context(), scope); !lastMod.IsZero() {
		resp.LastUpdated = lastMod.UTC().Format(time.RFC3339)
	}
	s.writeResponse(w, resp)
}

// respondUpdates renders the cheap "has anything changed" answer for scope.
func (s *Server) respondUpdates(w http.ResponseWriter, r *http.Request, scope string) {
	sinceParam := r.URL.Query().Get("since")
	if sinceParam == "" {
		writeJSONError(w, "missing required parameter: since (unix ms)", http.StatusBadRequest)
		return
	}
	sinceMs, err := strconv.ParseInt(sinceParam, 10, 64)
	if err != nil {
		writeJSONError(w, "invalid since parameter, expected unix ms", http.StatusBadRequest)
		return
	}

	resp := &UpdatesResponse{
		Success:    true,
		HasUpdates: s.cacheService.HasUpdatesSince(r.Context(), scope, time.UnixMilli(sinceMs)),
	}
	if lastMod := s.cacheService.LastModified(r.Context(), scope); !lastMod.IsZero() {
		resp.LastUpdated = lastMod.UTC().Format(time.RFC3339)
	}
	s.writeResponse(w, resp)
}

// respondLookupError maps lookup failures to HTTP statuses: a missing entity
// is a 404, an exhausted cache with no emergency payload is a 503. Everything
// else in the lookup path degrades before erroring.
func (s *Server) respondLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeJSONError(w, "entity not found", http.StatusNotFound)
	case errors.Is(err, models.ErrNoUsableValue):
		writeJSONError(w, "upstream unavailable and no cached data", http.StatusServiceUnavailable)
	default:
		writeJSONError(w, "internal error", http.StatusInternalServerError)
	}
}

