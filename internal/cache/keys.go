package cache

import (
	"errors"
	"strings"
)

// Namespaced cache keys. Each namespace carries its own TTL tuple, tuned to
// the volatility of its data.
const (
	NamespaceHolders = "holders"
	NamespaceHolder  = "holder"
	NamespaceProfile = "profile"
	NamespacePrice   = "price"
)

// HolderListKey is the single key for the assembled leaderboard.
func HolderListKey() string { return NamespaceHolders + ":list" }

// PriceKey is the single key for the token price.
func PriceKey() string { return NamespacePrice + ":token" }

// ProfileKey builds the cache key for a profile lookup. Usernames are
// case-insensitive in the profile store, so keys are normalized.
func ProfileKey(username string) (string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return "", errors.New("username cannot be empty")
	}
	return NamespaceProfile + ":" + username, nil
}

// WalletKey builds the cache key for a per-wallet lookup. Addresses are
// hex strings; normalized to lower case so checksummed and plain forms hit
// the same entry.
func WalletKey(address string) (string, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" {
		return "", errors.New("address cannot be empty")
	}
	return NamespaceHolder + ":" + address, nil
}

// Namespace extracts the namespace from a built key, for metrics labels.
func Namespace(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "unknown"
}
