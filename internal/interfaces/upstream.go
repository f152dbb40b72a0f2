package interfaces

import (
	"context"

	"go-holder-cache/internal/models"
)

// HolderIndex is the chain-indexer API that knows who holds the token.
type HolderIndex interface {
	TopHolders(ctx context.Context, limit int) ([]models.Holder, error)
	HolderByAddress(ctx context.Context, address string) (*models.Holder, error)
}

// ProfileStore is the social-profile document store. Batched lookups are the
// store's responsibility; callers pass the full id set and the implementation
// chunks requests as its backend requires.
type ProfileStore interface {
	ProfilesByAddress(ctx context.Context, addresses []string) (map[string]models.Profile, error)
	ProfileByUsername(ctx context.Context, username string) (*models.Profile, error)
}

// PriceSource provides the current token price.
type PriceSource interface {
	TokenPrice(ctx context.Context) (*models.PricePoint, error)
}
