package models

// Holder is a raw token holder row from the chain indexer.
type Holder struct {
	Address string  `json:"address"`
	Balance float64 `json:"balance"`
}

// Profile is a social profile document keyed by username, optionally linked
// to a wallet address.
type Profile struct {
	Username  string `json:"username"`
	Address   string `json:"address,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Bio       string `json:"bio,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
}

// PricePoint is a token price observation.
type PricePoint struct {
	USD       float64 `json:"usd"`
	Change24h float64 `json:"change_24h"`
}

// RankedHolder is a holder row enriched with profile data for the leaderboard.
type RankedHolder struct {
	Rank    int      `json:"rank"`
	Address string   `json:"address"`
	Balance float64  `json:"balance"`
	Profile *Profile `json:"profile,omitempty"`
}

// HolderList is the assembled leaderboard payload.
type HolderList struct {
	Holders   []RankedHolder `json:"holders"`
	Price     *PricePoint    `json:"price,omitempty"`
	UpdatedAt int64          `json:"updated_at"` // unix ms
}

// WalletDetail is the per-wallet lookup payload.
type WalletDetail struct {
	Address string   `json:"address"`
	Balance float64  `json:"balance"`
	Rank    int      `json:"rank,omitempty"`
	Profile *Profile `json:"profile,omitempty"`
}
