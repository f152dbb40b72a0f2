// Package leaderboard assembles the token-holder leaderboard and per-entity
// payloads from the upstream services. Its build methods are the compute
// functions handed to the refresh coordinator.
package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"go-holder-cache/internal/interfaces"
	"go-holder-cache/internal/models"
)

// Service composes holder, profile, and price upstreams into cacheable
// payloads.
type Service struct {
	holders   interfaces.HolderIndex
	profiles  interfaces.ProfileStore
	price     interfaces.PriceSource
	clock     clock.Clock
	logger    *zap.Logger
	listLimit int
}

// NewService creates a leaderboard assembly service.
func NewService(holders interfaces.HolderIndex, profiles interfaces.ProfileStore, price interfaces.PriceSource, listLimit int, clk clock.Clock, logger *zap.Logger) *Service {
	return &Service{
		holders:   holders,
		profiles:  profiles,
		price:     price,
		clock:     clk,
		logger:    logger,
		listLimit: listLimit,
	}
}

// BuildHolderList fetches the top holders, enriches them with profile data
// and the current price, and returns the serialized leaderboard. A profile
// or price failure degrades the payload instead of failing it: the list
// itself is the product, the enrichment is garnish.
func (s *Service) BuildHolderList(ctx context.Context) ([]byte, error) {
	holders, err := s.holders.TopHolders(ctx, s.listLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch holders: %w", err)
	}

	sort.SliceStable(holders, func(i, j int) bool {
		return holders[i].Balance > holders[j].Balance
	})

	addresses := make([]string, len(holders))
	for i, h := range holders {
		addresses[i] = strings.ToLower(h.Address)
	}

	profileMap, err := s.profiles.ProfilesByAddress(ctx, addresses)
	if err != nil {
		s.logger.Warn("Profile enrichment failed, serving bare holder list", zap.Error(err))
		profileMap = nil
	}

	pricePoint, err := s.price.TokenPrice(ctx)
	if err != nil {
		s.logger.Warn("Price lookup failed, serving list without price", zap.Error(err))
		pricePoint = nil
	}

	ranked := make([]models.RankedHolder, len(holders))
	for i, h := range holders {
		ranked[i] = models.RankedHolder{
			Rank:    i + 1,
			Address: h.Address,
			Balance: h.Balance,
		}
		if prof, ok := profileMap[strings.ToLower(h.Address)]; ok {
			p := prof
			ranked[i].Profile = &p
		}
	}

	list := models.HolderList{
		Holders:   ranked,
		Price:     pricePoint,
		UpdatedAt: s.clock.Now().UnixMilli(),
	}
	return json.Marshal(list)
}

// BuildProfile fetches one profile payload. models.ErrNotFound passes
// through so the cache layer can store a negative entry.
func (s *Service) BuildProfile(ctx context.Context, username string) ([]byte, error) {
	prof, err := s.profiles.ProfileByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("fetch profile %q: %w", username, err)
	}
	return json.Marshal(prof)
}

// BuildWalletDetail fetches one wallet's holdings and linked profile.
func (s *Service) BuildWalletDetail(ctx context.Context, address string) ([]byte, error) {
	holder, err := s.holders.HolderByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("fetch wallet %q: %w", address, err)
	}

	detail := models.WalletDetail{
		Address: holder.Address,
		Balance: holder.Balance,
	}

	profileMap, err := s.profiles.ProfilesByAddress(ctx, []string{strings.ToLower(address)})
	if err != nil {
		s.logger.Warn("Wallet profile enrichment failed", zap.String("address", address), zap.Error(err))
	} else if prof, ok := profileMap[strings.ToLower(address)]; ok {
		p := prof
		detail.Profile = &p
	}

	return json.Marshal(detail)
}

// EmptyHolderList is the emergency payload served when no holder list was
// ever cached and the upstream is down: a user-facing list degrades to
// empty, it does not hard-fail.
func (s *Service) EmptyHolderList() []byte {
	list := models.HolderList{
		Holders:   []models.RankedHolder{},
		UpdatedAt: s.clock.Now().UnixMilli(),
	}
	data, _ := json.Marshal(list)
	return data
}
