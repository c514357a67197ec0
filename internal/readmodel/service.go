// Package readmodel serves the console's query side: protocol state, the
// market list, and per-owner positions, cached with a fixed staleness window
// and refreshed in the background. Submission paths never read from here;
// they always take fresh reads.
package readmodel

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	gocache "github.com/patrickmn/go-cache"

	"github.com/yashhsm/morpho-on-solana/internal/client"
	"github.com/yashhsm/morpho-on-solana/internal/config"
	"github.com/yashhsm/morpho-on-solana/internal/morpho"
)

const (
	keyProtocol       = "protocol"
	keyMarkets        = "markets"
	positionKeyPrefix = "positions:"
)

// chainReader is the read surface the cache sits in front of.
type chainReader interface {
	FetchProtocol(ctx context.Context) (*morpho.Protocol, error)
	FetchAllMarkets(ctx context.Context) ([]client.MarketEntry, error)
	FetchPositionsByOwner(ctx context.Context, owner solana.PublicKey) ([]client.PositionEntry, error)
	FetchOraclePrices(ctx context.Context, oracles []solana.PublicKey) (map[solana.PublicKey]*big.Int, error)
}

type Service struct {
	reader chainReader
	cache  *gocache.Cache
	cfg    config.ReadModelConfig
	logger *slog.Logger
}

func New(reader chainReader, cfg config.ReadModelConfig, logger *slog.Logger) *Service {
	return &Service{
		reader: reader,
		cache:  gocache.New(cfg.Staleness, 10*time.Minute),
		cfg:    cfg,
		logger: logger,
	}
}

// Run refreshes the shared views on the refetch interval until the context
// ends. Per-owner position views refresh lazily on request instead; the
// owner set is unbounded.
func (s *Service) Run(ctx context.Context) error {
	s.refreshShared(ctx)

	ticker := time.NewTicker(s.cfg.RefetchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("read model stopped")
			return nil
		case <-ticker.C:
			s.refreshShared(ctx)
		}
	}
}

func (s *Service) refreshShared(ctx context.Context) {
	if _, err := s.fetchProtocol(ctx); err != nil {
		s.logger.Warn("protocol refresh failed", "err", err)
	}
	if _, err := s.fetchMarkets(ctx); err != nil {
		s.logger.Warn("market list refresh failed", "err", err)
	}
}

// Protocol returns the cached protocol view, fetching on a stale or cold
// cache.
func (s *Service) Protocol(ctx context.Context) (ProtocolView, error) {
	if cached, ok := s.cache.Get(keyProtocol); ok {
		return cached.(ProtocolView), nil
	}
	return s.fetchProtocol(ctx)
}

func (s *Service) Markets(ctx context.Context) ([]MarketView, error) {
	if cached, ok := s.cache.Get(keyMarkets); ok {
		return cached.([]MarketView), nil
	}
	return s.fetchMarkets(ctx)
}

func (s *Service) Positions(ctx context.Context, owner solana.PublicKey) ([]PositionView, error) {
	key := positionKeyPrefix + owner.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]PositionView), nil
	}
	return s.fetchPositions(ctx, owner)
}

func (s *Service) fetchProtocol(ctx context.Context) (ProtocolView, error) {
	protocol, err := s.reader.FetchProtocol(ctx)
	if err != nil {
		return ProtocolView{}, fmt.Errorf("read protocol: %w", err)
	}
	view := newProtocolView(protocol)
	s.cache.Set(keyProtocol, view, gocache.DefaultExpiration)
	return view, nil
}

func (s *Service) fetchMarkets(ctx context.Context) ([]MarketView, error) {
	entries, err := s.reader.FetchAllMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("read markets: %w", err)
	}

	oracles := make([]solana.PublicKey, 0, len(entries))
	for _, entry := range entries {
		oracles = append(oracles, entry.Market.Oracle)
	}
	prices, err := s.reader.FetchOraclePrices(ctx, oracles)
	if err != nil {
		// Markets are still listable without prices.
		s.logger.Warn("oracle price fetch failed", "err", err)
		prices = nil
	}

	views := make([]MarketView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, newMarketView(entry, prices[entry.Market.Oracle]))
	}
	s.cache.Set(keyMarkets, views, gocache.DefaultExpiration)
	return views, nil
}

func (s *Service) fetchPositions(ctx context.Context, owner solana.PublicKey) ([]PositionView, error) {
	entries, err := s.reader.FetchPositionsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("read positions for %s: %w", owner, err)
	}

	// Health factors need the owning markets and their oracle prices.
	markets, err := s.Markets(ctx)
	if err != nil {
		return nil, err
	}
	marketsByID := make(map[string]MarketView, len(markets))
	for _, view := range markets {
		marketsByID[view.ID] = view
	}

	views := make([]PositionView, 0, len(entries))
	for _, entry := range entries {
		market, ok := marketsByID[entry.Position.MarketId.String()]
		if !ok {
			s.logger.Warn("position references unknown market", "position", entry.Address, "market_id", entry.Position.MarketId)
			continue
		}
		views = append(views, newPositionView(entry, market))
	}

	s.cache.Set(positionKeyPrefix+owner.String(), views, gocache.DefaultExpiration)
	return views, nil
}
