package readmodel

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/yashhsm/morpho-on-solana/internal/client"
	"github.com/yashhsm/morpho-on-solana/internal/config"
	"github.com/yashhsm/morpho-on-solana/internal/morpho"
)

type fakeReader struct {
	protocol  *morpho.Protocol
	markets   []client.MarketEntry
	positions []client.PositionEntry
	prices    map[solana.PublicKey]*big.Int

	protocolCalls int
	marketCalls   int
	positionCalls int
}

func (f *fakeReader) FetchProtocol(context.Context) (*morpho.Protocol, error) {
	f.protocolCalls++
	return f.protocol, nil
}

func (f *fakeReader) FetchAllMarkets(context.Context) ([]client.MarketEntry, error) {
	f.marketCalls++
	return f.markets, nil
}

func (f *fakeReader) FetchPositionsByOwner(context.Context, solana.PublicKey) ([]client.PositionEntry, error) {
	f.positionCalls++
	return f.positions, nil
}

func (f *fakeReader) FetchOraclePrices(context.Context, []solana.PublicKey) (map[solana.PublicKey]*big.Int, error) {
	return f.prices, nil
}

func fixedKey(b byte) solana.PublicKey {
	var raw [32]byte
	for i := range raw {
		raw[i] = b
	}
	return solana.PublicKeyFromBytes(raw[:])
}

func u128(lo uint64) bin.Uint128 {
	return bin.Uint128{Lo: lo}
}

func newFixtureReader() (*fakeReader, morpho.MarketID, solana.PublicKey) {
	oracle := fixedKey(0x33)
	id := morpho.ComputeMarketID(fixedKey(0x11), fixedKey(0x22), oracle, fixedKey(0x44), 8600)
	owner := fixedKey(0x55)

	market := &morpho.Market{
		Id:                 id,
		CollateralMint:     fixedKey(0x11),
		LoanMint:           fixedKey(0x22),
		CollateralDecimals: 9,
		LoanDecimals:       6,
		Oracle:             oracle,
		Irm:                fixedKey(0x44),
		Lltv:               8600,
		Fee:                100,
		TotalSupplyAssets:  u128(4_000_000_000),
		TotalSupplyShares:  u128(4_000_000_000),
		TotalBorrowAssets:  u128(2_000_000_000),
		TotalBorrowShares:  u128(1000),
		TotalCollateral:    u128(10_000_000_000),
		LastUpdate:         1_756_400_000,
	}
	position := &morpho.Position{
		Owner:        owner,
		MarketId:     id,
		SupplyShares: u128(0),
		BorrowShares: u128(500),
		Collateral:   u128(2_000_000_000),
	}

	// Price of exactly one loan base unit per collateral base unit.
	price := new(big.Int).Set(morpho.OracleScale)

	return &fakeReader{
		protocol: &morpho.Protocol{
			Owner:        fixedKey(0x01),
			FeeRecipient: fixedKey(0x02),
			EnabledLltvs: []uint64{8600},
			MarketCount:  1,
		},
		markets:   []client.MarketEntry{{Address: fixedKey(0x77), Market: market}},
		positions: []client.PositionEntry{{Address: fixedKey(0x88), Position: position}},
		prices:    map[solana.PublicKey]*big.Int{oracle: price},
	}, id, owner
}

func newTestService(reader chainReader, staleness time.Duration) *Service {
	return New(reader, config.ReadModelConfig{
		Staleness:       staleness,
		RefetchInterval: time.Hour,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestProtocolIsServedFromCacheWithinStaleness(t *testing.T) {
	reader, _, _ := newFixtureReader()
	service := newTestService(reader, time.Minute)

	first, err := service.Protocol(context.Background())
	require.NoError(t, err)
	second, err := service.Protocol(context.Background())
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, reader.protocolCalls, "second read must hit the cache")
}

func TestProtocolRefetchesAfterStaleness(t *testing.T) {
	reader, _, _ := newFixtureReader()
	service := newTestService(reader, 20*time.Millisecond)

	_, err := service.Protocol(context.Background())
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	_, err = service.Protocol(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, reader.protocolCalls)
}

func TestMarketView(t *testing.T) {
	reader, id, _ := newFixtureReader()
	service := newTestService(reader, time.Minute)

	markets, err := service.Markets(context.Background())
	require.NoError(t, err)
	require.Len(t, markets, 1)

	view := markets[0]
	require.Equal(t, id.String(), view.ID)
	require.Equal(t, uint64(8600), view.LltvBps)
	require.Equal(t, "4000", view.TotalSupplyAssets)
	require.Equal(t, "2000", view.TotalBorrowAssets)
	require.Equal(t, "10", view.TotalCollateral)
	require.Equal(t, "50%", view.Utilization)
	require.NotEmpty(t, view.OraclePrice)
}

func TestPositionViewHealthFactor(t *testing.T) {
	reader, id, owner := newFixtureReader()
	service := newTestService(reader, time.Minute)

	positions, err := service.Positions(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, positions, 1)

	view := positions[0]
	require.Equal(t, id.String(), view.MarketID)
	require.Equal(t, "500", view.BorrowShares)
	require.Equal(t, "2", view.Collateral)
	// 500 of 1000 shares against 2000 borrowed assets.
	require.Equal(t, "1000", view.BorrowedAssets)
	// collateral value 2000 loan units, lltv 86%, borrowed 1000.
	require.Equal(t, "1.72", view.HealthFactor)
}

func TestPositionViewWithoutDebtHasNoHealthFactor(t *testing.T) {
	reader, _, owner := newFixtureReader()
	reader.positions[0].Position.BorrowShares = u128(0)
	service := newTestService(reader, time.Minute)

	positions, err := service.Positions(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	require.Empty(t, positions[0].HealthFactor)
}
