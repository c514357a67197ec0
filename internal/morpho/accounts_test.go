package morpho

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

// fixture assembles raw account bytes the way the program serializes them.
type fixture struct {
	buf bytes.Buffer
}

func newFixture(disc [8]byte) *fixture {
	f := new(fixture)
	f.buf.Write(disc[:])
	return f
}

func (f *fixture) u8(v uint8) *fixture   { f.buf.WriteByte(v); return f }
func (f *fixture) boolean(v bool) *fixture {
	if v {
		return f.u8(1)
	}
	return f.u8(0)
}
func (f *fixture) u32(v uint32) *fixture {
	f.buf.Write(binary.LittleEndian.AppendUint32(nil, v))
	return f
}
func (f *fixture) u64(v uint64) *fixture {
	f.buf.Write(binary.LittleEndian.AppendUint64(nil, v))
	return f
}
func (f *fixture) i64(v int64) *fixture { return f.u64(uint64(v)) }
func (f *fixture) u128(lo, hi uint64) *fixture {
	return f.u64(lo).u64(hi)
}
func (f *fixture) key(pk solana.PublicKey) *fixture {
	f.buf.Write(pk.Bytes())
	return f
}
func (f *fixture) bytes() []byte { return f.buf.Bytes() }

func TestParseAccount_Protocol(t *testing.T) {
	owner := repeatKey(0xaa)
	feeRecipient := repeatKey(0xbb)
	irm := repeatKey(0xcc)

	data := newFixture(Account_Protocol).
		u8(255).
		key(owner).
		key(solana.PublicKey{}).
		key(feeRecipient).
		boolean(false).
		u32(2).u64(8600).u64(9450).
		u32(1).key(irm).
		u64(3).
		bytes()

	protocol, err := ParseAccount_Protocol(data)
	require.NoError(t, err)
	require.Equal(t, uint8(255), protocol.Bump)
	require.Equal(t, owner, protocol.Owner)
	require.True(t, protocol.PendingOwner.IsZero())
	require.Equal(t, feeRecipient, protocol.FeeRecipient)
	require.False(t, protocol.Paused)
	require.Equal(t, []uint64{8600, 9450}, protocol.EnabledLltvs)
	require.Equal(t, []solana.PublicKey{irm}, protocol.EnabledIrms)
	require.Equal(t, uint64(3), protocol.MarketCount)
}

func TestParseAccount_Market(t *testing.T) {
	collateralMint := repeatKey(0x11)
	loanMint := repeatKey(0x22)
	oracle := repeatKey(0x33)
	irm := repeatKey(0x44)
	id := ComputeMarketID(collateralMint, loanMint, oracle, irm, 8600)

	data := newFixture(Account_Market).
		u8(254).
		key(solana.PublicKeyFromBytes(id[:])).
		key(collateralMint).
		key(loanMint).
		u8(9).
		u8(6).
		key(oracle).
		key(irm).
		u64(8600).
		u64(100).
		u128(5_000_000, 0). // total_supply_assets
		u128(5_000_000, 0). // total_supply_shares
		u128(2_000_000, 0). // total_borrow_assets
		u128(1_900_000, 0). // total_borrow_shares
		u128(40_000_000, 0). // total_collateral
		i64(1_756_400_000).
		u128(123, 0). // pending_fee_shares
		boolean(false).
		boolean(true).
		bytes()

	market, err := ParseAccount_Market(data)
	require.NoError(t, err)
	require.Equal(t, uint8(254), market.Bump)
	require.Equal(t, id, market.Id)
	require.Equal(t, collateralMint, market.CollateralMint)
	require.Equal(t, loanMint, market.LoanMint)
	require.Equal(t, uint8(9), market.CollateralDecimals)
	require.Equal(t, uint8(6), market.LoanDecimals)
	require.Equal(t, oracle, market.Oracle)
	require.Equal(t, irm, market.Irm)
	require.Equal(t, uint64(8600), market.Lltv)
	require.Equal(t, uint64(100), market.Fee)
	require.Equal(t, uint64(5_000_000), market.TotalSupplyAssets.Lo)
	require.Equal(t, uint64(2_000_000), market.TotalBorrowAssets.Lo)
	require.Equal(t, uint64(1_900_000), market.TotalBorrowShares.Lo)
	require.Equal(t, uint64(40_000_000), market.TotalCollateral.Lo)
	require.Zero(t, market.TotalCollateral.Hi)
	require.Equal(t, int64(1_756_400_000), market.LastUpdate)
	require.Equal(t, uint64(123), market.PendingFeeShares.Lo)
	require.False(t, market.FlashLoanLocked)
	require.True(t, market.Paused)
}

func TestParseAccount_Position(t *testing.T) {
	owner := repeatKey(0x55)
	id := ComputeMarketID(repeatKey(0x11), repeatKey(0x22), repeatKey(0x33), repeatKey(0x44), 8600)

	data := newFixture(Account_Position).
		u8(253).
		key(owner).
		key(solana.PublicKeyFromBytes(id[:])).
		u128(100_000_000, 0).
		u128(0, 0).
		u128(750_000, 0).
		bytes()

	position, err := ParseAccount_Position(data)
	require.NoError(t, err)
	require.Equal(t, uint8(253), position.Bump)
	require.Equal(t, owner, position.Owner)
	require.Equal(t, id, position.MarketId)
	require.Equal(t, uint64(100_000_000), position.SupplyShares.Lo)
	require.Zero(t, position.BorrowShares.Lo)
	require.Equal(t, uint64(750_000), position.Collateral.Lo)
}

func TestParseRejectsBadPayloads(t *testing.T) {
	t.Run("short data", func(t *testing.T) {
		_, err := ParseAccount_Market([]byte{1, 2, 3})
		require.ErrorIs(t, err, ErrInvalidAccountData)
	})

	t.Run("wrong discriminator", func(t *testing.T) {
		data := newFixture(Account_Position).u8(1).bytes()
		_, err := ParseAccount_Market(data)
		require.ErrorIs(t, err, ErrInvalidAccountData)
	})

	t.Run("truncated body", func(t *testing.T) {
		data := newFixture(Account_Position).u8(1).key(repeatKey(0x55)).bytes()
		_, err := ParseAccount_Position(data)
		require.Error(t, err)
	})
}
