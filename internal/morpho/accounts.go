package morpho

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Account discriminators, first 8 bytes of every program account.
var (
	Account_Protocol = accountDiscriminator("Protocol")
	Account_Market   = accountDiscriminator("Market")
	Account_Position = accountDiscriminator("Position")
)

// Protocol is the singleton protocol-state account: governance keys, pause
// flag, and the enabled LLTV/IRM whitelists consulted by create_market.
type Protocol struct {
	Bump         uint8
	Owner        solana.PublicKey
	PendingOwner solana.PublicKey
	FeeRecipient solana.PublicKey
	Paused       bool
	EnabledLltvs []uint64
	EnabledIrms  []solana.PublicKey
	MarketCount  uint64
}

// Market is the per-market state account. Asset/share totals are u128 on
// chain and decoded as bin.Uint128.
type Market struct {
	Bump               uint8
	Id                 MarketID
	CollateralMint     solana.PublicKey
	LoanMint           solana.PublicKey
	CollateralDecimals uint8
	LoanDecimals       uint8
	Oracle             solana.PublicKey
	Irm                solana.PublicKey
	Lltv               uint64
	Fee                uint64
	TotalSupplyAssets  bin.Uint128
	TotalSupplyShares  bin.Uint128
	TotalBorrowAssets  bin.Uint128
	TotalBorrowShares  bin.Uint128
	TotalCollateral    bin.Uint128
	LastUpdate         int64
	PendingFeeShares   bin.Uint128
	FlashLoanLocked    bool
	Paused             bool
}

// Position is the per-(market, owner) record.
type Position struct {
	Bump         uint8
	Owner        solana.PublicKey
	MarketId     MarketID
	SupplyShares bin.Uint128
	BorrowShares bin.Uint128
	Collateral   bin.Uint128
}

func checkDiscriminator(data []byte, want [8]byte, name string) ([]byte, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: %s payload too short", ErrInvalidAccountData, name)
	}
	if !bytes.Equal(data[:8], want[:]) {
		return nil, fmt.Errorf("%w: %s discriminator mismatch", ErrInvalidAccountData, name)
	}
	return data[8:], nil
}

func ParseAccount_Protocol(data []byte) (*Protocol, error) {
	payload, err := checkDiscriminator(data, Account_Protocol, "Protocol")
	if err != nil {
		return nil, err
	}
	decoder := bin.NewBorshDecoder(payload)

	var out Protocol
	if out.Bump, err = decoder.ReadUint8(); err != nil {
		return nil, fmt.Errorf("decode Protocol.bump: %w", err)
	}
	if out.Owner, err = readPublicKey(decoder); err != nil {
		return nil, fmt.Errorf("decode Protocol.owner: %w", err)
	}
	if out.PendingOwner, err = readPublicKey(decoder); err != nil {
		return nil, fmt.Errorf("decode Protocol.pending_owner: %w", err)
	}
	if out.FeeRecipient, err = readPublicKey(decoder); err != nil {
		return nil, fmt.Errorf("decode Protocol.fee_recipient: %w", err)
	}
	if out.Paused, err = decoder.ReadBool(); err != nil {
		return nil, fmt.Errorf("decode Protocol.paused: %w", err)
	}

	lltvCount, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("decode Protocol.enabled_lltvs length: %w", err)
	}
	out.EnabledLltvs = make([]uint64, 0, lltvCount)
	for i := uint32(0); i < lltvCount; i++ {
		value, err := decoder.ReadUint64(bin.LE)
		if err != nil {
			return nil, fmt.Errorf("decode Protocol.enabled_lltvs[%d]: %w", i, err)
		}
		out.EnabledLltvs = append(out.EnabledLltvs, value)
	}

	irmCount, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("decode Protocol.enabled_irms length: %w", err)
	}
	out.EnabledIrms = make([]solana.PublicKey, 0, irmCount)
	for i := uint32(0); i < irmCount; i++ {
		key, err := readPublicKey(decoder)
		if err != nil {
			return nil, fmt.Errorf("decode Protocol.enabled_irms[%d]: %w", i, err)
		}
		out.EnabledIrms = append(out.EnabledIrms, key)
	}

	if out.MarketCount, err = decoder.ReadUint64(bin.LE); err != nil {
		return nil, fmt.Errorf("decode Protocol.market_count: %w", err)
	}
	return &out, nil
}

func ParseAccount_Market(data []byte) (*Market, error) {
	payload, err := checkDiscriminator(data, Account_Market, "Market")
	if err != nil {
		return nil, err
	}
	decoder := bin.NewBorshDecoder(payload)

	var out Market
	if out.Bump, err = decoder.ReadUint8(); err != nil {
		return nil, fmt.Errorf("decode Market.bump: %w", err)
	}
	if out.Id, err = readMarketID(decoder); err != nil {
		return nil, fmt.Errorf("decode Market.id: %w", err)
	}
	if out.CollateralMint, err = readPublicKey(decoder); err != nil {
		return nil, fmt.Errorf("decode Market.collateral_mint: %w", err)
	}
	if out.LoanMint, err = readPublicKey(decoder); err != nil {
		return nil, fmt.Errorf("decode Market.loan_mint: %w", err)
	}
	if out.CollateralDecimals, err = decoder.ReadUint8(); err != nil {
		return nil, fmt.Errorf("decode Market.collateral_decimals: %w", err)
	}
	if out.LoanDecimals, err = decoder.ReadUint8(); err != nil {
		return nil, fmt.Errorf("decode Market.loan_decimals: %w", err)
	}
	if out.Oracle, err = readPublicKey(decoder); err != nil {
		return nil, fmt.Errorf("decode Market.oracle: %w", err)
	}
	if out.Irm, err = readPublicKey(decoder); err != nil {
		return nil, fmt.Errorf("decode Market.irm: %w", err)
	}
	if out.Lltv, err = decoder.ReadUint64(bin.LE); err != nil {
		return nil, fmt.Errorf("decode Market.lltv: %w", err)
	}
	if out.Fee, err = decoder.ReadUint64(bin.LE); err != nil {
		return nil, fmt.Errorf("decode Market.fee: %w", err)
	}
	if out.TotalSupplyAssets, err = decoder.ReadUint128(bin.LE); err != nil {
		return nil, fmt.Errorf("decode Market.total_supply_assets: %w", err)
	}
	if out.TotalSupplyShares, err = decoder.ReadUint128(bin.LE); err != nil {
		return nil, fmt.Errorf("decode Market.total_supply_shares: %w", err)
	}
	if out.TotalBorrowAssets, err = decoder.ReadUint128(bin.LE); err != nil {
		return nil, fmt.Errorf("decode Market.total_borrow_assets: %w", err)
	}
	if out.TotalBorrowShares, err = decoder.ReadUint128(bin.LE); err != nil {
		return nil, fmt.Errorf("decode Market.total_borrow_shares: %w", err)
	}
	if out.TotalCollateral, err = decoder.ReadUint128(bin.LE); err != nil {
		return nil, fmt.Errorf("decode Market.total_collateral: %w", err)
	}
	if out.LastUpdate, err = decoder.ReadInt64(bin.LE); err != nil {
		return nil, fmt.Errorf("decode Market.last_update: %w", err)
	}
	if out.PendingFeeShares, err = decoder.ReadUint128(bin.LE); err != nil {
		return nil, fmt.Errorf("decode Market.pending_fee_shares: %w", err)
	}
	if out.FlashLoanLocked, err = decoder.ReadBool(); err != nil {
		return nil, fmt.Errorf("decode Market.flash_loan_locked: %w", err)
	}
	if out.Paused, err = decoder.ReadBool(); err != nil {
		return nil, fmt.Errorf("decode Market.paused: %w", err)
	}
	return &out, nil
}

func ParseAccount_Position(data []byte) (*Position, error) {
	payload, err := checkDiscriminator(data, Account_Position, "Position")
	if err != nil {
		return nil, err
	}
	decoder := bin.NewBorshDecoder(payload)

	var out Position
	if out.Bump, err = decoder.ReadUint8(); err != nil {
		return nil, fmt.Errorf("decode Position.bump: %w", err)
	}
	if out.Owner, err = readPublicKey(decoder); err != nil {
		return nil, fmt.Errorf("decode Position.owner: %w", err)
	}
	if out.MarketId, err = readMarketID(decoder); err != nil {
		return nil, fmt.Errorf("decode Position.market_id: %w", err)
	}
	if out.SupplyShares, err = decoder.ReadUint128(bin.LE); err != nil {
		return nil, fmt.Errorf("decode Position.supply_shares: %w", err)
	}
	if out.BorrowShares, err = decoder.ReadUint128(bin.LE); err != nil {
		return nil, fmt.Errorf("decode Position.borrow_shares: %w", err)
	}
	if out.Collateral, err = decoder.ReadUint128(bin.LE); err != nil {
		return nil, fmt.Errorf("decode Position.collateral: %w", err)
	}
	return &out, nil
}

func readPublicKey(decoder *bin.Decoder) (solana.PublicKey, error) {
	raw, err := decoder.ReadBytes(32)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(raw), nil
}

func readMarketID(decoder *bin.Decoder) (MarketID, error) {
	raw, err := decoder.ReadBytes(32)
	if err != nil {
		return MarketID{}, err
	}
	var id MarketID
	copy(id[:], raw)
	return id, nil
}
