package readmodel

import (
	"math/big"

	"github.com/yashhsm/morpho-on-solana/internal/amount"
	"github.com/yashhsm/morpho-on-solana/internal/client"
	"github.com/yashhsm/morpho-on-solana/internal/morpho"
)

type ProtocolView struct {
	Owner        string   `json:"owner"`
	PendingOwner string   `json:"pending_owner,omitempty"`
	FeeRecipient string   `json:"fee_recipient"`
	Paused       bool     `json:"paused"`
	EnabledLltvs []uint64 `json:"enabled_lltvs"`
	EnabledIrms  []string `json:"enabled_irms"`
	MarketCount  uint64   `json:"market_count"`
}

func newProtocolView(protocol *morpho.Protocol) ProtocolView {
	view := ProtocolView{
		Owner:        protocol.Owner.String(),
		FeeRecipient: protocol.FeeRecipient.String(),
		Paused:       protocol.Paused,
		EnabledLltvs: protocol.EnabledLltvs,
		MarketCount:  protocol.MarketCount,
	}
	if !protocol.PendingOwner.IsZero() {
		view.PendingOwner = protocol.PendingOwner.String()
	}
	view.EnabledIrms = make([]string, 0, len(protocol.EnabledIrms))
	for _, irm := range protocol.EnabledIrms {
		view.EnabledIrms = append(view.EnabledIrms, irm.String())
	}
	return view
}

type MarketView struct {
	Address            string `json:"address"`
	ID                 string `json:"id"`
	CollateralMint     string `json:"collateral_mint"`
	LoanMint           string `json:"loan_mint"`
	CollateralDecimals uint8  `json:"collateral_decimals"`
	LoanDecimals       uint8  `json:"loan_decimals"`
	Oracle             string `json:"oracle"`
	Irm                string `json:"irm"`
	LltvBps            uint64 `json:"lltv_bps"`
	FeeBps             uint64 `json:"fee_bps"`
	TotalSupplyAssets  string `json:"total_supply_assets"`
	TotalBorrowAssets  string `json:"total_borrow_assets"`
	TotalCollateral    string `json:"total_collateral"`
	Utilization        string `json:"utilization,omitempty"`
	OraclePrice        string `json:"oracle_price,omitempty"`
	LastUpdate         int64  `json:"last_update"`
	FlashLoanLocked    bool   `json:"flash_loan_locked"`
	Paused             bool   `json:"paused"`

	// Raw values carried for the position health approximation; not part of
	// the JSON shape.
	rawBorrowAssets *big.Int
	rawBorrowShares *big.Int
	rawOraclePrice  *big.Int
}

func newMarketView(entry client.MarketEntry, oraclePrice *big.Int) MarketView {
	market := entry.Market
	supplyAssets := market.TotalSupplyAssets.BigInt()
	borrowAssets := market.TotalBorrowAssets.BigInt()

	view := MarketView{
		Address:            entry.Address.String(),
		ID:                 market.Id.String(),
		CollateralMint:     market.CollateralMint.String(),
		LoanMint:           market.LoanMint.String(),
		CollateralDecimals: market.CollateralDecimals,
		LoanDecimals:       market.LoanDecimals,
		Oracle:             market.Oracle.String(),
		Irm:                market.Irm.String(),
		LltvBps:            market.Lltv,
		FeeBps:             market.Fee,
		TotalSupplyAssets:  amount.Format(supplyAssets, market.LoanDecimals),
		TotalBorrowAssets:  amount.Format(borrowAssets, market.LoanDecimals),
		TotalCollateral:    amount.Format(market.TotalCollateral.BigInt(), market.CollateralDecimals),
		LastUpdate:         market.LastUpdate,
		FlashLoanLocked:    market.FlashLoanLocked,
		Paused:             market.Paused,
		rawBorrowAssets:    borrowAssets,
		rawBorrowShares:    market.TotalBorrowShares.BigInt(),
		rawOraclePrice:     oraclePrice,
	}

	if supplyAssets.Sign() > 0 {
		// utilization = borrow/supply, rendered as a percentage with two
		// decimal places.
		scaled := mulDivFloor(borrowAssets, big.NewInt(10_000), supplyAssets)
		view.Utilization = amount.Format(scaled, 2) + "%"
	}
	if oraclePrice != nil {
		view.OraclePrice = oraclePrice.String()
	}
	return view
}

type PositionView struct {
	Address        string `json:"address"`
	MarketID       string `json:"market_id"`
	SupplyShares   string `json:"supply_shares"`
	BorrowShares   string `json:"borrow_shares"`
	Collateral     string `json:"collateral"`
	BorrowedAssets string `json:"borrowed_assets"`
	// HealthFactor is a client-side approximation for display only. The
	// authoritative health check happens on chain against the oracle; this
	// value must never gate an action.
	HealthFactor string `json:"health_factor,omitempty"`
}

func newPositionView(entry client.PositionEntry, market MarketView) PositionView {
	position := entry.Position
	borrowShares := position.BorrowShares.BigInt()
	borrowed := sharesToAssets(borrowShares, market.rawBorrowAssets, market.rawBorrowShares)

	view := PositionView{
		Address:        entry.Address.String(),
		MarketID:       position.MarketId.String(),
		SupplyShares:   position.SupplyShares.BigInt().String(),
		BorrowShares:   borrowShares.String(),
		Collateral:     amount.Format(position.Collateral.BigInt(), market.CollateralDecimals),
		BorrowedAssets: amount.Format(borrowed, market.LoanDecimals),
	}
	view.HealthFactor = healthFactor(position.Collateral.BigInt(), borrowed, market)
	return view
}

// sharesToAssets converts borrow shares to assets at the market's current
// ratio, rounding down.
func sharesToAssets(shares, totalAssets, totalShares *big.Int) *big.Int {
	if shares.Sign() == 0 || totalShares.Sign() == 0 {
		return new(big.Int)
	}
	return mulDivFloor(shares, totalAssets, totalShares)
}

// healthFactor approximates collateral_value * lltv / borrowed, rendered
// with two decimal places. Empty when the position has no debt or no price
// is available.
func healthFactor(collateral, borrowed *big.Int, market MarketView) string {
	if borrowed.Sign() == 0 || market.rawOraclePrice == nil {
		return ""
	}

	collateralValue := mulDivFloor(collateral, market.rawOraclePrice, morpho.OracleScale)

	// Scale by 100 on top of the bps division to keep two decimal places.
	numerator := new(big.Int).Mul(collateralValue, new(big.Int).SetUint64(market.LltvBps))
	numerator.Mul(numerator, big.NewInt(100))
	denominator := new(big.Int).Mul(borrowed, big.NewInt(10_000))

	return amount.Format(new(big.Int).Quo(numerator, denominator), 2)
}

func mulDivFloor(value, numerator, denominator *big.Int) *big.Int {
	if denominator.Sign() == 0 {
		return new(big.Int)
	}
	out := new(big.Int).Mul(value, numerator)
	return out.Quo(out, denominator)
}
