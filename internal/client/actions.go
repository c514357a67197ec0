package client

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/yashhsm/morpho-on-solana/internal/amount"
	"github.com/yashhsm/morpho-on-solana/internal/morpho"
)

// Each action below is one user gesture in the console: fresh reads, an
// independent instruction list, one submission. Nothing is shared between
// concurrent actions, and validation failures never reach the network.

// Supply deposits loan assets into a market. assetsText is a human decimal
// in loan-asset units; sharesText is a raw share count. Exactly one of the
// two should be non-zero.
func (c *SigningClient) Supply(ctx context.Context, id morpho.MarketID, assetsText, sharesText string) (solana.Signature, error) {
	market, err := c.FetchMarket(ctx, id)
	if err != nil {
		return solana.Signature{}, err
	}
	assets, shares, err := parseAssetsShares(assetsText, sharesText, market.LoanDecimals)
	if err != nil {
		return solana.Signature{}, err
	}

	owner := c.signer.PublicKey()
	tokenAccount, err := c.ResolveTokenAccount(ctx, market.LoanMint, owner, owner)
	if err != nil {
		return solana.Signature{}, err
	}
	position, err := c.EnsurePosition(ctx, id, owner)
	if err != nil {
		return solana.Signature{}, err
	}
	addrs, err := marketAddresses(id)
	if err != nil {
		return solana.Signature{}, err
	}

	supplyIx, err := morpho.NewSupplyInstruction(
		assets, shares,
		owner, addrs.protocol, addrs.market, position.Address,
		tokenAccount.Address, addrs.loanVault, market.LoanMint, tokenAccount.TokenProgram,
	)
	if err != nil {
		return solana.Signature{}, err
	}

	return c.Submit(ctx, []solana.Instruction{
		tokenAccount.CreateInstruction,
		position.CreateInstruction,
		supplyIx,
	})
}

// Withdraw redeems supplied loan assets back to the caller's token account.
func (c *SigningClient) Withdraw(ctx context.Context, id morpho.MarketID, assetsText, sharesText string) (solana.Signature, error) {
	market, err := c.FetchMarket(ctx, id)
	if err != nil {
		return solana.Signature{}, err
	}
	assets, shares, err := parseAssetsShares(assetsText, sharesText, market.LoanDecimals)
	if err != nil {
		return solana.Signature{}, err
	}

	owner := c.signer.PublicKey()
	tokenAccount, err := c.ResolveTokenAccount(ctx, market.LoanMint, owner, owner)
	if err != nil {
		return solana.Signature{}, err
	}
	position, _, err := morpho.DerivePositionPDA(id, owner)
	if err != nil {
		return solana.Signature{}, err
	}
	addrs, err := marketAddresses(id)
	if err != nil {
		return solana.Signature{}, err
	}

	withdrawIx, err := morpho.NewWithdrawInstruction(
		assets, shares,
		owner, addrs.protocol, addrs.market, position,
		tokenAccount.Address, addrs.loanVault, market.LoanMint, tokenAccount.TokenProgram,
	)
	if err != nil {
		return solana.Signature{}, err
	}

	return c.Submit(ctx, []solana.Instruction{tokenAccount.CreateInstruction, withdrawIx})
}

// SupplyCollateral deposits collateral; amountText is a human decimal in
// collateral-asset units.
func (c *SigningClient) SupplyCollateral(ctx context.Context, id morpho.MarketID, amountText string) (solana.Signature, error) {
	market, err := c.FetchMarket(ctx, id)
	if err != nil {
		return solana.Signature{}, err
	}
	value, err := amount.ParseDecimal(amountText, market.CollateralDecimals)
	if err != nil {
		return solana.Signature{}, err
	}

	owner := c.signer.PublicKey()
	tokenAccount, err := c.ResolveTokenAccount(ctx, market.CollateralMint, owner, owner)
	if err != nil {
		return solana.Signature{}, err
	}
	position, err := c.EnsurePosition(ctx, id, owner)
	if err != nil {
		return solana.Signature{}, err
	}
	addrs, err := marketAddresses(id)
	if err != nil {
		return solana.Signature{}, err
	}

	supplyIx, err := morpho.NewSupplyCollateralInstruction(
		value,
		owner, addrs.market, position.Address,
		tokenAccount.Address, addrs.collateralVault, market.CollateralMint, tokenAccount.TokenProgram,
	)
	if err != nil {
		return solana.Signature{}, err
	}

	return c.Submit(ctx, []solana.Instruction{
		tokenAccount.CreateInstruction,
		position.CreateInstruction,
		supplyIx,
	})
}

// WithdrawCollateral removes collateral, subject to the program's health
// check against the market oracle.
func (c *SigningClient) WithdrawCollateral(ctx context.Context, id morpho.MarketID, amountText string) (solana.Signature, error) {
	market, err := c.FetchMarket(ctx, id)
	if err != nil {
		return solana.Signature{}, err
	}
	value, err := amount.ParseDecimal(amountText, market.CollateralDecimals)
	if err != nil {
		return solana.Signature{}, err
	}

	owner := c.signer.PublicKey()
	tokenAccount, err := c.ResolveTokenAccount(ctx, market.CollateralMint, owner, owner)
	if err != nil {
		return solana.Signature{}, err
	}
	position, _, err := morpho.DerivePositionPDA(id, owner)
	if err != nil {
		return solana.Signature{}, err
	}
	addrs, err := marketAddresses(id)
	if err != nil {
		return solana.Signature{}, err
	}

	withdrawIx, err := morpho.NewWithdrawCollateralInstruction(
		value,
		owner, addrs.market, position,
		tokenAccount.Address, addrs.collateralVault, market.CollateralMint, market.Oracle, tokenAccount.TokenProgram,
	)
	if err != nil {
		return solana.Signature{}, err
	}

	return c.Submit(ctx, []solana.Instruction{tokenAccount.CreateInstruction, withdrawIx})
}

// Borrow takes loan assets against posted collateral.
func (c *SigningClient) Borrow(ctx context.Context, id morpho.MarketID, assetsText, sharesText string) (solana.Signature, error) {
	market, err := c.FetchMarket(ctx, id)
	if err != nil {
		return solana.Signature{}, err
	}
	assets, shares, err := parseAssetsShares(assetsText, sharesText, market.LoanDecimals)
	if err != nil {
		return solana.Signature{}, err
	}

	owner := c.signer.PublicKey()
	tokenAccount, err := c.ResolveTokenAccount(ctx, market.LoanMint, owner, owner)
	if err != nil {
		return solana.Signature{}, err
	}
	position, _, err := morpho.DerivePositionPDA(id, owner)
	if err != nil {
		return solana.Signature{}, err
	}
	addrs, err := marketAddresses(id)
	if err != nil {
		return solana.Signature{}, err
	}

	borrowIx, err := morpho.NewBorrowInstruction(
		assets, shares,
		owner, addrs.protocol, addrs.market, position,
		tokenAccount.Address, addrs.loanVault, market.LoanMint, market.Oracle, tokenAccount.TokenProgram,
	)
	if err != nil {
		return solana.Signature{}, err
	}

	return c.Submit(ctx, []solana.Instruction{tokenAccount.CreateInstruction, borrowIx})
}

// Repay pays down borrow shares from the caller's token account.
func (c *SigningClient) Repay(ctx context.Context, id morpho.MarketID, assetsText, sharesText string) (solana.Signature, error) {
	market, err := c.FetchMarket(ctx, id)
	if err != nil {
		return solana.Signature{}, err
	}
	assets, shares, err := parseAssetsShares(assetsText, sharesText, market.LoanDecimals)
	if err != nil {
		return solana.Signature{}, err
	}

	owner := c.signer.PublicKey()
	tokenAccount, err := c.ResolveTokenAccount(ctx, market.LoanMint, owner, owner)
	if err != nil {
		return solana.Signature{}, err
	}
	position, _, err := morpho.DerivePositionPDA(id, owner)
	if err != nil {
		return solana.Signature{}, err
	}
	addrs, err := marketAddresses(id)
	if err != nil {
		return solana.Signature{}, err
	}

	repayIx, err := morpho.NewRepayInstruction(
		assets, shares,
		owner, addrs.market, position,
		tokenAccount.Address, addrs.loanVault, market.LoanMint, tokenAccount.TokenProgram,
	)
	if err != nil {
		return solana.Signature{}, err
	}

	return c.Submit(ctx, []solana.Instruction{tokenAccount.CreateInstruction, repayIx})
}

// Liquidate repays part of an underwater borrower's debt and seizes
// collateral at the liquidation incentive computed on chain.
func (c *SigningClient) Liquidate(ctx context.Context, id morpho.MarketID, borrower solana.PublicKey, repaidAssetsText, repaidSharesText string) (solana.Signature, error) {
	market, err := c.FetchMarket(ctx, id)
	if err != nil {
		return solana.Signature{}, err
	}
	repaidAssets, repaidShares, err := parseAssetsShares(repaidAssetsText, repaidSharesText, market.LoanDecimals)
	if err != nil {
		return solana.Signature{}, err
	}

	liquidator := c.signer.PublicKey()
	loanAccount, err := c.ResolveTokenAccount(ctx, market.LoanMint, liquidator, liquidator)
	if err != nil {
		return solana.Signature{}, err
	}
	collateralAccount, err := c.ResolveTokenAccount(ctx, market.CollateralMint, liquidator, liquidator)
	if err != nil {
		return solana.Signature{}, err
	}

	// The borrower's position must already exist; a liquidation never
	// creates accounts for the borrower.
	borrowerPosition, _, err := morpho.DerivePositionPDA(id, borrower)
	if err != nil {
		return solana.Signature{}, err
	}
	if _, err := c.FetchPosition(ctx, id, borrower); err != nil {
		return solana.Signature{}, err
	}
	addrs, err := marketAddresses(id)
	if err != nil {
		return solana.Signature{}, err
	}

	liquidateIx, err := morpho.NewLiquidateInstruction(
		repaidAssets, repaidShares,
		liquidator, addrs.protocol, addrs.market, borrowerPosition,
		loanAccount.Address, collateralAccount.Address,
		addrs.loanVault, addrs.collateralVault,
		market.LoanMint, market.CollateralMint, market.Oracle,
		loanAccount.TokenProgram, collateralAccount.TokenProgram,
	)
	if err != nil {
		return solana.Signature{}, err
	}

	return c.Submit(ctx, []solana.Instruction{
		loanAccount.CreateInstruction,
		collateralAccount.CreateInstruction,
		liquidateIx,
	})
}

// FlashLoanCycle borrows and immediately repays within one transaction via
// the start/end instruction pair. Any instructions the caller wants to run
// with the borrowed liquidity go between the two.
func (c *SigningClient) FlashLoanCycle(ctx context.Context, id morpho.MarketID, amountText string, between ...solana.Instruction) (solana.Signature, error) {
	market, err := c.FetchMarket(ctx, id)
	if err != nil {
		return solana.Signature{}, err
	}
	value, err := amount.ParseDecimal(amountText, market.LoanDecimals)
	if err != nil {
		return solana.Signature{}, err
	}

	borrower := c.signer.PublicKey()
	tokenAccount, err := c.ResolveTokenAccount(ctx, market.LoanMint, borrower, borrower)
	if err != nil {
		return solana.Signature{}, err
	}
	addrs, err := marketAddresses(id)
	if err != nil {
		return solana.Signature{}, err
	}

	startIx, err := morpho.NewFlashLoanStartInstruction(
		value, borrower, addrs.market, tokenAccount.Address, addrs.loanVault, market.LoanMint, tokenAccount.TokenProgram,
	)
	if err != nil {
		return solana.Signature{}, err
	}
	endIx, err := morpho.NewFlashLoanEndInstruction(
		borrower, addrs.market, tokenAccount.Address, addrs.loanVault, market.LoanMint, tokenAccount.TokenProgram,
	)
	if err != nil {
		return solana.Signature{}, err
	}

	instructions := make([]solana.Instruction, 0, len(between)+3)
	instructions = append(instructions, tokenAccount.CreateInstruction, startIx)
	instructions = append(instructions, between...)
	instructions = append(instructions, endIx)
	return c.Submit(ctx, instructions)
}

// FlashLoan issues the single-instruction flash loan. The program requires
// repayment within this same instruction, which only a custom on-chain callee
// can satisfy, so from a plain wallet this always fails on chain. It is kept
// exposed for completeness; FlashLoanCycle is the usable path.
func (c *SigningClient) FlashLoan(ctx context.Context, id morpho.MarketID, amountText string) (solana.Signature, error) {
	market, err := c.FetchMarket(ctx, id)
	if err != nil {
		return solana.Signature{}, err
	}
	value, err := amount.ParseDecimal(amountText, market.LoanDecimals)
	if err != nil {
		return solana.Signature{}, err
	}

	borrower := c.signer.PublicKey()
	tokenAccount, err := c.ResolveTokenAccount(ctx, market.LoanMint, borrower, borrower)
	if err != nil {
		return solana.Signature{}, err
	}
	addrs, err := marketAddresses(id)
	if err != nil {
		return solana.Signature{}, err
	}

	ix, err := morpho.NewFlashLoanInstruction(
		value, borrower, addrs.market, tokenAccount.Address, addrs.loanVault, market.LoanMint, tokenAccount.TokenProgram,
	)
	if err != nil {
		return solana.Signature{}, err
	}
	return c.Submit(ctx, []solana.Instruction{tokenAccount.CreateInstruction, ix})
}

// AccrueInterest cranks a market's interest accrual. Permissionless.
func (c *SigningClient) AccrueInterest(ctx context.Context, id morpho.MarketID) (solana.Signature, error) {
	market, err := c.FetchMarket(ctx, id)
	if err != nil {
		return solana.Signature{}, err
	}
	marketAddress, _, err := morpho.DeriveMarketPDA(id)
	if err != nil {
		return solana.Signature{}, err
	}
	ix, err := morpho.NewAccrueInterestInstruction(c.signer.PublicKey(), marketAddress, market.Irm)
	if err != nil {
		return solana.Signature{}, err
	}
	return c.Submit(ctx, []solana.Instruction{ix})
}

// ClosePosition reclaims the rent of an emptied position account.
func (c *SigningClient) ClosePosition(ctx context.Context, id morpho.MarketID) (solana.Signature, error) {
	owner := c.signer.PublicKey()
	marketAddress, _, err := morpho.DeriveMarketPDA(id)
	if err != nil {
		return solana.Signature{}, err
	}
	position, _, err := morpho.DerivePositionPDA(id, owner)
	if err != nil {
		return solana.Signature{}, err
	}
	ix, err := morpho.NewClosePositionInstruction(owner, marketAddress, position)
	if err != nil {
		return solana.Signature{}, err
	}
	return c.Submit(ctx, []solana.Instruction{ix})
}

// SetAuthorization lets another key manage the caller's positions.
func (c *SigningClient) SetAuthorization(ctx context.Context, authorized solana.PublicKey) (solana.Signature, error) {
	authorizer := c.signer.PublicKey()
	authorization, _, err := morpho.DeriveAuthorizationPDA(authorizer, authorized)
	if err != nil {
		return solana.Signature{}, err
	}
	ix, err := morpho.NewSetAuthorizationInstruction(authorizer, authorization, authorized)
	if err != nil {
		return solana.Signature{}, err
	}
	return c.Submit(ctx, []solana.Instruction{ix})
}

func (c *SigningClient) RevokeAuthorization(ctx context.Context, authorized solana.PublicKey) (solana.Signature, error) {
	authorizer := c.signer.PublicKey()
	authorization, _, err := morpho.DeriveAuthorizationPDA(authorizer, authorized)
	if err != nil {
		return solana.Signature{}, err
	}
	ix, err := morpho.NewRevokeAuthorizationInstruction(authorizer, authorization, authorized)
	if err != nil {
		return solana.Signature{}, err
	}
	return c.Submit(ctx, []solana.Instruction{ix})
}

type marketPDAs struct {
	protocol        solana.PublicKey
	market          solana.PublicKey
	loanVault       solana.PublicKey
	collateralVault solana.PublicKey
}

func marketAddresses(id morpho.MarketID) (marketPDAs, error) {
	protocol, _, err := morpho.DeriveProtocolPDA()
	if err != nil {
		return marketPDAs{}, err
	}
	market, _, err := morpho.DeriveMarketPDA(id)
	if err != nil {
		return marketPDAs{}, err
	}
	loanVault, _, err := morpho.DeriveLoanVaultPDA(id)
	if err != nil {
		return marketPDAs{}, err
	}
	collateralVault, _, err := morpho.DeriveCollateralVaultPDA(id)
	if err != nil {
		return marketPDAs{}, err
	}
	return marketPDAs{
		protocol:        protocol,
		market:          market,
		loanVault:       loanVault,
		collateralVault: collateralVault,
	}, nil
}

// parseAssetsShares parses the asset/share pair shared by supply, withdraw,
// borrow, repay, and liquidate. Assets are human decimals; shares are raw.
func parseAssetsShares(assetsText, sharesText string, decimals uint8) (uint64, uint64, error) {
	assets, err := amount.ParseDecimal(assetsText, decimals)
	if err != nil {
		return 0, 0, fmt.Errorf("assets: %w", err)
	}
	shares, err := amount.ParseInteger(sharesText)
	if err != nil {
		return 0, 0, fmt.Errorf("shares: %w", err)
	}
	return assets, shares, nil
}
