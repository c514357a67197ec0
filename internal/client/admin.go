package client

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/yashhsm/morpho-on-solana/internal/amount"
	"github.com/yashhsm/morpho-on-solana/internal/morpho"
)

// Governance operations. The program enforces that the signer holds the
// relevant role; the console just builds and submits.

func (c *SigningClient) InitializeProtocol(ctx context.Context, feeRecipient solana.PublicKey) (solana.Signature, error) {
	protocol, _, err := morpho.DeriveProtocolPDA()
	if err != nil {
		return solana.Signature{}, err
	}
	ix, err := morpho.NewInitializeInstruction(c.signer.PublicKey(), protocol, feeRecipient)
	if err != nil {
		return solana.Signature{}, err
	}
	return c.Submit(ctx, []solana.Instruction{ix})
}

func (c *SigningClient) TransferOwnership(ctx context.Context, newOwner solana.PublicKey) (solana.Signature, error) {
	protocol, _, err := morpho.DeriveProtocolPDA()
	if err != nil {
		return solana.Signature{}, err
	}
	ix, err := morpho.NewTransferOwnershipInstruction(c.signer.PublicKey(), protocol, newOwner)
	if err != nil {
		return solana.Signature{}, err
	}
	return c.Submit(ctx, []solana.Instruction{ix})
}

func (c *SigningClient) AcceptOwnership(ctx context.Context) (solana.Signature, error) {
	protocol, _, err := morpho.DeriveProtocolPDA()
	if err != nil {
		return solana.Signature{}, err
	}
	ix, err := morpho.NewAcceptOwnershipInstruction(c.signer.PublicKey(), protocol)
	if err != nil {
		return solana.Signature{}, err
	}
	return c.Submit(ctx, []solana.Instruction{ix})
}

func (c *SigningClient) SetFeeRecipient(ctx context.Context, newFeeRecipient solana.PublicKey) (solana.Signature, error) {
	protocol, _, err := morpho.DeriveProtocolPDA()
	if err != nil {
		return solana.Signature{}, err
	}
	ix, err := morpho.NewSetFeeRecipientInstruction(c.signer.PublicKey(), protocol, newFeeRecipient)
	if err != nil {
		return solana.Signature{}, err
	}
	return c.Submit(ctx, []solana.Instruction{ix})
}

func (c *SigningClient) SetProtocolPaused(ctx context.Context, paused bool) (solana.Signature, error) {
	protocol, _, err := morpho.DeriveProtocolPDA()
	if err != nil {
		return solana.Signature{}, err
	}
	ix, err := morpho.NewSetProtocolPausedInstruction(paused, c.signer.PublicKey(), protocol)
	if err != nil {
		return solana.Signature{}, err
	}
	return c.Submit(ctx, []solana.Instruction{ix})
}

// EnableLltv whitelists a loan-to-value ratio, given in basis points.
func (c *SigningClient) EnableLltv(ctx context.Context, lltvText string) (solana.Signature, error) {
	lltv, err := amount.ParseInteger(lltvText)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("lltv: %w", err)
	}
	protocol, _, err := morpho.DeriveProtocolPDA()
	if err != nil {
		return solana.Signature{}, err
	}
	ix, err := morpho.NewEnableLltvInstruction(lltv, c.signer.PublicKey(), protocol)
	if err != nil {
		return solana.Signature{}, err
	}
	return c.Submit(ctx, []solana.Instruction{ix})
}

func (c *SigningClient) EnableIrm(ctx context.Context, irm solana.PublicKey) (solana.Signature, error) {
	protocol, _, err := morpho.DeriveProtocolPDA()
	if err != nil {
		return solana.Signature{}, err
	}
	ix, err := morpho.NewEnableIrmInstruction(c.signer.PublicKey(), protocol, irm)
	if err != nil {
		return solana.Signature{}, err
	}
	return c.Submit(ctx, []solana.Instruction{ix})
}

// CreateMarket registers a new market for the given parameter tuple and
// returns its computed id along with the transaction signature. The token
// program for each vault follows the respective mint's owner.
func (c *SigningClient) CreateMarket(ctx context.Context, collateralMint, loanMint, oracle, irm solana.PublicKey, lltvText string) (morpho.MarketID, solana.Signature, error) {
	lltv, err := amount.ParseInteger(lltvText)
	if err != nil {
		return morpho.MarketID{}, solana.Signature{}, fmt.Errorf("lltv: %w", err)
	}

	id := morpho.ComputeMarketID(collateralMint, loanMint, oracle, irm, lltv)
	addrs, err := marketAddresses(id)
	if err != nil {
		return morpho.MarketID{}, solana.Signature{}, err
	}

	collateralProgram, err := c.mintTokenProgram(ctx, collateralMint)
	if err != nil {
		return morpho.MarketID{}, solana.Signature{}, err
	}
	loanProgram, err := c.mintTokenProgram(ctx, loanMint)
	if err != nil {
		return morpho.MarketID{}, solana.Signature{}, err
	}

	ix, err := morpho.NewCreateMarketInstruction(
		lltv,
		c.signer.PublicKey(), addrs.protocol, addrs.market,
		collateralMint, loanMint, oracle, irm,
		addrs.loanVault, addrs.collateralVault,
		loanProgram, collateralProgram,
	)
	if err != nil {
		return morpho.MarketID{}, solana.Signature{}, err
	}

	sig, err := c.Submit(ctx, []solana.Instruction{ix})
	if err != nil {
		return morpho.MarketID{}, solana.Signature{}, err
	}
	return id, sig, nil
}

func (c *SigningClient) SetMarketPaused(ctx context.Context, id morpho.MarketID, paused bool) (solana.Signature, error) {
	addrs, err := marketAddresses(id)
	if err != nil {
		return solana.Signature{}, err
	}
	ix, err := morpho.NewSetMarketPausedInstruction(paused, c.signer.PublicKey(), addrs.protocol, addrs.market)
	if err != nil {
		return solana.Signature{}, err
	}
	return c.Submit(ctx, []solana.Instruction{ix})
}

// SetFee updates a market's fee, in basis points of interest.
func (c *SigningClient) SetFee(ctx context.Context, id morpho.MarketID, feeText string) (solana.Signature, error) {
	fee, err := amount.ParseInteger(feeText)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("fee: %w", err)
	}
	addrs, err := marketAddresses(id)
	if err != nil {
		return solana.Signature{}, err
	}
	ix, err := morpho.NewSetFeeInstruction(fee, c.signer.PublicKey(), addrs.protocol, addrs.market)
	if err != nil {
		return solana.Signature{}, err
	}
	return c.Submit(ctx, []solana.Instruction{ix})
}

// ClaimFees sends accumulated protocol fees to the fee recipient's token
// account, creating it first when needed.
func (c *SigningClient) ClaimFees(ctx context.Context, id morpho.MarketID) (solana.Signature, error) {
	market, err := c.FetchMarket(ctx, id)
	if err != nil {
		return solana.Signature{}, err
	}
	protocol, err := c.FetchProtocol(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	recipientAccount, err := c.ResolveTokenAccount(ctx, market.LoanMint, protocol.FeeRecipient, c.signer.PublicKey())
	if err != nil {
		return solana.Signature{}, err
	}
	addrs, err := marketAddresses(id)
	if err != nil {
		return solana.Signature{}, err
	}

	ix, err := morpho.NewClaimFeesInstruction(
		c.signer.PublicKey(), addrs.protocol, addrs.market,
		recipientAccount.Address, addrs.loanVault, market.LoanMint, recipientAccount.TokenProgram,
	)
	if err != nil {
		return solana.Signature{}, err
	}
	return c.Submit(ctx, []solana.Instruction{recipientAccount.CreateInstruction, ix})
}

func (c *Client) mintTokenProgram(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, error) {
	acc, err := c.account(ctx, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("resolve mint %s: %w", mint, err)
	}
	switch acc.Owner {
	case solana.TokenProgramID, solana.Token2022ProgramID:
		return acc.Owner, nil
	default:
		return solana.PublicKey{}, fmt.Errorf("%w: mint %s owned by %s", ErrUnsupportedMint, mint, acc.Owner)
	}
}
