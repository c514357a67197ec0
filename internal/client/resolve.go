package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var ErrUnsupportedMint = errors.New("mint not owned by a known token program")

// TokenAccountResolution is the outcome of an associated-token-account
// lookup. CreateInstruction is nil when the account already exists. The
// result is a point-in-time snapshot; callers re-resolve for every
// transaction attempt.
type TokenAccountResolution struct {
	Address           solana.PublicKey
	TokenProgram      solana.PublicKey
	CreateInstruction solana.Instruction
}

// ResolveTokenAccount determines which token program governs the mint,
// derives the associated token account for the owner, and returns an
// idempotent creation instruction when the account does not exist yet. A
// missing mint is fatal.
func (c *Client) ResolveTokenAccount(ctx context.Context, mint, owner, payer solana.PublicKey) (TokenAccountResolution, error) {
	mintAccount, err := c.account(ctx, mint)
	if err != nil {
		return TokenAccountResolution{}, fmt.Errorf("resolve mint %s: %w", mint, err)
	}

	tokenProgram := mintAccount.Owner
	switch tokenProgram {
	case solana.TokenProgramID, solana.Token2022ProgramID:
	default:
		return TokenAccountResolution{}, fmt.Errorf("%w: mint %s owned by %s", ErrUnsupportedMint, mint, tokenProgram)
	}

	address, _, err := solana.FindProgramAddress(
		[][]byte{owner.Bytes(), tokenProgram.Bytes(), mint.Bytes()},
		solana.SPLAssociatedTokenAccountProgramID,
	)
	if err != nil {
		return TokenAccountResolution{}, fmt.Errorf("derive associated token account: %w", err)
	}

	resolution := TokenAccountResolution{Address: address, TokenProgram: tokenProgram}

	exists, err := c.AccountExists(ctx, address)
	if err != nil {
		return TokenAccountResolution{}, err
	}
	if !exists {
		resolution.CreateInstruction = newCreateIdempotentInstruction(payer, address, owner, mint, tokenProgram)
	}
	return resolution, nil
}

// newCreateIdempotentInstruction builds the associated-token-program
// CreateIdempotent instruction (variant tag 1): a no-op when the account
// already exists, which makes resolve-then-submit races harmless.
func newCreateIdempotentInstruction(payer, associatedToken, owner, mint, tokenProgram solana.PublicKey) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(payer, true, true),
		solana.NewAccountMeta(associatedToken, true, false),
		solana.NewAccountMeta(owner, false, false),
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(tokenProgram, false, false),
	}
	return solana.NewInstruction(solana.SPLAssociatedTokenAccountProgramID, accounts, []byte{1})
}
