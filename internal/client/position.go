package client

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/yashhsm/morpho-on-solana/internal/morpho"
)

// PositionResolution mirrors TokenAccountResolution for position accounts.
type PositionResolution struct {
	Address           solana.PublicKey
	CreateInstruction solana.Instruction
}

// EnsurePosition derives the caller's position address for a market and, when
// no account exists there yet, returns a creation instruction to prepend to
// the action's transaction.
func (c *Client) EnsurePosition(ctx context.Context, id morpho.MarketID, owner solana.PublicKey) (PositionResolution, error) {
	market, _, err := morpho.DeriveMarketPDA(id)
	if err != nil {
		return PositionResolution{}, err
	}
	address, _, err := morpho.DerivePositionPDA(id, owner)
	if err != nil {
		return PositionResolution{}, err
	}

	resolution := PositionResolution{Address: address}

	exists, err := c.AccountExists(ctx, address)
	if err != nil {
		return PositionResolution{}, fmt.Errorf("check position %s: %w", address, err)
	}
	if !exists {
		createIx, err := morpho.NewCreatePositionInstruction(owner, market, address)
		if err != nil {
			return PositionResolution{}, err
		}
		resolution.CreateInstruction = createIx
	}
	return resolution, nil
}
