// Package morpho is the hand-written client for the on-chain Morpho lending
// program: deterministic address derivation, market-id hashing, account
// layouts, and builders for every program instruction. Everything here is
// pure; network access lives in internal/client.
package morpho

import (
	"crypto/sha256"
	"errors"

	"github.com/gagliardetto/solana-go"
)

// ProgramID is the deployed lending program. Overridable at startup for
// localnet/devnet deployments.
var ProgramID = solana.MustPublicKeyFromBase58("8vdp9wEJrf5UW7o6u3YVSg5x1hkP6Gik5J3bvyNNEsuU")

var (
	ErrInvalidAccountData = errors.New("unexpected account data")
	ErrInvalidSeeds       = errors.New("invalid derivation seeds")
	ErrUnsupportedOracle  = errors.New("oracle account not decodable off chain")
)

// Seed layout: every PDA is ["morpho", <category>, entity seeds...].
const seedPrefix = "morpho"

const (
	seedProtocol        = "protocol"
	seedMarket          = "market"
	seedPosition        = "position"
	seedLoanVault       = "loan_vault"
	seedCollateralVault = "collateral_vault"
	seedAuthorization   = "authorization"
)

func instructionDiscriminator(name string) [8]byte {
	hash := sha256.Sum256([]byte("global:" + name))
	var out [8]byte
	copy(out[:], hash[:8])
	return out
}

func accountDiscriminator(name string) [8]byte {
	hash := sha256.Sum256([]byte("account:" + name))
	var out [8]byte
	copy(out[:], hash[:8])
	return out
}
