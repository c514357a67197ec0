package morpho

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// derive computes a program address from the fixed prefix, a category seed,
// and entity seeds. Over-length seeds surface as an error from the underlying
// derivation; they are never truncated.
func derive(category string, entities ...[]byte) (solana.PublicKey, uint8, error) {
	seeds := make([][]byte, 0, 2+len(entities))
	seeds = append(seeds, []byte(seedPrefix), []byte(category))
	seeds = append(seeds, entities...)
	addr, bump, err := solana.FindProgramAddress(seeds, ProgramID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("%w: derive %s address: %v", ErrInvalidSeeds, category, err)
	}
	return addr, bump, nil
}

func DeriveProtocolPDA() (solana.PublicKey, uint8, error) {
	return derive(seedProtocol)
}

func DeriveMarketPDA(marketID MarketID) (solana.PublicKey, uint8, error) {
	return derive(seedMarket, marketID[:])
}

func DerivePositionPDA(marketID MarketID, owner solana.PublicKey) (solana.PublicKey, uint8, error) {
	return derive(seedPosition, marketID[:], owner.Bytes())
}

func DeriveLoanVaultPDA(marketID MarketID) (solana.PublicKey, uint8, error) {
	return derive(seedLoanVault, marketID[:])
}

func DeriveCollateralVaultPDA(marketID MarketID) (solana.PublicKey, uint8, error) {
	return derive(seedCollateralVault, marketID[:])
}

func DeriveAuthorizationPDA(authorizer, authorized solana.PublicKey) (solana.PublicKey, uint8, error) {
	return derive(seedAuthorization, authorizer.Bytes(), authorized.Bytes())
}

func MustDeriveProtocolPDA() solana.PublicKey {
	pk, _, err := DeriveProtocolPDA()
	if err != nil {
		panic(fmt.Errorf("derive protocol PDA: %w", err))
	}
	return pk
}
