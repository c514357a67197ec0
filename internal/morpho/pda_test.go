package morpho

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDerivationsAreDeterministic(t *testing.T) {
	marketID := ComputeMarketID(repeatKey(0x11), repeatKey(0x22), repeatKey(0x33), repeatKey(0x44), 8600)
	owner := repeatKey(0x55)

	first, firstBump, err := DerivePositionPDA(marketID, owner)
	require.NoError(t, err)
	second, secondBump, err := DerivePositionPDA(marketID, owner)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, firstBump, secondBump)
}

func TestDerivationCategoriesDiverge(t *testing.T) {
	marketID := ComputeMarketID(repeatKey(0x11), repeatKey(0x22), repeatKey(0x33), repeatKey(0x44), 8600)

	market, _, err := DeriveMarketPDA(marketID)
	require.NoError(t, err)
	loanVault, _, err := DeriveLoanVaultPDA(marketID)
	require.NoError(t, err)
	collateralVault, _, err := DeriveCollateralVaultPDA(marketID)
	require.NoError(t, err)

	// Same entity seed, different category seed: all three must land on
	// different addresses.
	require.NotEqual(t, market, loanVault)
	require.NotEqual(t, market, collateralVault)
	require.NotEqual(t, loanVault, collateralVault)
}

func TestDeriveAuthorizationPDAIsDirectional(t *testing.T) {
	alice := repeatKey(0xaa)
	bob := repeatKey(0xbb)

	forward, _, err := DeriveAuthorizationPDA(alice, bob)
	require.NoError(t, err)
	reverse, _, err := DeriveAuthorizationPDA(bob, alice)
	require.NoError(t, err)

	require.NotEqual(t, forward, reverse)
}

func TestDeriveRejectsOversizedSeeds(t *testing.T) {
	_, _, err := derive(seedMarket, bytes.Repeat([]byte{0x01}, 33))
	require.ErrorIs(t, err, ErrInvalidSeeds)
}

func TestMustDeriveProtocolPDA(t *testing.T) {
	require.NotPanics(t, func() {
		pk := MustDeriveProtocolPDA()
		require.False(t, pk.IsZero())
	})
}
