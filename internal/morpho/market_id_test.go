package morpho

import (
	"bytes"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func repeatKey(b byte) solana.PublicKey {
	return solana.PublicKeyFromBytes(bytes.Repeat([]byte{b}, 32))
}

func TestComputeMarketID(t *testing.T) {
	t.Run("known vector", func(t *testing.T) {
		id := ComputeMarketID(repeatKey(0x11), repeatKey(0x22), repeatKey(0x33), repeatKey(0x44), 8600)
		require.Equal(t, "b35fadba9ada61a724068a489737c1925948ec59b4bd8c9164b6a4f13948ce19", id.String())
	})

	t.Run("zero parameters", func(t *testing.T) {
		id := ComputeMarketID(solana.PublicKey{}, solana.PublicKey{}, solana.PublicKey{}, solana.PublicKey{}, 0)
		require.Equal(t, "3a5912a7c5faa06ee4fe906253e339467a9ce87d533c65be3c15cb231cdb25f9", id.String())
	})

	t.Run("lltv changes the id", func(t *testing.T) {
		a := ComputeMarketID(repeatKey(0x11), repeatKey(0x22), repeatKey(0x33), repeatKey(0x44), 8600)
		b := ComputeMarketID(repeatKey(0x11), repeatKey(0x22), repeatKey(0x33), repeatKey(0x44), 9000)
		require.NotEqual(t, a, b)
	})

	t.Run("mint order matters", func(t *testing.T) {
		a := ComputeMarketID(repeatKey(0x11), repeatKey(0x22), repeatKey(0x33), repeatKey(0x44), 8600)
		b := ComputeMarketID(repeatKey(0x22), repeatKey(0x11), repeatKey(0x33), repeatKey(0x44), 8600)
		require.NotEqual(t, a, b)
	})
}

func TestMarketIDFromHex(t *testing.T) {
	want := ComputeMarketID(repeatKey(0x11), repeatKey(0x22), repeatKey(0x33), repeatKey(0x44), 8600)

	got, err := MarketIDFromHex(want.String())
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = MarketIDFromHex("abcd")
	require.ErrorIs(t, err, ErrInvalidAccountData)

	_, err = MarketIDFromHex("not-hex")
	require.Error(t, err)
}
