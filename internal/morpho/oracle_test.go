package morpho

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAccount_StaticOracle(t *testing.T) {
	admin := repeatKey(0xad)

	data := newFixture(Account_StaticOracle).
		u8(252).
		u128(2_000_000_000, 42).
		key(admin).
		bytes()

	oracle, err := ParseAccount_StaticOracle(data)
	require.NoError(t, err)
	require.Equal(t, uint8(252), oracle.Bump)
	require.Equal(t, uint64(2_000_000_000), oracle.Price.Lo)
	require.Equal(t, uint64(42), oracle.Price.Hi)
	require.Equal(t, admin, oracle.Admin)
}

func TestOraclePrice(t *testing.T) {
	t.Run("static oracle", func(t *testing.T) {
		data := newFixture(Account_StaticOracle).
			u8(252).
			u128(5_000_000, 0).
			key(repeatKey(0xad)).
			bytes()

		price, err := OraclePrice(data)
		require.NoError(t, err)
		require.Zero(t, price.Cmp(big.NewInt(5_000_000)))
	})

	t.Run("switchboard feed rejected off chain", func(t *testing.T) {
		_, err := OraclePrice(make([]byte, 3851))
		require.ErrorIs(t, err, ErrUnsupportedOracle)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := OraclePrice([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9})
		require.ErrorIs(t, err, ErrInvalidAccountData)
	})
}

func TestOracleScale(t *testing.T) {
	want, ok := new(big.Int).SetString("1000000000000000000000000000000000000", 10)
	require.True(t, ok)
	require.Zero(t, OracleScale.Cmp(want))
}
